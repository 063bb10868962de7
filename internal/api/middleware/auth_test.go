package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codecrate/internal/common/security"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(auth *jwtauth.JWTAuth) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(auth))
	r.Use(Authenticator)
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(userID))
	})
	return r
}

func TestAuthenticatorExtractsUserID(t *testing.T) {
	auth := security.NewTokenAuth([]byte("test-secret"))
	router := newAuthRouter(auth)

	token, err := security.GenerateToken(auth, "user-42", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-42", rec.Body.String())
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	auth := security.NewTokenAuth([]byte("test-secret"))
	router := newAuthRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorRejectsWrongKey(t *testing.T) {
	auth := security.NewTokenAuth([]byte("test-secret"))
	other := security.NewTokenAuth([]byte("other-secret"))
	router := newAuthRouter(auth)

	token, err := security.GenerateToken(other, "user-42", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
