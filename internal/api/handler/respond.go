package handler

import (
	"errors"
	"net/http"

	"codecrate/internal/common"
)

// respondPartialOrError gives partial writes their own shape: the metadata
// row exists and a repair is scheduled, so the caller gets 202 with the
// record's address instead of a bare failure.
func respondPartialOrError(w http.ResponseWriter, err error) {
	var pw *common.PartialWriteError
	if errors.As(err, &pw) {
		common.RespondWithJSON(w, http.StatusAccepted, map[string]interface{}{
			"id":              pw.ID,
			"object_key":      pw.ObjectKey,
			"content_pending": true,
			"message":         "record created, content write pending repair",
		})
		return
	}
	common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
}
