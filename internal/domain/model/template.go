package model

import "time"

// Template is an author-defined starter project. The metadata row owns
// identity and the link into blob space; the file tree itself lives in the
// object store under ObjectKey. BucketURL is the last presigned URL handed
// out and is empty until the first blob write completes.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ObjectKey   string    `json:"-"`
	BucketURL   string    `json:"bucket_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateContent is a template together with its blob payload. Pending is
// set when the row exists but the content write has not landed yet; that
// state is reported, not treated as an error.
type TemplateContent struct {
	Template
	Files   *FileTree `json:"files,omitempty"`
	Pending bool      `json:"content_pending"`
}
