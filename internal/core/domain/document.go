package domain

import "time"

// Document is the uploaded source bill. It exists before any pipeline
// stage runs against it; stages only ever read it.
type Document struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Filename  string    `json:"filename"`
	Content   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	JobID     *string   `json:"job_id,omitempty"`
}

// UploadReceipt is returned to the caller after a successful upload.
type UploadReceipt struct {
	JobID      string `json:"job_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}
