package types

import "time"

// File categories assigned by the upload pipeline based on MIME type.
const (
	FileCategoryImages   = "images"
	FileCategoryVideos   = "videos"
	FileCategoryDocs     = "docs"
	FileCategory3DModels = "3dmodels"
	FileCategoryOthers   = "others"
)

// UploadedFile records one object written to the object store through the
// upload endpoint, along with where it landed and who uploaded it.
type UploadedFile struct {
	ID int `json:"id" db:"id"`

	// FileName is the generated name of the stored object.
	FileName string `json:"file_name" db:"file_name"`

	// OriginalName is the client-supplied filename.
	OriginalName string `json:"original_name" db:"original_name"`

	// MimeType is the detected content type of the upload.
	MimeType string `json:"mime_type" db:"mime_type"`

	// FileSize is the object size in bytes.
	FileSize int64 `json:"file_size" db:"file_size"`

	// Category is the auto-assigned folder, one of the FileCategory
	// constants.
	Category string `json:"category" db:"category"`

	// ObjectKey is the full key of the object in the bucket
	// (category/filename).
	ObjectKey string `json:"object_key" db:"object_key"`

	// FileURL is the public URL of the object, when a CDN base is
	// configured.
	FileURL string `json:"file_url,omitempty" db:"file_url"`

	// UploadedBy is the admin who performed the upload. Zero for
	// unauthenticated upload paths.
	UploadedBy int `json:"uploaded_by,omitempty" db:"uploaded_by"`

	// Deleted marks a soft-deleted file. Soft-deleted files are hidden
	// from listings but their objects are retained.
	Deleted bool `json:"-" db:"deleted"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
