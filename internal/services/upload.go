package services

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

// ObjectStore defines the object operations the upload pipeline needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// FileRepository defines persistence operations for upload metadata.
type FileRepository interface {
	Create(ctx context.Context, file types.UploadedFile) (types.UploadedFile, error)
	Get(ctx context.Context, id int) (types.UploadedFile, error)
	List(ctx context.Context, filter store.FileFilter, offset, limit int) ([]types.UploadedFile, int, error)
	SoftDelete(ctx context.Context, id int) error
}

// UploadService writes uploads to the object store under a category folder
// derived from the MIME type, and records their metadata.
type UploadService struct {
	objects ObjectStore
	repo    FileRepository
	cdnBase string
}

func NewUploadService(objects ObjectStore, repo FileRepository, cdnBase string) *UploadService {
	return &UploadService{objects: objects, repo: repo, cdnBase: strings.TrimRight(cdnBase, "/")}
}

// UploadInput describes one incoming file.
type UploadInput struct {
	OriginalName string
	MimeType     string
	Size         int64
	Body         io.Reader
	UploadedBy   int
}

func (s *UploadService) Upload(ctx context.Context, input UploadInput) (types.UploadedFile, error) {
	if input.OriginalName == "" || input.Body == nil {
		return types.UploadedFile{}, apperr.Validation("no file provided")
	}
	if input.Size <= 0 {
		return types.UploadedFile{}, apperr.Validation("file is empty")
	}

	ext := strings.ToLower(path.Ext(input.OriginalName))
	category := CategorizeMime(input.MimeType)
	if category == types.FileCategoryOthers && modelExtensions[ext] {
		category = types.FileCategory3DModels
	}
	fileName := uuid.NewString() + ext
	objectKey := category + "/" + fileName

	if err := s.objects.Put(ctx, objectKey, input.Body, input.Size, input.MimeType); err != nil {
		return types.UploadedFile{}, err
	}

	fileURL := ""
	if s.cdnBase != "" {
		fileURL = s.cdnBase + "/" + objectKey
	}

	return s.repo.Create(ctx, types.UploadedFile{
		FileName:     fileName,
		OriginalName: input.OriginalName,
		MimeType:     input.MimeType,
		FileSize:     input.Size,
		Category:     category,
		ObjectKey:    objectKey,
		FileURL:      fileURL,
		UploadedBy:   input.UploadedBy,
	})
}

func (s *UploadService) Get(ctx context.Context, id int) (types.UploadedFile, error) {
	file, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.UploadedFile{}, apperr.NotFound("file not found")
		}
		return types.UploadedFile{}, err
	}
	return file, nil
}

func (s *UploadService) List(ctx context.Context, filter store.FileFilter, offset, limit int) ([]types.UploadedFile, int, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

// Delete soft-deletes the metadata row and removes the stored object.
func (s *UploadService) Delete(ctx context.Context, id int) error {
	file, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("file not found")
		}
		return err
	}
	return s.objects.Delete(ctx, file.ObjectKey)
}

// CategorizeMime maps a MIME type to the folder the object is stored
// under. Unrecognized types land in "others".
func CategorizeMime(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return types.FileCategoryImages
	case strings.HasPrefix(mimeType, "video/"):
		return types.FileCategoryVideos
	}
	switch mimeType {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/plain",
		"text/csv":
		return types.FileCategoryDocs
	}
	if strings.HasPrefix(mimeType, "model/") {
		return types.FileCategory3DModels
	}
	return types.FileCategoryOthers
}

// 3D model files often arrive as application/octet-stream, so the
// extension decides for them.
var modelExtensions = map[string]bool{
	".glb":  true,
	".gltf": true,
	".fbx":  true,
	".obj":  true,
}
