package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type fakeFileRepo struct {
	files map[int]types.UploadedFile
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[int]types.UploadedFile{}}
}

func (r *fakeFileRepo) Create(_ context.Context, file types.UploadedFile) (types.UploadedFile, error) {
	file.ID = len(r.files) + 1
	r.files[file.ID] = file
	return file, nil
}

func (r *fakeFileRepo) Get(_ context.Context, id int) (types.UploadedFile, error) {
	file, ok := r.files[id]
	if !ok || file.Deleted {
		return types.UploadedFile{}, store.ErrNotFound
	}
	return file, nil
}

func (r *fakeFileRepo) List(_ context.Context, _ store.FileFilter, _, _ int) ([]types.UploadedFile, int, error) {
	var files []types.UploadedFile
	for _, file := range r.files {
		if !file.Deleted {
			files = append(files, file)
		}
	}
	return files, len(files), nil
}

func (r *fakeFileRepo) SoftDelete(_ context.Context, id int) error {
	file, ok := r.files[id]
	if !ok || file.Deleted {
		return store.ErrNotFound
	}
	file.Deleted = true
	r.files[id] = file
	return nil
}

func TestCategorizeMime(t *testing.T) {
	cases := map[string]string{
		"image/png":                 types.FileCategoryImages,
		"image/jpeg":                types.FileCategoryImages,
		"video/mp4":                 types.FileCategoryVideos,
		"application/pdf":           types.FileCategoryDocs,
		"text/plain":                types.FileCategoryDocs,
		"model/gltf-binary":         types.FileCategory3DModels,
		"application/zip":           types.FileCategoryOthers,
		"":                          types.FileCategoryOthers,
		"IMAGE/PNG":                 types.FileCategoryImages,
		"application/octet-stream":  types.FileCategoryOthers,
	}
	for mimeType, want := range cases {
		assert.Equal(t, want, CategorizeMime(mimeType), "mime %q", mimeType)
	}
}

func TestUploadStoresAndRecords(t *testing.T) {
	objects := newFakeObjectStore()
	repo := newFakeFileRepo()
	svc := NewUploadService(objects, repo, "https://cdn.example.com/")

	file, err := svc.Upload(context.Background(), UploadInput{
		OriginalName: "Poster.PNG",
		MimeType:     "image/png",
		Size:         4,
		Body:         bytes.NewReader([]byte("data")),
		UploadedBy:   3,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(file.ObjectKey, "images/"))
	assert.True(t, strings.HasSuffix(file.FileName, ".png"))
	assert.NotEqual(t, "Poster.PNG", file.FileName)
	assert.Equal(t, "Poster.PNG", file.OriginalName)
	assert.Equal(t, "https://cdn.example.com/"+file.ObjectKey, file.FileURL)
	assert.Equal(t, 3, file.UploadedBy)
	assert.Equal(t, []byte("data"), objects.objects[file.ObjectKey])
}

func TestUploadModelByExtension(t *testing.T) {
	svc := NewUploadService(newFakeObjectStore(), newFakeFileRepo(), "")

	file, err := svc.Upload(context.Background(), UploadInput{
		OriginalName: "character.glb",
		MimeType:     "application/octet-stream",
		Size:         3,
		Body:         bytes.NewReader([]byte("glb")),
	})
	require.NoError(t, err)
	assert.Equal(t, types.FileCategory3DModels, file.Category)
	assert.Empty(t, file.FileURL)
}

func TestUploadValidation(t *testing.T) {
	svc := NewUploadService(newFakeObjectStore(), newFakeFileRepo(), "")

	_, err := svc.Upload(context.Background(), UploadInput{MimeType: "image/png", Size: 1, Body: bytes.NewReader([]byte("x"))})
	assert.Error(t, err)

	_, err = svc.Upload(context.Background(), UploadInput{OriginalName: "a.png", MimeType: "image/png", Size: 0, Body: bytes.NewReader(nil)})
	assert.Error(t, err)
}

func TestUploadDelete(t *testing.T) {
	objects := newFakeObjectStore()
	repo := newFakeFileRepo()
	svc := NewUploadService(objects, repo, "")

	file, err := svc.Upload(context.Background(), UploadInput{
		OriginalName: "a.png", MimeType: "image/png", Size: 1, Body: bytes.NewReader([]byte("x")),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), file.ID))
	assert.NotContains(t, objects.objects, file.ObjectKey)

	_, err = svc.Get(context.Background(), file.ID)
	assert.Error(t, err)
}
