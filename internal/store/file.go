package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tunebox/apiserver/types"
)

const fileColumns = `id, file_name, original_name, mime_type, file_size, category,
		object_key, file_url, uploaded_by, deleted, created_at, updated_at`

// FileRepository handles persistence for upload metadata. The bytes
// themselves live in object storage; rows here only describe them.
type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file types.UploadedFile) (types.UploadedFile, error) {
	now := time.Now()
	file.CreatedAt = now
	file.UpdatedAt = now

	const query = `
		INSERT INTO uploaded_files (file_name, original_name, mime_type, file_size, category,
			object_key, file_url, uploaded_by, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		file.FileName,
		file.OriginalName,
		file.MimeType,
		file.FileSize,
		file.Category,
		file.ObjectKey,
		file.FileURL,
		file.UploadedBy,
		file.Deleted,
		file.CreatedAt,
		file.UpdatedAt,
	).Scan(&file.ID); err != nil {
		return types.UploadedFile{}, err
	}
	return file, nil
}

func (r *FileRepository) Get(ctx context.Context, id int) (types.UploadedFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM uploaded_files WHERE id = $1 AND NOT deleted`, fileColumns)
	return r.queryOne(ctx, query, id)
}

// FileFilter narrows List results.
type FileFilter struct {
	// Category filters on the derived file category when non-empty.
	Category string

	// UploadedBy filters on the uploading account when non-zero.
	UploadedBy int
}

func (r *FileRepository) List(ctx context.Context, filter FileFilter, offset, limit int) ([]types.UploadedFile, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where := "NOT deleted"
	args := []any{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.UploadedBy != 0 {
		args = append(args, filter.UploadedBy)
		where += fmt.Sprintf(" AND uploaded_by = $%d", len(args))
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(1) FROM uploaded_files WHERE %s`, where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, offset, limit)
	listQuery := fmt.Sprintf(`
		SELECT %s FROM uploaded_files
		WHERE %s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d`, fileColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	files := make([]types.UploadedFile, 0, limit)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// SoftDelete hides the row without touching the stored object.
func (r *FileRepository) SoftDelete(ctx context.Context, id int) error {
	const query = `UPDATE uploaded_files SET deleted = TRUE, updated_at = $1 WHERE id = $2 AND NOT deleted`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FileRepository) queryOne(ctx context.Context, query string, args ...any) (types.UploadedFile, error) {
	file, err := scanFile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.UploadedFile{}, ErrNotFound
		}
		return types.UploadedFile{}, err
	}
	return file, nil
}

func scanFile(row rowScanner) (types.UploadedFile, error) {
	var file types.UploadedFile
	if err := row.Scan(
		&file.ID,
		&file.FileName,
		&file.OriginalName,
		&file.MimeType,
		&file.FileSize,
		&file.Category,
		&file.ObjectKey,
		&file.FileURL,
		&file.UploadedBy,
		&file.Deleted,
		&file.CreatedAt,
		&file.UpdatedAt,
	); err != nil {
		return types.UploadedFile{}, err
	}
	return file, nil
}
