package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/tunebox/apiserver/types"
)

// BannerRepository handles persistence for hero banners.
type BannerRepository struct {
	db *sql.DB
}

func NewBannerRepository(db *sql.DB) *BannerRepository {
	return &BannerRepository{db: db}
}

func (r *BannerRepository) Get(ctx context.Context, id int) (types.HeroBanner, error) {
	const query = `
		SELECT id, banner_image, description, cta_buttons, looping_video, created_at, updated_at
		FROM hero_banners
		WHERE id = $1`
	banner, err := scanBanner(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.HeroBanner{}, ErrNotFound
		}
		return types.HeroBanner{}, err
	}
	return banner, nil
}

func (r *BannerRepository) List(ctx context.Context) ([]types.HeroBanner, error) {
	const query = `
		SELECT id, banner_image, description, cta_buttons, looping_video, created_at, updated_at
		FROM hero_banners
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banners []types.HeroBanner
	for rows.Next() {
		banner, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		banners = append(banners, banner)
	}
	return banners, rows.Err()
}

func (r *BannerRepository) Create(ctx context.Context, banner types.HeroBanner) (types.HeroBanner, error) {
	now := time.Now()
	banner.CreatedAt = now
	banner.UpdatedAt = now

	ctaJSON, err := json.Marshal(banner.CTAButtons)
	if err != nil {
		return types.HeroBanner{}, err
	}

	const query = `
		INSERT INTO hero_banners (banner_image, description, cta_buttons, looping_video, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		banner.BannerImage,
		banner.Description,
		ctaJSON,
		banner.LoopingVideo,
		banner.CreatedAt,
		banner.UpdatedAt,
	).Scan(&banner.ID); err != nil {
		return types.HeroBanner{}, err
	}
	return banner, nil
}

func (r *BannerRepository) Update(ctx context.Context, banner types.HeroBanner) (types.HeroBanner, error) {
	banner.UpdatedAt = time.Now()

	ctaJSON, err := json.Marshal(banner.CTAButtons)
	if err != nil {
		return types.HeroBanner{}, err
	}

	const query = `
		UPDATE hero_banners
		SET banner_image = $1,
			description = $2,
			cta_buttons = $3,
			looping_video = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		banner.BannerImage,
		banner.Description,
		ctaJSON,
		banner.LoopingVideo,
		banner.UpdatedAt,
		banner.ID,
	)
	if err != nil {
		return types.HeroBanner{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.HeroBanner{}, err
	}
	if affected == 0 {
		return types.HeroBanner{}, ErrNotFound
	}
	return banner, nil
}

func (r *BannerRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM hero_banners WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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

func scanBanner(row rowScanner) (types.HeroBanner, error) {
	var banner types.HeroBanner
	var ctaJSON []byte
	if err := row.Scan(
		&banner.ID,
		&banner.BannerImage,
		&banner.Description,
		&ctaJSON,
		&banner.LoopingVideo,
		&banner.CreatedAt,
		&banner.UpdatedAt,
	); err != nil {
		return types.HeroBanner{}, err
	}
	_ = json.Unmarshal(ctaJSON, &banner.CTAButtons)
	return banner, nil
}
