package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

// BannerRepository defines persistence operations for hero banners.
type BannerRepository interface {
	Get(ctx context.Context, id int) (types.HeroBanner, error)
	List(ctx context.Context) ([]types.HeroBanner, error)
	Create(ctx context.Context, banner types.HeroBanner) (types.HeroBanner, error)
	Update(ctx context.Context, banner types.HeroBanner) (types.HeroBanner, error)
	Delete(ctx context.Context, id int) error
}

// BannerService encapsulates hero-banner management.
type BannerService struct {
	repo BannerRepository
}

func NewBannerService(repo BannerRepository) *BannerService {
	return &BannerService{repo: repo}
}

func (s *BannerService) Get(ctx context.Context, id int) (types.HeroBanner, error) {
	banner, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.HeroBanner{}, apperr.NotFound("banner not found")
		}
		return types.HeroBanner{}, err
	}
	return banner, nil
}

func (s *BannerService) List(ctx context.Context) ([]types.HeroBanner, error) {
	return s.repo.List(ctx)
}

func (s *BannerService) Create(ctx context.Context, banner types.HeroBanner) (types.HeroBanner, error) {
	if strings.TrimSpace(banner.BannerImage) == "" {
		return types.HeroBanner{}, apperr.Validation("banner image is required")
	}
	return s.repo.Create(ctx, banner)
}

func (s *BannerService) Update(ctx context.Context, banner types.HeroBanner) (types.HeroBanner, error) {
	if strings.TrimSpace(banner.BannerImage) == "" {
		return types.HeroBanner{}, apperr.Validation("banner image is required")
	}
	updated, err := s.repo.Update(ctx, banner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.HeroBanner{}, apperr.NotFound("banner not found")
		}
		return types.HeroBanner{}, err
	}
	return updated, nil
}

func (s *BannerService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("banner not found")
		}
		return err
	}
	return nil
}
