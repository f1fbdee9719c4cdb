package services

import (
	"context"
	"time"

	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/repositories"
	"github.com/keyforge-app/keyforge-api/pkg/storage"
)

const (
	defaultTrendingLimit = 10
	defaultTrendingDays  = 7
)

// GalleryService serves the public read paths: recency-ordered
// listing, trending and prompt search. All thin filtered reads.
type GalleryService struct {
	gens *GenerationService
	repo repositories.GenerationRepository
}

func NewGalleryService(repo repositories.GenerationRepository, store storage.Store) *GalleryService {
	return &GalleryService{
		gens: NewGenerationService(repo, store),
		repo: repo,
	}
}

func (s *GalleryService) List(ctx context.Context, limit int, cursor *int64) (*models.GenerationList, error) {
	if limit < 1 {
		limit = defaultPageSize
	}
	gens, hasMore, err := s.repo.ListPublic(ctx, limit, cursorTime(cursor))
	if err != nil {
		return nil, err
	}
	return s.gens.toPage(ctx, gens, hasMore), nil
}

func (s *GalleryService) Trending(ctx context.Context, limit, daysBack int) ([]models.GenerationDetail, error) {
	if limit < 1 {
		limit = defaultTrendingLimit
	}
	if daysBack < 1 {
		daysBack = defaultTrendingDays
	}
	since := time.Now().AddDate(0, 0, -daysBack)
	gens, err := s.repo.Trending(ctx, limit, since)
	if err != nil {
		return nil, err
	}
	return s.gens.withUrlsAll(ctx, gens), nil
}

func (s *GalleryService) Search(ctx context.Context, query string, limit int) ([]models.GenerationDetail, error) {
	if limit < 1 {
		limit = defaultPageSize
	}
	gens, err := s.repo.SearchPublic(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return s.gens.withUrlsAll(ctx, gens), nil
}
