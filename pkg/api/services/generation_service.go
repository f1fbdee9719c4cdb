package services

import (
	"context"
	"fmt"
	"log"
	"time"

	problem "github.com/keyforge-app/keyforge-api/pkg/api/helpers/problem"
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/repositories"
	"github.com/keyforge-app/keyforge-api/pkg/storage"
)

const defaultPageSize = 20

// GenerationService covers the per-record operations: reads with
// resolved URLs, owner-gated mutations and the like toggle.
type GenerationService struct {
	repo  repositories.GenerationRepository
	store storage.Store
}

func NewGenerationService(repo repositories.GenerationRepository, store storage.Store) *GenerationService {
	return &GenerationService{repo: repo, store: store}
}

// Get returns a generation with resolved asset URLs; viewerID, when
// non-empty, adds the viewer's like state. nil means not found.
func (s *GenerationService) Get(ctx context.Context, id, viewerID string) (*models.GenerationDetail, error) {
	gen, err := s.repo.GetByID(ctx, id)
	if err != nil || gen == nil {
		return nil, err
	}
	detail := s.withUrls(ctx, *gen)
	if viewerID != "" {
		liked, err := s.repo.HasLiked(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		detail.Liked = &liked
	}
	return &detail, nil
}

// GetByBatch returns all sibling generations of a batch; readers poll
// this until every child reaches a terminal status.
func (s *GenerationService) GetByBatch(ctx context.Context, batchID string) ([]models.GenerationDetail, error) {
	gens, err := s.repo.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return s.withUrlsAll(ctx, gens), nil
}

func (s *GenerationService) ListByOwner(ctx context.Context, ownerID string, limit int, cursor *int64) (*models.GenerationList, error) {
	if limit < 1 {
		limit = defaultPageSize
	}
	gens, hasMore, err := s.repo.ListByOwner(ctx, ownerID, limit, cursorTime(cursor))
	if err != nil {
		return nil, err
	}
	return s.toPage(ctx, gens, hasMore), nil
}

// TogglePublic flips visibility; only the owner may do so, and a
// missing record or foreign owner rejects without mutating anything.
func (s *GenerationService) TogglePublic(ctx context.Context, id, ownerID string) (*models.VisibilityResult, error) {
	gen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, problem.NewNotFound(id, "Generation not found")
	}
	if gen.OwnerId != ownerID {
		return nil, problem.NewForbidden(id, "only the owner can change visibility")
	}
	next := !gen.IsPublic
	if err := s.repo.Patch(ctx, id, map[string]interface{}{"is_public": next}); err != nil {
		return nil, err
	}
	return &models.VisibilityResult{IsPublic: next}, nil
}

// Delete removes the record, its like rows and its stored blobs.
func (s *GenerationService) Delete(ctx context.Context, id, ownerID string) error {
	gen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if gen == nil {
		return problem.NewNotFound(id, "Generation not found")
	}
	if gen.OwnerId != ownerID {
		return problem.NewForbidden(id, "only the owner can delete a generation")
	}

	if gen.OutputRef != nil {
		if err := s.store.Delete(ctx, *gen.OutputRef); err != nil {
			return fmt.Errorf("delete output blob: %w", err)
		}
	}
	if gen.ThumbnailRef != nil {
		if err := s.store.Delete(ctx, *gen.ThumbnailRef); err != nil {
			return fmt.Errorf("delete thumbnail blob: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

// ToggleLike flips the caller's like on a generation. The repository
// runs the ledger row and the counter delta in one transaction.
func (s *GenerationService) ToggleLike(ctx context.Context, ownerID, id string) (*models.LikeResult, error) {
	gen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, problem.NewNotFound(id, "Generation not found")
	}
	liked, count, err := s.repo.ToggleLike(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: liked, LikesCount: count}, nil
}

// ListLiked returns the generations the owner has liked, newest like
// first.
func (s *GenerationService) ListLiked(ctx context.Context, ownerID string, limit int) ([]models.GenerationDetail, error) {
	if limit < 1 {
		limit = defaultPageSize
	}
	gens, err := s.repo.ListLikedByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	return s.withUrlsAll(ctx, gens), nil
}

// RequestUploadHandle issues a presigned URL for a client-side
// reference image upload.
func (s *GenerationService) RequestUploadHandle(ctx context.Context, contentType string) (*models.UploadHandle, error) {
	if contentType == "" {
		contentType = "image/png"
	}
	ref, url, err := s.store.PresignUpload(ctx, contentType)
	if err != nil {
		return nil, err
	}
	return &models.UploadHandle{Ref: ref, UploadUrl: url}, nil
}

func (s *GenerationService) withUrls(ctx context.Context, gen models.Generation) models.GenerationDetail {
	detail := models.GenerationDetail{Generation: gen}
	if gen.OutputRef != nil {
		if url, err := s.store.Resolve(ctx, *gen.OutputRef); err == nil {
			detail.OutputUrl = &url
		} else {
			log.Printf("[generations] resolve output %s: %v", *gen.OutputRef, err)
		}
	}
	if gen.ThumbnailRef != nil {
		if url, err := s.store.Resolve(ctx, *gen.ThumbnailRef); err == nil {
			detail.ThumbnailUrl = &url
		} else {
			log.Printf("[generations] resolve thumbnail %s: %v", *gen.ThumbnailRef, err)
		}
	}
	return detail
}

func (s *GenerationService) withUrlsAll(ctx context.Context, gens []models.Generation) []models.GenerationDetail {
	out := make([]models.GenerationDetail, len(gens))
	for i, gen := range gens {
		out[i] = s.withUrls(ctx, gen)
	}
	return out
}

func (s *GenerationService) toPage(ctx context.Context, gens []models.Generation, hasMore bool) *models.GenerationList {
	page := &models.GenerationList{
		Generations: s.withUrlsAll(ctx, gens),
		HasMore:     hasMore,
	}
	if hasMore && len(gens) > 0 {
		cursor := gens[len(gens)-1].CreatedAt.UnixMilli()
		page.NextCursor = &cursor
	}
	return page
}

func cursorTime(cursor *int64) *time.Time {
	if cursor == nil {
		return nil
	}
	t := time.UnixMilli(*cursor)
	return &t
}
