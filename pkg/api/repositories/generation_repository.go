package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"gorm.io/gorm"
)

// GenerationRepository is the record store for generations and likes.
// Patch applies a partial field update and bumps updated_at; the like
// toggle runs as a single transaction per invocation.
type GenerationRepository interface {
	Save(ctx context.Context, gen *models.Generation) error
	GetByID(ctx context.Context, id string) (*models.Generation, error)
	GetByBatchID(ctx context.Context, batchID string) ([]models.Generation, error)
	ListByOwner(ctx context.Context, ownerID string, limit int, before *time.Time) ([]models.Generation, bool, error)
	ListPublic(ctx context.Context, limit int, before *time.Time) ([]models.Generation, bool, error)
	Trending(ctx context.Context, limit int, since time.Time) ([]models.Generation, error)
	SearchPublic(ctx context.Context, query string, limit int) ([]models.Generation, error)
	Patch(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, ownerID, generationID string) (bool, int, error)
	HasLiked(ctx context.Context, ownerID, generationID string) (bool, error)
	ListLikedByOwner(ctx context.Context, ownerID string, limit int) ([]models.Generation, error)
	CountLikes(ctx context.Context, generationID string) (int64, error)
	FailStuckGenerating(ctx context.Context, before time.Time, reason string) (int64, error)
}

type generationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Save(ctx context.Context, gen *models.Generation) error {
	return r.db.WithContext(ctx).Create(gen).Error
}

func (r *generationRepository) GetByID(ctx context.Context, id string) (*models.Generation, error) {
	var gen models.Generation
	err := r.db.WithContext(ctx).First(&gen, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &gen, nil
}

func (r *generationRepository) GetByBatchID(ctx context.Context, batchID string) ([]models.Generation, error) {
	var gens []models.Generation
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&gens).Error
	return gens, err
}

// ListByOwner pages newest-first with a keyset cursor on created_at.
// It fetches limit+1 rows to detect whether another page exists.
func (r *generationRepository) ListByOwner(ctx context.Context, ownerID string, limit int, before *time.Time) ([]models.Generation, bool, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	return listPage(q, limit, before)
}

func (r *generationRepository) ListPublic(ctx context.Context, limit int, before *time.Time) ([]models.Generation, bool, error) {
	q := r.db.WithContext(ctx).Where("is_public = ?", true)
	return listPage(q, limit, before)
}

func listPage(q *gorm.DB, limit int, before *time.Time) ([]models.Generation, bool, error) {
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var gens []models.Generation
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&gens).Error; err != nil {
		return nil, false, err
	}
	hasMore := len(gens) > limit
	if hasMore {
		gens = gens[:limit]
	}
	return gens, hasMore, nil
}

func (r *generationRepository) Trending(ctx context.Context, limit int, since time.Time) ([]models.Generation, error) {
	var gens []models.Generation
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND created_at >= ?", true, since).
		Order("likes_count DESC, created_at DESC").
		Limit(limit).
		Find(&gens).Error
	return gens, err
}

func (r *generationRepository) SearchPublic(ctx context.Context, query string, limit int) ([]models.Generation, error) {
	var gens []models.Generation
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND LOWER(prompt) LIKE ?", true, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&gens).Error
	return gens, err
}

func (r *generationRepository) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the record and all its like rows in one transaction.
// Blob cleanup is the caller's responsibility.
func (r *generationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("generation_id = ?", id).Delete(&models.LikeEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Generation{}).Error
	})
}

// ToggleLike flips the like relation for (ownerID, generationID) and
// keeps likes_count in step with the ledger. The counter moves by a
// relative delta inside the same transaction as the ledger row, so
// concurrent toggles from distinct owners never lose updates.
func (r *generationRepository) ToggleLike(ctx context.Context, ownerID, generationID string) (bool, int, error) {
	var liked bool
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gen models.Generation
		if err := tx.First(&gen, "id = ?", generationID).Error; err != nil {
			return err
		}

		var entry models.LikeEntry
		err := tx.Where("owner_id = ? AND generation_id = ?", ownerID, generationID).First(&entry).Error
		switch {
		case err == nil:
			if err := tx.Delete(&entry).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Generation{}).Where("id = ?", generationID).Updates(map[string]interface{}{
				"likes_count": gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END"),
				"updated_at":  time.Now(),
			}).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = models.LikeEntry{
				Id:           uuid.NewString(),
				OwnerId:      ownerID,
				GenerationId: generationID,
				CreatedAt:    time.Now(),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Generation{}).Where("id = ?", generationID).Updates(map[string]interface{}{
				"likes_count": gorm.Expr("likes_count + 1"),
				"updated_at":  time.Now(),
			}).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}

		var after models.Generation
		if err := tx.Select("likes_count").First(&after, "id = ?", generationID).Error; err != nil {
			return err
		}
		count = after.LikesCount
		return nil
	})
	return liked, count, err
}

func (r *generationRepository) HasLiked(ctx context.Context, ownerID, generationID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.LikeEntry{}).
		Where("owner_id = ? AND generation_id = ?", ownerID, generationID).
		Count(&n).Error
	return n > 0, err
}

func (r *generationRepository) ListLikedByOwner(ctx context.Context, ownerID string, limit int) ([]models.Generation, error) {
	var gens []models.Generation
	err := r.db.WithContext(ctx).
		Joins("JOIN like_entries ON like_entries.generation_id = generations.id").
		Where("like_entries.owner_id = ?", ownerID).
		Order("like_entries.created_at DESC").
		Limit(limit).
		Find(&gens).Error
	return gens, err
}

func (r *generationRepository) CountLikes(ctx context.Context, generationID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.LikeEntry{}).
		Where("generation_id = ?", generationID).
		Count(&n).Error
	return n, err
}

// FailStuckGenerating moves records that sat in generating since
// before the cutoff to failed, for workers that died mid-run.
func (r *generationRepository) FailStuckGenerating(ctx context.Context, before time.Time, reason string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("status = ? AND updated_at < ?", models.StatusGenerating, before).
		Updates(map[string]interface{}{
			"status":     models.StatusFailed,
			"error":      reason,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}
