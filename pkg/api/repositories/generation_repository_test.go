package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Generation{}, &models.LikeEntry{}))

	// a single connection keeps every goroutine on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func newGeneration(ownerID string) *models.Generation {
	now := time.Now()
	return &models.Generation{
		Id:        uuid.NewString(),
		OwnerId:   ownerID,
		Prompt:    "a cube",
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestGenerationRepository_SaveAndGet(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	gen := newGeneration("u1")
	require.NoError(t, repo.Save(context.Background(), gen))

	got, err := repo.GetByID(context.Background(), gen.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a cube", got.Prompt)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, 0, got.LikesCount)
}

func TestGenerationRepository_GetByID_Missing(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	got, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGenerationRepository_GetByBatchID(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	batchID := uuid.NewString()
	for i := 0; i < 3; i++ {
		gen := newGeneration("u1")
		gen.BatchId = &batchID
		require.NoError(t, repo.Save(context.Background(), gen))
	}
	require.NoError(t, repo.Save(context.Background(), newGeneration("u1"))) // unbatched

	got, err := repo.GetByBatchID(context.Background(), batchID)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, gen := range got {
		require.NotNil(t, gen.BatchId)
		assert.Equal(t, batchID, *gen.BatchId)
	}
}

func TestGenerationRepository_Patch(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	gen := newGeneration("u1")
	gen.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(context.Background(), gen))

	require.NoError(t, repo.Patch(context.Background(), gen.Id, map[string]interface{}{
		"status":     models.StatusCompleted,
		"output_ref": "obj-1.ply",
	}))

	got, err := repo.GetByID(context.Background(), gen.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.OutputRef)
	assert.Equal(t, "obj-1.ply", *got.OutputRef)
	assert.True(t, got.UpdatedAt.After(gen.UpdatedAt))
}

func TestToggleLike_Idempotence(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	gen := newGeneration("u1")
	require.NoError(t, repo.Save(context.Background(), gen))

	liked, count, err := repo.ToggleLike(context.Background(), "u2", gen.Id)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = repo.ToggleLike(context.Background(), "u2", gen.Id)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	n, err := repo.CountLikes(context.Background(), gen.Id)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToggleLike_CounterMatchesLedger(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	gen := newGeneration("u1")
	require.NoError(t, repo.Save(context.Background(), gen))

	const owners = 8
	var wg sync.WaitGroup
	for i := 0; i < owners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := fmt.Sprintf("owner-%d", i)
			_, _, err := repo.ToggleLike(context.Background(), owner, gen.Id)
			assert.NoError(t, err)
			// odd owners immediately unlike again
			if i%2 == 1 {
				_, _, err := repo.ToggleLike(context.Background(), owner, gen.Id)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByID(context.Background(), gen.Id)
	require.NoError(t, err)
	ledger, err := repo.CountLikes(context.Background(), gen.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(got.LikesCount), ledger)
	assert.Equal(t, owners/2, got.LikesCount)
}

func TestToggleLike_NeverBelowZero(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewGenerationRepository(db)
	gen := newGeneration("u1")
	require.NoError(t, repo.Save(context.Background(), gen))

	// seed a stray ledger row without touching the counter
	require.NoError(t, db.Create(&models.LikeEntry{
		Id:           uuid.NewString(),
		OwnerId:      "u2",
		GenerationId: gen.Id,
		CreatedAt:    time.Now(),
	}).Error)

	_, count, err := repo.ToggleLike(context.Background(), "u2", gen.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDelete_CascadesLikes(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	gen := newGeneration("u1")
	require.NoError(t, repo.Save(context.Background(), gen))
	_, _, err := repo.ToggleLike(context.Background(), "u2", gen.Id)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), gen.Id))

	got, err := repo.GetByID(context.Background(), gen.Id)
	require.NoError(t, err)
	assert.Nil(t, got)
	n, err := repo.CountLikes(context.Background(), gen.Id)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListPublic_CursorPagination(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		gen := newGeneration("u1")
		gen.IsPublic = true
		gen.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(context.Background(), gen))
	}
	private := newGeneration("u1")
	require.NoError(t, repo.Save(context.Background(), private))

	page1, hasMore, err := repo.ListPublic(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.True(t, hasMore)
	assert.True(t, page1[0].CreatedAt.After(page1[1].CreatedAt))

	cursor := page1[len(page1)-1].CreatedAt
	page2, _, err := repo.ListPublic(context.Background(), 2, &cursor)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	for _, gen := range page2 {
		assert.True(t, gen.CreatedAt.Before(cursor))
	}
}

func TestListByOwner_FiltersOwner(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	require.NoError(t, repo.Save(context.Background(), newGeneration("u1")))
	require.NoError(t, repo.Save(context.Background(), newGeneration("u2")))

	got, hasMore, err := repo.ListByOwner(context.Background(), "u1", 10, nil)
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].OwnerId)
}

func TestTrending_OrdersByLikes(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	quiet := newGeneration("u1")
	quiet.IsPublic = true
	require.NoError(t, repo.Save(context.Background(), quiet))
	popular := newGeneration("u1")
	popular.IsPublic = true
	require.NoError(t, repo.Save(context.Background(), popular))
	for i := 0; i < 3; i++ {
		_, _, err := repo.ToggleLike(context.Background(), fmt.Sprintf("fan-%d", i), popular.Id)
		require.NoError(t, err)
	}

	got, err := repo.Trending(context.Background(), 10, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, popular.Id, got[0].Id)
}

func TestSearchPublic_MatchesSubstring(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	gen := newGeneration("u1")
	gen.Prompt = "a Dragon keycap"
	gen.IsPublic = true
	require.NoError(t, repo.Save(context.Background(), gen))
	hidden := newGeneration("u1")
	hidden.Prompt = "a dragon keycap"
	require.NoError(t, repo.Save(context.Background(), hidden)) // private

	got, err := repo.SearchPublic(context.Background(), "dragon", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, gen.Id, got[0].Id)
}

func TestListLikedByOwner(t *testing.T) {
	repo := repositories.NewGenerationRepository(setupDB(t))
	liked := newGeneration("u1")
	require.NoError(t, repo.Save(context.Background(), liked))
	other := newGeneration("u1")
	require.NoError(t, repo.Save(context.Background(), other))
	_, _, err := repo.ToggleLike(context.Background(), "u2", liked.Id)
	require.NoError(t, err)

	got, err := repo.ListLikedByOwner(context.Background(), "u2", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, liked.Id, got[0].Id)

	has, err := repo.HasLiked(context.Background(), "u2", liked.Id)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = repo.HasLiked(context.Background(), "u2", other.Id)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestFailStuckGenerating(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewGenerationRepository(db)

	stuck := newGeneration("u1")
	stuck.Status = models.StatusGenerating
	require.NoError(t, repo.Save(context.Background(), stuck))
	require.NoError(t, db.Model(&models.Generation{}).Where("id = ?", stuck.Id).
		Update("updated_at", time.Now().Add(-3*time.Hour)).Error)

	fresh := newGeneration("u1")
	fresh.Status = models.StatusGenerating
	require.NoError(t, repo.Save(context.Background(), fresh))

	n, err := repo.FailStuckGenerating(context.Background(), time.Now().Add(-2*time.Hour), "timed out")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(context.Background(), stuck.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, "timed out", *got.Error)

	got, err = repo.GetByID(context.Background(), fresh.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerating, got.Status)
}
