package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGalleryList_OnlyPublic(t *testing.T) {
	repo := setupRepo(t)
	svc := services.NewGalleryService(repo, newMemStore())
	public := seedGeneration(t, repo, "u1", func(g *models.Generation) {
		g.IsPublic = true
	})
	seedGeneration(t, repo, "u1", nil)

	page, err := svc.List(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, page.Generations, 1)
	assert.Equal(t, public.Id, page.Generations[0].Id)
	assert.False(t, page.HasMore)
}

func TestGalleryTrending_OrdersByLikesWithinWindow(t *testing.T) {
	repo := setupRepo(t)
	svc := services.NewGalleryService(repo, newMemStore())
	popular := seedGeneration(t, repo, "u1", func(g *models.Generation) {
		g.IsPublic = true
	})
	quiet := seedGeneration(t, repo, "u1", func(g *models.Generation) {
		g.IsPublic = true
	})
	stale := seedGeneration(t, repo, "u1", func(g *models.Generation) {
		g.IsPublic = true
		g.CreatedAt = time.Now().AddDate(0, 0, -30)
	})
	for _, owner := range []string{"a", "b", "c"} {
		_, _, err := repo.ToggleLike(context.Background(), owner, popular.Id)
		require.NoError(t, err)
	}
	_, _, err := repo.ToggleLike(context.Background(), "a", quiet.Id)
	require.NoError(t, err)
	_, _, err = repo.ToggleLike(context.Background(), "a", stale.Id)
	require.NoError(t, err)

	got, err := svc.Trending(context.Background(), 10, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, popular.Id, got[0].Id)
	assert.Equal(t, quiet.Id, got[1].Id)
}

func TestGallerySearch_PublicCaseInsensitive(t *testing.T) {
	repo := setupRepo(t)
	svc := services.NewGalleryService(repo, newMemStore())
	match := seedGeneration(t, repo, "u1", func(g *models.Generation) {
		g.IsPublic = true
		g.Prompt = "Galaxy Nebula keycap"
	})
	seedGeneration(t, repo, "u1", func(g *models.Generation) {
		g.IsPublic = true
		g.Prompt = "plain red keycap"
	})
	seedGeneration(t, repo, "u2", func(g *models.Generation) {
		g.Prompt = "private galaxy keycap"
	})

	got, err := svc.Search(context.Background(), "galaxy", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, match.Id, got[0].Id)
}
