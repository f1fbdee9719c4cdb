package handler

import (
	problem "github.com/keyforge-app/keyforge-api/pkg/api/helpers/problem"
	"github.com/keyforge-app/keyforge-api/pkg/api/middleware"
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/services"

	"github.com/gin-gonic/gin"
)

// GenerationsController binds HTTP requests to the batch and
// generation services
type GenerationsController struct {
	Batch       *services.BatchService
	Generations *services.GenerationService
}

func NewGenerationsController(batch *services.BatchService, gens *services.GenerationService) *GenerationsController {
	return &GenerationsController{Batch: batch, Generations: gens}
}

// StartBatch handles POST /generations/batch
func (c *GenerationsController) StartBatch(ctx *gin.Context, body *models.StartBatchInput) (*models.BatchStartResult, error) {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return nil, problem.NewUnauthorized("batch generation requires an authenticated owner")
	}
	return c.Batch.StartBatch(ctx.Request.Context(), owner, body.Prompt)
}

// RetrieveGeneration handles GET /generations/:id
func (c *GenerationsController) RetrieveGeneration(ctx *gin.Context, params *models.GenerationParams) (*models.GenerationDetail, error) {
	gen, err := c.Generations.Get(ctx.Request.Context(), params.Id, middleware.Owner(ctx))
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, problem.NewNotFound(params.Id, "Generation not found")
	}
	return gen, nil
}

// RetrieveBatch handles GET /batches/:id
func (c *GenerationsController) RetrieveBatch(ctx *gin.Context, params *models.BatchParams) ([]models.GenerationDetail, error) {
	gens, err := c.Generations.GetByBatch(ctx.Request.Context(), params.Id)
	if err != nil {
		return nil, err
	}
	if len(gens) == 0 {
		return nil, problem.NewNotFound(params.Id, "Batch not found")
	}
	return gens, nil
}

// ListGenerations handles GET /generations
func (c *GenerationsController) ListGenerations(ctx *gin.Context, p *models.ListGenerationsParams) (*models.GenerationList, error) {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return nil, problem.NewUnauthorized("listing generations requires an authenticated owner")
	}
	return c.Generations.ListByOwner(ctx.Request.Context(), owner, p.Limit, p.Cursor)
}

// ToggleVisibility handles POST /generations/:id/visibility
func (c *GenerationsController) ToggleVisibility(ctx *gin.Context, params *models.GenerationParams) (*models.VisibilityResult, error) {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return nil, problem.NewUnauthorized("visibility changes require an authenticated owner")
	}
	return c.Generations.TogglePublic(ctx.Request.Context(), params.Id, owner)
}

// DeleteGeneration handles DELETE /generations/:id
func (c *GenerationsController) DeleteGeneration(ctx *gin.Context, params *models.GenerationParams) error {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return problem.NewUnauthorized("deletion requires an authenticated owner")
	}
	return c.Generations.Delete(ctx.Request.Context(), params.Id, owner)
}

// ToggleLike handles POST /generations/:id/like
func (c *GenerationsController) ToggleLike(ctx *gin.Context, params *models.GenerationParams) (*models.LikeResult, error) {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return nil, problem.NewUnauthorized("liking requires an authenticated owner")
	}
	return c.Generations.ToggleLike(ctx.Request.Context(), owner, params.Id)
}

// ListLiked handles GET /likes
func (c *GenerationsController) ListLiked(ctx *gin.Context, p *models.ListGenerationsParams) ([]models.GenerationDetail, error) {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return nil, problem.NewUnauthorized("listing likes requires an authenticated owner")
	}
	return c.Generations.ListLiked(ctx.Request.Context(), owner, p.Limit)
}

// RequestUpload handles POST /uploads
func (c *GenerationsController) RequestUpload(ctx *gin.Context) (*models.UploadHandle, error) {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return nil, problem.NewUnauthorized("uploads require an authenticated owner")
	}
	return c.Generations.RequestUploadHandle(ctx.Request.Context(), ctx.GetHeader("Content-Type"))
}
