package handler

import (
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/services"

	"github.com/gin-gonic/gin"
)

// GalleryController binds the public read endpoints
type GalleryController struct {
	Gallery *services.GalleryService
}

func NewGalleryController(gallery *services.GalleryService) *GalleryController {
	return &GalleryController{Gallery: gallery}
}

// ListGallery handles GET /gallery
func (c *GalleryController) ListGallery(ctx *gin.Context, p *models.GalleryParams) (*models.GenerationList, error) {
	return c.Gallery.List(ctx.Request.Context(), p.Limit, p.Cursor)
}

// Trending handles GET /gallery/trending
func (c *GalleryController) Trending(ctx *gin.Context, p *models.TrendingParams) ([]models.GenerationDetail, error) {
	return c.Gallery.Trending(ctx.Request.Context(), p.Limit, p.DaysBack)
}

// Search handles GET /gallery/search
func (c *GalleryController) Search(ctx *gin.Context, p *models.SearchParams) ([]models.GenerationDetail, error) {
	return c.Gallery.Search(ctx.Request.Context(), p.Query, p.Limit)
}
