package handler

import (
	problem "github.com/keyforge-app/keyforge-api/pkg/api/helpers/problem"
	"github.com/keyforge-app/keyforge-api/pkg/api/middleware"
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/services"

	"github.com/gin-gonic/gin"
)

// DesignController binds the interactive design flow
type DesignController struct {
	Design *services.DesignService
}

func NewDesignController(design *services.DesignService) *DesignController {
	return &DesignController{Design: design}
}

// GenerateImage handles POST /design/image. Synchronous: the response
// arrives once the image is stored, errors surface directly.
func (c *DesignController) GenerateImage(ctx *gin.Context, body *models.DesignImageInput) (*models.DesignImageResult, error) {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return nil, problem.NewUnauthorized("the design flow requires an authenticated owner")
	}
	res, err := c.Design.GenerateImage(ctx.Request.Context(), *body)
	if err != nil {
		return nil, problem.NewBadGateway(err.Error())
	}
	return res, nil
}

// GenerateModel handles POST /design/model
func (c *DesignController) GenerateModel(ctx *gin.Context, body *models.DesignModelInput) (*models.DesignModelResult, error) {
	owner := middleware.Owner(ctx)
	if owner == "" {
		return nil, problem.NewUnauthorized("the design flow requires an authenticated owner")
	}
	id, err := c.Design.GenerateModel(ctx.Request.Context(), owner, *body)
	if err != nil {
		// the record now carries the failure; re-raise so the caller
		// can revert its own state
		return nil, problem.NewBadGateway(err.Error())
	}
	return &models.DesignModelResult{GenerationId: id}, nil
}
