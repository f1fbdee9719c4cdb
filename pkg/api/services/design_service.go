package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/repositories"
	"github.com/keyforge-app/keyforge-api/pkg/pipeline"
	"github.com/keyforge-app/keyforge-api/pkg/storage"
)

type DesignConfig struct {
	ImageModel  string
	ThreeDModel string
}

func DefaultDesignConfig() DesignConfig {
	return DesignConfig{ImageModel: "nanobanana", ThreeDModel: "trellis"}
}

// DesignService is the interactive two-stage flow: the image stage is
// synchronous and stateless towards the record store, the 3D stage
// creates the generation record once the user has settled on an image.
type DesignService struct {
	repo     repositories.GenerationRepository
	pipeline *pipeline.Client
	store    storage.Store
	cfg      DesignConfig
}

func NewDesignService(repo repositories.GenerationRepository, pc *pipeline.Client, store storage.Store, cfg DesignConfig) *DesignService {
	return &DesignService{repo: repo, pipeline: pc, store: store, cfg: cfg}
}

// GenerateImage runs the image stage and returns only once the result
// is stored. Failure propagates to the caller; no record is created.
func (s *DesignService) GenerateImage(ctx context.Context, in models.DesignImageInput) (*models.DesignImageResult, error) {
	finalPrompt := composeDesignPrompt(in.Prompt, in.Material, in.Profile, in.KeyType, in.Technique)

	var refImage []byte
	if in.ReferenceRef != nil && *in.ReferenceRef != "" {
		data, err := s.store.Download(ctx, *in.ReferenceRef)
		if err != nil {
			return nil, fmt.Errorf("fetch reference image: %w", err)
		}
		refImage = data
	}

	log.Printf("[design] generating image, prompt length %d", len(finalPrompt))
	res, err := s.pipeline.GenerateImage(ctx, pipeline.ImageRequest{
		Prompt:     finalPrompt,
		ImageModel: s.cfg.ImageModel,
		RefImage:   refImage,
	})
	if err != nil {
		return nil, err
	}

	data, err := s.pipeline.FetchFile(ctx, res.Path)
	if err != nil {
		return nil, fmt.Errorf("download generated image: %w", err)
	}

	ref, err := s.store.Upload(ctx, data, contentTypeOf(data))
	if err != nil {
		return nil, fmt.Errorf("store generated image: %w", err)
	}

	return &models.DesignImageResult{StorageRef: ref, PipelinePath: res.Path}, nil
}

// GenerateModel runs the 3D stage on an already-produced pipeline
// image. The record is created first; on failure it is marked failed
// and the error is returned so the caller can revert its own state.
func (s *DesignService) GenerateModel(ctx context.Context, ownerID string, in models.DesignModelInput) (string, error) {
	now := time.Now()
	gen := &models.Generation{
		Id:        uuid.NewString(),
		OwnerId:   ownerID,
		Prompt:    in.Prompt,
		Status:    models.StatusPending,
		IsPublic:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, gen); err != nil {
		return "", fmt.Errorf("create generation record: %w", err)
	}

	if err := s.repo.Patch(ctx, gen.Id, map[string]interface{}{"status": models.StatusGenerating}); err != nil {
		return gen.Id, err
	}

	res, err := s.pipeline.Generate3D(ctx, pipeline.ThreeDRequest{
		ImagePath:   in.ImagePath,
		ThreeDModel: s.cfg.ThreeDModel,
	})
	if err != nil {
		return gen.Id, s.fail(ctx, gen.Id, err)
	}

	data, err := s.pipeline.FetchFile(ctx, res.Path)
	if err != nil {
		return gen.Id, s.fail(ctx, gen.Id, err)
	}

	ref, err := s.store.Upload(ctx, data, "application/octet-stream")
	if err != nil {
		return gen.Id, s.fail(ctx, gen.Id, err)
	}

	fields := map[string]interface{}{
		"status":     models.StatusCompleted,
		"output_ref": ref,
	}
	if in.ThumbnailRef != nil && *in.ThumbnailRef != "" {
		fields["thumbnail_ref"] = *in.ThumbnailRef
	}
	if err := s.repo.Patch(ctx, gen.Id, fields); err != nil {
		return gen.Id, err
	}
	return gen.Id, nil
}

func (s *DesignService) fail(ctx context.Context, id string, cause error) error {
	log.Printf("[design] generation %s failed: %v", id, cause)
	if err := s.repo.Patch(ctx, id, map[string]interface{}{
		"status": models.StatusFailed,
		"error":  cause.Error(),
	}); err != nil {
		log.Printf("[design] could not mark generation %s failed: %v", id, err)
	}
	return cause
}
