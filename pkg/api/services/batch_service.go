package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/repositories"
	"github.com/keyforge-app/keyforge-api/pkg/pipeline"
	"github.com/keyforge-app/keyforge-api/pkg/storage"
	"github.com/keyforge-app/keyforge-api/pkg/tools"
	"golang.org/x/sync/semaphore"
)

// DefaultVariationHints suffix sibling prompts for diversity. Index 0
// is always the unmodified prompt.
var DefaultVariationHints = []string{
	"",
	" with unique artistic interpretation",
	" with creative variation",
	" with alternative design approach",
}

// BatchConfig governs the fan-out. Variations is clamped to the hint
// list; both are configuration, not constants, because the upstream
// policy for either has shifted before.
type BatchConfig struct {
	Variations    int
	Hints         []string
	ImageModel    string
	ThreeDModel   string
	MaxConcurrent int
}

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Variations:    4,
		Hints:         DefaultVariationHints,
		ImageModel:    "nanobanana",
		ThreeDModel:   "trellis",
		MaxConcurrent: 4,
	}
}

// BatchService creates N sibling generation records per request and
// drives each through the pipeline in its own worker.
type BatchService struct {
	repo     repositories.GenerationRepository
	pipeline *pipeline.Client
	store    storage.Store
	cfg      BatchConfig
	sem      *semaphore.Weighted

	mu      sync.Mutex
	handles []*tools.Handle
}

func NewBatchService(repo repositories.GenerationRepository, pc *pipeline.Client, store storage.Store, cfg BatchConfig) *BatchService {
	if len(cfg.Hints) == 0 {
		cfg.Hints = DefaultVariationHints
	}
	if cfg.Variations < 1 {
		cfg.Variations = 1
	}
	if cfg.Variations > len(cfg.Hints) {
		cfg.Variations = len(cfg.Hints)
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = cfg.Variations
	}
	return &BatchService{
		repo:     repo,
		pipeline: pc,
		store:    store,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// StartBatch creates the pending records synchronously, schedules one
// worker per record and returns without waiting on generation. Workers
// are independent; one failing never touches its siblings.
func (s *BatchService) StartBatch(ctx context.Context, ownerID, prompt string) (*models.BatchStartResult, error) {
	batchID := uuid.NewString()

	ids := make([]string, 0, s.cfg.Variations)
	now := time.Now()
	for i := 0; i < s.cfg.Variations; i++ {
		gen := &models.Generation{
			Id:        uuid.NewString(),
			OwnerId:   ownerID,
			Prompt:    prompt,
			BatchId:   &batchID,
			Status:    models.StatusPending,
			IsPublic:  false,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Save(ctx, gen); err != nil {
			return nil, fmt.Errorf("create generation record: %w", err)
		}
		ids = append(ids, gen.Id)
	}

	for i, id := range ids {
		i, id := i, id
		h := tools.Dispatch(context.Background(), "generate_single", func(ctx context.Context) error {
			return s.generateSingle(ctx, id, prompt, i)
		})
		s.track(h)
	}

	return &models.BatchStartResult{BatchId: batchID, GenerationIds: ids}, nil
}

// generateSingle walks one record through the state machine:
// pending → generating → completed | failed. Every error funnels into
// the single failed transition; there are no retries.
func (s *BatchService) generateSingle(ctx context.Context, id, prompt string, variationIndex int) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return s.fail(ctx, id, err)
	}
	defer s.sem.Release(1)

	if err := s.repo.Patch(ctx, id, map[string]interface{}{"status": models.StatusGenerating}); err != nil {
		return err
	}

	variant := prompt
	if variationIndex > 0 && variationIndex < len(s.cfg.Hints) {
		variant += s.cfg.Hints[variationIndex]
	}

	res, err := s.pipeline.Generate(ctx, pipeline.GenerateRequest{
		Prompt:      variant,
		ImageModel:  s.cfg.ImageModel,
		ThreeDModel: s.cfg.ThreeDModel,
	})
	if err != nil {
		return s.fail(ctx, id, err)
	}

	data, err := s.pipeline.FetchFile(ctx, res.Path)
	if err != nil {
		return s.fail(ctx, id, err)
	}

	ref, err := s.store.Upload(ctx, data, contentTypeOf(data))
	if err != nil {
		return s.fail(ctx, id, err)
	}

	return s.repo.Patch(ctx, id, map[string]interface{}{
		"status":     models.StatusCompleted,
		"output_ref": ref,
	})
}

func (s *BatchService) fail(ctx context.Context, id string, cause error) error {
	log.Printf("[generate] generation %s failed: %v", id, cause)
	if err := s.repo.Patch(ctx, id, map[string]interface{}{
		"status": models.StatusFailed,
		"error":  cause.Error(),
	}); err != nil {
		log.Printf("[generate] could not mark generation %s failed: %v", id, err)
		return err
	}
	return cause
}

func (s *BatchService) track(h *tools.Handle) {
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
}

// Wait joins all outstanding workers. Used on shutdown and in tests;
// readers observe progress through the record store instead.
func (s *BatchService) Wait() {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()
	for _, h := range handles {
		_ = h.Wait()
	}
}

func contentTypeOf(data []byte) string {
	ct := http.DetectContentType(data)
	if ct == "application/octet-stream" || ct == "text/plain; charset=utf-8" {
		// PLY files sniff as text or octets
		return "application/octet-stream"
	}
	return ct
}
