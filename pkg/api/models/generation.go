package models

import "time"

// Generation statuses. pending and generating are non-terminal;
// completed and failed are terminal.
const (
	StatusPending    = "pending"
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Generation is one attempt to produce a 3D asset from a prompt.
type Generation struct {
	Id           string    `json:"id" gorm:"column:id;primaryKey"`
	OwnerId      string    `json:"ownerId" gorm:"column:owner_id;index"`
	Prompt       string    `json:"prompt" gorm:"column:prompt"`
	BatchId      *string   `json:"batchId,omitempty" gorm:"column:batch_id;index"`
	Status       string    `json:"status" gorm:"column:status;index"`
	OutputRef    *string   `json:"-" gorm:"column:output_ref"`
	ThumbnailRef *string   `json:"-" gorm:"column:thumbnail_ref"`
	IsPublic     bool      `json:"isPublic" gorm:"column:is_public;index:idx_public_created,priority:1"`
	LikesCount   int       `json:"likesCount" gorm:"column:likes_count;default:0"`
	Error        *string   `json:"error,omitempty" gorm:"column:error"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at;index:idx_public_created,priority:2"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// LikeEntry is a single like relation. A user may like a given
// generation at most once, enforced by the composite unique index.
type LikeEntry struct {
	Id           string    `json:"id" gorm:"column:id;primaryKey"`
	OwnerId      string    `json:"ownerId" gorm:"column:owner_id;uniqueIndex:uk_owner_generation,priority:1"`
	GenerationId string    `json:"generationId" gorm:"column:generation_id;uniqueIndex:uk_owner_generation,priority:2;index"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at"`
}

// Terminal reports whether a status can never change again.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
