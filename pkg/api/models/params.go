package models

// GenerationParams identifies a single generation in the path.
type GenerationParams struct {
	Id string `path:"id" binding:"required"`
}

// BatchParams identifies a batch in the path.
type BatchParams struct {
	Id string `path:"id" binding:"required"`
}

// ListGenerationsParams pages through the caller's own generations,
// newest first. Cursor is the createdAt timestamp (unix millis) of the
// last item of the previous page.
type ListGenerationsParams struct {
	Limit  int    `query:"limit"`
	Cursor *int64 `query:"cursor"`
}

// GalleryParams pages through the public gallery.
type GalleryParams struct {
	Limit  int    `query:"limit"`
	Cursor *int64 `query:"cursor"`
}

// TrendingParams selects the most liked public generations of the
// recent period.
type TrendingParams struct {
	Limit    int `query:"limit"`
	DaysBack int `query:"daysBack"`
}

// SearchParams filters public generations on a prompt substring.
type SearchParams struct {
	Query string `query:"q" binding:"required"`
	Limit int    `query:"limit"`
}

// StartBatchInput starts a batch of generation variations.
type StartBatchInput struct {
	Prompt string `json:"prompt" binding:"required"`
}

// DesignImageInput drives the interactive image stage. Material,
// profile, key type and technique select fixed prompt fragments;
// ReferenceRef optionally points at an uploaded reference image.
type DesignImageInput struct {
	Prompt       string  `json:"prompt" binding:"required"`
	Material     string  `json:"material,omitempty"`
	Profile      string  `json:"profile,omitempty"`
	KeyType      string  `json:"keyType,omitempty"`
	Technique    string  `json:"technique,omitempty"`
	ReferenceRef *string `json:"referenceRef,omitempty"`
}

// DesignModelInput drives the 3D stage on an already-produced image.
type DesignModelInput struct {
	ImagePath    string  `json:"imagePath" binding:"required"`
	Prompt       string  `json:"prompt" binding:"required"`
	ThumbnailRef *string `json:"thumbnailRef,omitempty"`
}
