package models

// GenerationDetail is the external view of a generation, with storage
// refs resolved to URLs and, when a viewer is known, their like state.
type GenerationDetail struct {
	Generation
	OutputUrl    *string `json:"outputUrl,omitempty"`
	ThumbnailUrl *string `json:"thumbnailUrl,omitempty"`
	Liked        *bool   `json:"liked,omitempty"`
}

// GenerationList is a cursor-paginated page of generations.
type GenerationList struct {
	Generations []GenerationDetail `json:"generations"`
	HasMore     bool               `json:"hasMore"`
	NextCursor  *int64             `json:"nextCursor,omitempty"`
}

// BatchStartResult is returned immediately after scheduling a batch;
// callers observe progress by polling the batch.
type BatchStartResult struct {
	BatchId       string   `json:"batchId"`
	GenerationIds []string `json:"generationIds"`
}

// DesignImageResult carries both the stored copy of the produced image
// and the pipeline-side path the 3D stage consumes.
type DesignImageResult struct {
	StorageRef   string `json:"storageRef"`
	PipelinePath string `json:"pipelinePath"`
}

// DesignModelResult identifies the generation record created by the 3D
// stage.
type DesignModelResult struct {
	GenerationId string `json:"generationId"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// VisibilityResult is the outcome of a visibility toggle.
type VisibilityResult struct {
	IsPublic bool `json:"isPublic"`
}

// UploadHandle is a short-lived URL a client PUTs a reference image to,
// plus the storage ref the object will be reachable under.
type UploadHandle struct {
	Ref       string `json:"ref"`
	UploadUrl string `json:"uploadUrl"`
}
