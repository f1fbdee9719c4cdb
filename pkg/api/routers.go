package api

import (
	"github.com/keyforge-app/keyforge-api/pkg/api/handler"
	"github.com/keyforge-app/keyforge-api/pkg/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/loopfz/gadgeto/tonic"
	"github.com/wI2L/fizz"
	"github.com/wI2L/fizz/openapi"
)

var (
	apiVersionHeader = fizz.Header(
		"API-Version",
		"The API version of the response",
		"", // empty string: primitive string in the spec
	)

	notFoundResponse = fizz.Response(
		"404",
		"Not Found",
		nil,
		nil,
		nil,
	)
)

type healthResponse struct {
	Status string `json:"status"`
}

// NewRouter wires every endpoint. Gallery reads are open; everything
// touching owned records sits behind the auth middleware.
func NewRouter(apiVersion string, generations *handler.GenerationsController, design *handler.DesignController, gallery *handler.GalleryController) *fizz.Fizz {
	g := gin.Default()
	g.Use(APIVersionMiddleware(apiVersion))
	f := fizz.NewFromEngine(g)

	info := &openapi.Info{
		Title:       "KeyForge generation API",
		Description: "Turns text prompts into downloadable 3D keycap models",
		Version:     apiVersion,
	}

	root := f.Group("/v1", "v1", "KeyForge API v1")

	root.GET("/health",
		[]fizz.OperationOption{fizz.Summary("Service health"), apiVersionHeader},
		tonic.Handler(func(c *gin.Context) (*healthResponse, error) {
			return &healthResponse{Status: "ok"}, nil
		}, 200),
	)

	// Public gallery reads
	public := root.Group("", "Gallery", "Public gallery reads")
	public.GET("/gallery",
		[]fizz.OperationOption{
			fizz.Summary("List public generations, newest first"),
			apiVersionHeader,
		},
		tonic.Handler(gallery.ListGallery, 200),
	)
	public.GET("/gallery/trending",
		[]fizz.OperationOption{
			fizz.Summary("Most liked public generations of the recent period"),
			apiVersionHeader,
		},
		tonic.Handler(gallery.Trending, 200),
	)
	public.GET("/gallery/search",
		[]fizz.OperationOption{
			fizz.Summary("Search public generations by prompt"),
			apiVersionHeader,
		},
		tonic.Handler(gallery.Search, 200),
	)

	// Owner endpoints
	owned := root.Group("", "Generations", "Create and manage generations", middleware.RequireOwner())
	owned.POST("/generations/batch",
		[]fizz.OperationOption{
			fizz.Summary("Start a batch of generation variations"),
			apiVersionHeader,
		},
		tonic.Handler(generations.StartBatch, 202),
	)
	owned.GET("/generations",
		[]fizz.OperationOption{
			fizz.Summary("List the caller's generations"),
			apiVersionHeader,
		},
		tonic.Handler(generations.ListGenerations, 200),
	)
	owned.GET("/generations/:id",
		[]fizz.OperationOption{
			fizz.Summary("Retrieve a single generation"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(generations.RetrieveGeneration, 200),
	)
	owned.GET("/batches/:id",
		[]fizz.OperationOption{
			fizz.Summary("Retrieve all generations of a batch"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(generations.RetrieveBatch, 200),
	)
	owned.POST("/generations/:id/visibility",
		[]fizz.OperationOption{
			fizz.Summary("Toggle a generation's public visibility"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(generations.ToggleVisibility, 200),
	)
	owned.DELETE("/generations/:id",
		[]fizz.OperationOption{
			fizz.Summary("Delete a generation, its blobs and its likes"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(generations.DeleteGeneration, 204),
	)
	owned.POST("/generations/:id/like",
		[]fizz.OperationOption{
			fizz.Summary("Toggle a like on a generation"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(generations.ToggleLike, 200),
	)
	owned.GET("/likes",
		[]fizz.OperationOption{
			fizz.Summary("List the caller's liked generations"),
			apiVersionHeader,
		},
		tonic.Handler(generations.ListLiked, 200),
	)
	owned.POST("/uploads",
		[]fizz.OperationOption{
			fizz.Summary("Request an upload URL for a reference image"),
			apiVersionHeader,
		},
		tonic.Handler(generations.RequestUpload, 201),
	)

	// Interactive design flow
	owned.POST("/design/image",
		[]fizz.OperationOption{
			fizz.Summary("Run the image stage of the design flow"),
			apiVersionHeader,
		},
		tonic.Handler(design.GenerateImage, 200),
	)
	owned.POST("/design/model",
		[]fizz.OperationOption{
			fizz.Summary("Run the 3D stage on an approved design image"),
			apiVersionHeader,
		},
		tonic.Handler(design.GenerateModel, 201),
	)

	f.GET("/v1/openapi.json", []fizz.OperationOption{}, f.OpenAPI(info, "json"))

	return f
}

type apiVersionWriter struct {
	gin.ResponseWriter
	version string
}

func (w *apiVersionWriter) WriteHeader(code int) {
	if code >= 200 && code < 300 {
		w.Header().Set("API-Version", w.version)
	}
	w.ResponseWriter.WriteHeader(code)
}

func APIVersionMiddleware(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &apiVersionWriter{c.Writer, version}
		c.Next()
	}
}
