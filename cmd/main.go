package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	api "github.com/keyforge-app/keyforge-api/pkg/api"
	"github.com/keyforge-app/keyforge-api/pkg/api/database"
	"github.com/keyforge-app/keyforge-api/pkg/api/handler"
	problem "github.com/keyforge-app/keyforge-api/pkg/api/helpers/problem"
	"github.com/keyforge-app/keyforge-api/pkg/api/models"
	"github.com/keyforge-app/keyforge-api/pkg/api/repositories"
	"github.com/keyforge-app/keyforge-api/pkg/api/services"
	"github.com/keyforge-app/keyforge-api/pkg/jobs"
	"github.com/keyforge-app/keyforge-api/pkg/pipeline"
	"github.com/keyforge-app/keyforge-api/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/loopfz/gadgeto/tonic"
)

const apiVersion = "1.0.0"

func invalidParamsFromBinding(err error, sample any) []problem.InvalidParam {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []problem.InvalidParam{{Name: "body", Reason: err.Error()}}
	}

	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	out := make([]problem.InvalidParam, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		// StructField -> json tag
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
				name = strings.Split(tag, ",")[0]
			}
		}
		out = append(out, problem.InvalidParam{
			Name:   name,
			Reason: humanReason(fe),
		})
	}
	return out
}

func humanReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	default:
		return fe.Error()
	}
}

func init() {
	tonic.SetErrorHook(func(c *gin.Context, err error) (int, interface{}) {
		// 1) Bind/validate errors → 400 with proper invalidParams
		var be tonic.BindError
		if errors.As(err, &be) || isValidationErr(err) {
			invalids := invalidParamsFromBinding(err, models.StartBatchInput{})
			apiErr := problem.NewBadRequest("body", "Invalid input", invalids...)
			c.Header("Content-Type", "application/problem+json")
			return apiErr.Status, apiErr
		}

		// 2) APIError → pass-through
		if apiErr, ok := err.(problem.APIError); ok {
			c.Header("Content-Type", "application/problem+json")
			return apiErr.Status, apiErr
		}

		// 3) Everything else → 500
		internal := problem.NewInternalServerError(err.Error())
		c.Header("Content-Type", "application/problem+json")
		return internal.Status, internal
	})
}

func isValidationErr(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

func main() {
	_ = godotenv.Load()

	dbcon := os.Getenv("DATABASE_URL")
	if dbcon == "" {
		dbcon = "postgres://" +
			os.Getenv("DB_USERNAME") + ":" +
			os.Getenv("DB_PASSWORD") + "@" +
			os.Getenv("DB_HOSTNAME") + "/" +
			os.Getenv("DB_DBNAME")
	}
	db, err := database.Connect(dbcon)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	store, err := storage.NewMinio(storage.MinioConfig{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    envOr("MINIO_BUCKET", "generations"),
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	})
	if err != nil {
		log.Fatalf("failed to initialize artifact store: %v", err)
	}

	pipelineClient, err := pipeline.New(pipeline.Config{
		Host:    envOr("PIPELINE_URL", "http://localhost:8000"),
		Timeout: envDuration("PIPELINE_TIMEOUT", 10*time.Minute),
	})
	if err != nil {
		log.Fatalf("failed to initialize pipeline client: %v", err)
	}

	batchCfg := services.DefaultBatchConfig()
	if n, err := strconv.Atoi(os.Getenv("BATCH_VARIATIONS")); err == nil {
		batchCfg.Variations = n
	}
	if m := os.Getenv("IMAGE_MODEL"); m != "" {
		batchCfg.ImageModel = m
	}
	if m := os.Getenv("THREE_D_MODEL"); m != "" {
		batchCfg.ThreeDModel = m
	}
	designCfg := services.DesignConfig{
		ImageModel:  batchCfg.ImageModel,
		ThreeDModel: batchCfg.ThreeDModel,
	}

	repo := repositories.NewGenerationRepository(db)
	batchService := services.NewBatchService(repo, pipelineClient, store, batchCfg)
	designService := services.NewDesignService(repo, pipelineClient, store, designCfg)
	generationService := services.NewGenerationService(repo, store)
	galleryService := services.NewGalleryService(repo, store)

	jobs.ScheduleStuckReconcile(context.Background(), repo, envDuration("STUCK_GENERATION_AGE", 2*time.Hour))

	router := api.NewRouter(apiVersion,
		handler.NewGenerationsController(batchService, generationService),
		handler.NewDesignController(designService),
		handler.NewGalleryController(galleryService),
	)

	port := envOr("PORT", "1337")
	log.Printf("Server is running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
