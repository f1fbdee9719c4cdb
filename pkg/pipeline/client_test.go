package pipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/keyforge-app/keyforge-api/pkg/api/testutil"
	"github.com/keyforge-app/keyforge-api/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.HandlerFunc) *pipeline.Client {
	srv := testutil.NewTestServer(t, handler)
	client, err := pipeline.New(pipeline.Config{Host: srv.URL})
	require.NoError(t, err)
	return client
}

func TestGenerate_Success(t *testing.T) {
	var gotReq pipeline.GenerateRequest
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "g1", "format": "ply", "location": "results", "path": "results/g1.ply",
		})
	})

	res, err := client.Generate(context.Background(), pipeline.GenerateRequest{
		Prompt:      "a cube",
		ImageModel:  "nanobanana",
		ThreeDModel: "trellis",
	})
	require.NoError(t, err)
	assert.Equal(t, "results/g1.ply", res.Path)
	assert.Equal(t, "a cube", gotReq.Prompt)
	assert.Equal(t, "trellis", gotReq.ThreeDModel)
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model out of memory", http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), pipeline.GenerateRequest{Prompt: "a cube"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model out of memory")
}

func TestGenerateImage_Multipart(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate/image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "a keycap", r.FormValue("prompt"))
		assert.Equal(t, "nanobanana", r.FormValue("image_model"))
		_, header, err := r.FormFile("ref_image")
		require.NoError(t, err)
		assert.Equal(t, "reference.png", header.Filename)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "i1", "url": "/files/images/i1.png", "path": "images/i1.png",
		})
	})

	res, err := client.GenerateImage(context.Background(), pipeline.ImageRequest{
		Prompt:     "a keycap",
		ImageModel: "nanobanana",
		RefImage:   []byte{1, 2, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "images/i1.png", res.Path)
}

func TestGenerate3D(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate/3d", r.URL.Path)
		var req pipeline.ThreeDRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "images/i1.png", req.ImagePath)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "g2", "format": "ply", "location": "results", "path": "results/g2.ply",
		})
	})

	res, err := client.Generate3D(context.Background(), pipeline.ThreeDRequest{
		ImagePath:   "images/i1.png",
		ThreeDModel: "trellis",
	})
	require.NoError(t, err)
	assert.Equal(t, "results/g2.ply", res.Path)
}

func TestFetchFile(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/results/g1.ply", r.URL.Path)
		_, _ = w.Write([]byte("ply-bytes"))
	})

	data, err := client.FetchFile(context.Background(), "results/g1.ply")
	require.NoError(t, err)
	assert.Equal(t, []byte("ply-bytes"), data)
}

func TestFetchFile_NotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such file", http.StatusNotFound)
	})

	_, err := client.FetchFile(context.Background(), "results/missing.ply")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNew_MissingHost(t *testing.T) {
	_, err := pipeline.New(pipeline.Config{})
	assert.Error(t, err)
}
