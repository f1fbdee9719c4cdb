// Package pipeline wraps the two-stage generation backend: image
// synthesis and image-to-3D reconstruction, plus its file endpoint.
// The backend is an opaque HTTP collaborator; any non-2xx response is
// a terminal failure for the caller.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Minute

type Config struct {
	Host string
	// Timeout caps every pipeline call; a 3D reconstruction that
	// exceeds it fails terminally rather than hanging a worker.
	Timeout time.Duration
}

type Client struct {
	host string
	http *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("missing pipeline host")
	}
	host := strings.TrimRight(cfg.Host, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		host: host,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// GenerateRequest drives the combined image+3D endpoint.
type GenerateRequest struct {
	Prompt      string `json:"prompt"`
	ImageModel  string `json:"image_model"`
	ThreeDModel string `json:"three_d_model"`
}

// GenerateResult describes a produced asset; Path feeds the file
// endpoint.
type GenerateResult struct {
	Id       string `json:"id"`
	Format   string `json:"format"`
	Location string `json:"location"`
	Path     string `json:"path"`
}

// ImageRequest drives the image-only stage. RefImage, when set, is
// attached as a multipart file part.
type ImageRequest struct {
	Prompt     string
	ImageModel string
	RefImage   []byte
}

type ImageResult struct {
	Id   string `json:"id"`
	Url  string `json:"url"`
	Path string `json:"path"`
}

// ThreeDRequest drives the 3D stage on an image the pipeline already
// holds, skipping image synthesis.
type ThreeDRequest struct {
	ImagePath   string `json:"image_path"`
	ThreeDModel string `json:"three_d_model"`
}

// Generate runs both stages in one call.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	var out GenerateResult
	if err := c.postJSON(ctx, "/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateImage runs only the image stage.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("prompt", req.Prompt); err != nil {
		return nil, err
	}
	if req.ImageModel != "" {
		if err := w.WriteField("image_model", req.ImageModel); err != nil {
			return nil, err
		}
	}
	if len(req.RefImage) > 0 {
		part, err := w.CreateFormFile("ref_image", "reference.png")
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(req.RefImage); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/generate/image", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var out ImageResult
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Generate3D runs only the reconstruction stage.
func (c *Client) Generate3D(ctx context.Context, req ThreeDRequest) (*GenerateResult, error) {
	var out GenerateResult
	if err := c.postJSON(ctx, "/generate/3d", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchFile downloads a produced binary asset by its pipeline path.
func (c *Client) FetchFile(ctx context.Context, path string) ([]byte, error) {
	url := c.host + "/files/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pipeline file fetch failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in interface{}, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pipeline request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode pipeline response: %w", err)
	}
	return nil
}

// upstreamError keeps the upstream status code and body so the failure
// detail lands verbatim on the generation record.
func upstreamError(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = http.StatusText(status)
	}
	return fmt.Errorf("pipeline failed (%d): %s", status, detail)
}
