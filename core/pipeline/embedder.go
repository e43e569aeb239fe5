package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/relgraph/helper"
	"github.com/siherrmann/relgraph/model"
)

// Embedder generates dense vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Health(ctx context.Context) error
}

// NewEmbedder creates the embedder the configuration asks for: a remote
// client when EMBEDDING_SERVICE_URL is set, the local model otherwise.
func NewEmbedder(config *model.Config) (Embedder, error) {
	if config.EmbeddingServiceURL != "" {
		return NewRemoteEmbedder(config.EmbeddingServiceURL), nil
	}
	return NewLocalEmbedder()
}

// RemoteEmbedder calls the embedding microservice over HTTP.
type RemoteEmbedder struct {
	baseURL string
	client  *http.Client
}

// NewRemoteEmbedder creates a client for the embedding service.
func NewRemoteEmbedder(baseURL string) *RemoteEmbedder {
	return &RemoteEmbedder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Embed generates an embedding for one text via POST /embed.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var response struct {
		Embedding []float32 `json:"embedding"`
	}
	err := e.post(ctx, "/embed", map[string]string{"text": text}, &response)
	if err != nil {
		return nil, err
	}
	if len(response.Embedding) == 0 {
		return nil, model.NewGraphError(model.ErrEmbedding, "embedding service returned no embedding", nil)
	}
	return response.Embedding, nil
}

// EmbedBatch generates embeddings for many texts via POST /batch/embed.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.post(ctx, "/batch/embed", map[string][]string{"texts": texts}, &response)
	if err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, model.NewGraphError(model.ErrEmbedding,
			fmt.Sprintf("embedding service returned %d embeddings for %d texts", len(response.Embeddings), len(texts)), nil)
	}
	return response.Embeddings, nil
}

// Health probes the embedding service via GET /health.
func (e *RemoteEmbedder) Health(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return helper.NewError("create health request", err)
	}
	response, err := e.client.Do(request)
	if err != nil {
		return model.NewGraphError(model.ErrServiceUnavailable, "embedding service unreachable", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return model.NewGraphError(model.ErrServiceUnavailable,
			fmt.Sprintf("embedding service health returned status %d", response.StatusCode), nil)
	}
	return nil
}

func (e *RemoteEmbedder) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return helper.NewError("marshal request", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return helper.NewError("create request", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := e.client.Do(request)
	if err != nil {
		return model.NewGraphError(model.ErrEmbedding, "embedding service request failed", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return model.NewGraphError(model.ErrEmbedding,
			fmt.Sprintf("embedding service returned status %d: %s", response.StatusCode, string(raw)), nil)
	}

	err = json.NewDecoder(response.Body).Decode(out)
	if err != nil {
		return model.NewGraphError(model.ErrEmbedding, "decode embedding response", err)
	}
	return nil
}

// LocalEmbedder runs a sentence transformer in process using the
// all-MiniLM-L6-v2 model, which produces 384-dimensional embeddings.
type LocalEmbedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewLocalEmbedder downloads the model if needed and starts a hugot
// session with the Go backend.
func NewLocalEmbedder() (*LocalEmbedder, error) {
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName, "")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return &LocalEmbedder{
		session:  session,
		pipeline: sentencePipeline,
	}, nil
}

// Embed generates an embedding for one text.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for many texts in one model run.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, model.NewGraphError(model.ErrEmbedding, "failed to generate embeddings", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, model.NewGraphError(model.ErrEmbedding,
			fmt.Sprintf("model returned %d embeddings for %d texts", len(result.Embeddings), len(texts)), nil)
	}
	return result.Embeddings, nil
}

// Health reports readiness; the local model is ready once constructed.
func (e *LocalEmbedder) Health(ctx context.Context) error {
	return nil
}

// Close destroys the hugot session.
func (e *LocalEmbedder) Close() error {
	return e.session.Destroy()
}
