// Package pinecone provides a vector index adapter for Pinecone serverless
// indexes over its REST API.
//
// The control plane (list, create, describe) lives at api.pinecone.io. Each
// index has its own data-plane host, learned from DescribeIndex and cached.
package pinecone

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/index"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.IndexService = (*Client)(nil)

// Default configuration values.
const (
	DefaultControlURL = "https://api.pinecone.io"
	DefaultAPIVersion = "2024-07"
	DefaultTimeout    = 30 * time.Second

	// MaxUpsertBatch is the largest vector count sent per upsert request.
	MaxUpsertBatch = 100
)

// Config holds configuration for the Pinecone client.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// ControlURL overrides the control-plane base URL.
	ControlURL string

	// APIVersion is sent as X-Pinecone-API-Version.
	APIVersion string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Client talks to Pinecone's control and data planes.
type Client struct {
	client     *resty.Client
	controlURL string

	mu    sync.RWMutex
	hosts map[string]dataPlane
}

// dataPlane is what Query and Upsert need to know about an index.
type dataPlane struct {
	url    string
	metric domain.Metric
}

// apiError is Pinecone's error envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Status int `json:"status"`
}

type indexModel struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type indexList struct {
	Indexes []indexModel `json:"indexes"`
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors []vector `json:"vectors"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// New creates a Pinecone client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = DefaultControlURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Api-Key", cfg.APIKey).
		SetHeader("X-Pinecone-API-Version", cfg.APIVersion).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		client:     client,
		controlURL: strings.TrimRight(cfg.ControlURL, "/"),
		hosts:      make(map[string]dataPlane),
	}, nil
}

// ListIndexes returns the names of the project's indexes.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	var result indexList
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&apiErr).
		Get(c.controlURL + "/indexes")
	if err != nil {
		return nil, fmt.Errorf("pinecone: list indexes: %w", err)
	}
	if resp.IsError() {
		return nil, responseError("list indexes", resp, apiErr)
	}

	names := make([]string, 0, len(result.Indexes))
	for _, idx := range result.Indexes {
		names = append(names, idx.Name)
		c.rememberHost(idx)
	}
	return names, nil
}

// CreateIndex requests a serverless index. It returns once the request is
// accepted; the index becomes ready asynchronously.
func (c *Client) CreateIndex(ctx context.Context, spec domain.IndexSpec) error {
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(createIndexRequest{
			Name:      spec.Name,
			Dimension: spec.Dimension,
			Metric:    string(spec.Metric),
			Spec: indexSpec{Serverless: serverlessSpec{
				Cloud:  spec.Cloud,
				Region: spec.Region,
			}},
		}).
		SetError(&apiErr).
		Post(c.controlURL + "/indexes")
	if err != nil {
		return fmt.Errorf("pinecone: create index %s: %w", spec.Name, err)
	}
	if resp.StatusCode() == http.StatusConflict {
		return fmt.Errorf("%w: pinecone index %q already exists", domain.ErrInvalidInput, spec.Name)
	}
	if resp.IsError() {
		return responseError("create index "+spec.Name, resp, apiErr)
	}
	return nil
}

// DescribeIndex reports configuration and readiness.
func (c *Client) DescribeIndex(ctx context.Context, name string) (*domain.IndexDescription, error) {
	var result indexModel
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("name", name).
		SetResult(&result).
		SetError(&apiErr).
		Get(c.controlURL + "/indexes/{name}")
	if err != nil {
		return nil, fmt.Errorf("pinecone: describe index %s: %w", name, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.IsError() {
		return nil, responseError("describe index "+name, resp, apiErr)
	}

	c.rememberHost(result)
	metric, _ := domain.ParseMetric(result.Metric)
	return &domain.IndexDescription{
		Name:      result.Name,
		Dimension: result.Dimension,
		Metric:    metric,
		Ready:     result.Status.Ready,
		Host:      result.Host,
		State:     result.Status.State,
	}, nil
}

// Upsert writes records to the index's data plane in batches.
func (c *Client) Upsert(ctx context.Context, name string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	plane, err := c.host(ctx, name)
	if err != nil {
		return err
	}

	for start := 0; start < len(records); start += MaxUpsertBatch {
		end := min(start+MaxUpsertBatch, len(records))
		vectors := make([]vector, 0, end-start)
		for _, r := range records[start:end] {
			vectors = append(vectors, vector{
				ID:       r.ID,
				Values:   r.Vector,
				Metadata: recordMetadata(r),
			})
		}

		var apiErr apiError
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(upsertRequest{Vectors: vectors}).
			SetError(&apiErr).
			Post(plane.url + "/vectors/upsert")
		if err != nil {
			return fmt.Errorf("pinecone: upsert: %w", err)
		}
		if resp.IsError() {
			return responseError("upsert", resp, apiErr)
		}
	}
	return nil
}

// Query returns the k nearest records with metadata. Euclidean indexes
// report squared distances, which are mapped onto the higher-is-closer
// scale the other metrics use.
func (c *Client) Query(ctx context.Context, name string, vec []float32, k int) ([]domain.Match, error) {
	plane, err := c.host(ctx, name)
	if err != nil {
		return nil, err
	}

	var result queryResponse
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(queryRequest{Vector: vec, TopK: k, IncludeMetadata: true}).
		SetResult(&result).
		SetError(&apiErr).
		Post(plane.url + "/query")
	if err != nil {
		return nil, fmt.Errorf("pinecone: query: %w", err)
	}
	if resp.IsError() {
		return nil, responseError("query", resp, apiErr)
	}

	matches := make([]domain.Match, 0, len(result.Matches))
	for _, m := range result.Matches {
		text, _ := m.Metadata[domain.MetaText].(string)
		meta := make(map[string]any, len(m.Metadata))
		for key, v := range m.Metadata {
			if key != domain.MetaText {
				meta[key] = v
			}
		}
		score := m.Score
		if plane.metric == domain.MetricEuclidean {
			score = index.FromDistance(math.Sqrt(max(score, 0)))
		}
		matches = append(matches, domain.Match{
			ID:       m.ID,
			Text:     text,
			Score:    score,
			Metadata: meta,
		})
	}
	return matches, nil
}

// Close releases resources.
func (c *Client) Close() error {
	return nil
}

// host returns the cached data plane, describing the index on a miss.
func (c *Client) host(ctx context.Context, name string) (dataPlane, error) {
	c.mu.RLock()
	p, ok := c.hosts[name]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	desc, err := c.DescribeIndex(ctx, name)
	if err != nil {
		return dataPlane{}, err
	}
	if desc.Host == "" {
		return dataPlane{}, fmt.Errorf("pinecone: index %s has no host yet (state %s)", name, desc.State)
	}
	return dataPlane{url: dataURL(desc.Host), metric: desc.Metric}, nil
}

func (c *Client) rememberHost(idx indexModel) {
	if idx.Host == "" {
		return
	}
	metric, _ := domain.ParseMetric(idx.Metric)
	c.mu.Lock()
	c.hosts[idx.Name] = dataPlane{url: dataURL(idx.Host), metric: metric}
	c.mu.Unlock()
}

// dataURL adds a scheme to bare hosts as returned by the control plane.
func dataURL(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + host
}

// recordMetadata flattens a record into Pinecone metadata. The chunk text
// travels as metadata because Pinecone stores nothing else per vector.
// Pinecone accepts only strings, numbers, booleans and string lists.
func recordMetadata(r domain.VectorRecord) map[string]any {
	meta := make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		switch val := v.(type) {
		case string, bool, int, int32, int64, float32, float64, []string:
			meta[k] = val
		case nil:
		default:
			meta[k] = fmt.Sprint(val)
		}
	}
	meta[domain.MetaText] = r.Text
	return meta
}

func responseError(op string, resp *resty.Response, apiErr apiError) error {
	msg := apiErr.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	err := fmt.Errorf("pinecone: %s: status %d: %s", op, resp.StatusCode(), msg)
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return errors.Join(err, ErrUnauthorized)
	}
	return err
}

// ErrUnauthorized is joined into errors for rejected API keys.
var ErrUnauthorized = errors.New("pinecone: API key rejected")
