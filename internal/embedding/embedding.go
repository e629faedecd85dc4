// Package embedding provides an HTTP client that turns text into unit-norm
// vector embeddings via a local embedding endpoint.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"
)

const embeddingTimeout = 30 * time.Second

// Circuit breaker configuration.
const (
	cbFailureThreshold = 5
	cbCooldown         = 30 * time.Second
)

// Circuit breaker states.
const (
	cbClosed   = iota // Normal operation.
	cbOpen            // Fail fast.
	cbHalfOpen        // Probe with one request.
)

// ErrCircuitOpen is returned when the circuit breaker is open and requests
// are being rejected without calling the embedding endpoint.
var ErrCircuitOpen = errors.New("embedding circuit breaker is open")

// Client generates vector embeddings via a local HTTP embedding endpoint.
type Client struct {
	endpoint string
	model    string
	dims     int
	client   *http.Client

	mu              sync.Mutex
	cbState         int
	cbFailures      int
	cbLastFailureAt time.Time
}

// embedRequest's Input accepts either a single string or a string slice; the
// embedding endpoint batches a slice into one forward pass, which is what
// lets the indexer backfill an entire upsert chunk's missing embeddings in
// one HTTP round trip instead of one request per document.
type embedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// ErrDimensionMismatch is returned when the embedding endpoint returns a
// vector whose length doesn't match the configured column width. Writing it
// to search_documents.embedding (a fixed-width pgvector column) would either
// fail the insert or silently corrupt cosine-similarity ranking, so this is
// checked at the source instead of at the store.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// NewClient creates a Client for the given embedding endpoint, model, and
// expected vector width. dims of 0 disables the width check. Connections are
// restricted to loopback addresses, matching the local embedding deployment
// this service expects.
func NewClient(endpoint, model string, dims int) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, fmt.Errorf("invalid address: %w", err)
			}

			ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
			if err != nil {
				return nil, fmt.Errorf("resolving embedding host: %w", err)
			}

			for _, ip := range ips {
				if !ip.IP.IsLoopback() {
					return nil, fmt.Errorf("embedding endpoint connections restricted to localhost")
				}
			}

			return (&net.Dialer{}).DialContext(ctx, network, addr)
		},
	}

	return &Client{
		endpoint: endpoint,
		model:    model,
		dims:     dims,
		client:   &http.Client{Timeout: embeddingTimeout, Transport: transport},
		cbState:  cbClosed,
	}
}

// Embed produces a unit-norm vector embedding for the given text.
// It uses a circuit breaker to fail fast when the embedding endpoint is down.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

// BatchEmbed produces unit-norm vector embeddings for multiple texts in one
// request. The returned slice has the same length and order as texts.
func (c *Client) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	return c.embed(ctx, texts...)
}

// embed shares the circuit breaker and wire format between Embed and
// BatchEmbed; inputs of len 1 and len N differ only in the JSON request's
// Input field, which the embedding endpoint accepts as either shape.
func (c *Client) embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if err := c.cbAllow(); err != nil {
		return nil, err
	}

	result, err := c.doEmbed(ctx, texts)
	if err != nil {
		c.cbRecordFailure()

		return nil, err
	}

	c.cbRecordSuccess()

	return result, nil
}

func (c *Client) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	var input any = texts
	if len(texts) == 1 {
		input = texts[0]
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return nil, fmt.Errorf("embedding endpoint returned status %d", resp.StatusCode)
	}

	var result embedResponse

	limited := io.LimitReader(resp.Body, 10<<20) // 10 MB
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding endpoint returned %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}

	out := make([][]float32, len(result.Embeddings))

	for i, vec := range result.Embeddings {
		if c.dims > 0 && len(vec) != c.dims {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), c.dims)
		}

		out[i] = normalize(vec)
	}

	return out, nil
}

// normalize returns v scaled to unit L2 norm. A zero vector is returned unchanged.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}

	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}

	return out
}

// cbAllow checks whether the circuit breaker permits a request.
func (c *Client) cbAllow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cbState {
	case cbClosed:
		return nil
	case cbOpen:
		if time.Since(c.cbLastFailureAt) >= cbCooldown {
			c.cbState = cbHalfOpen

			return nil
		}

		return ErrCircuitOpen
	case cbHalfOpen:
		return ErrCircuitOpen
	}

	return nil
}

// cbRecordSuccess records a successful call, closing the circuit breaker.
func (c *Client) cbRecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cbFailures = 0
	c.cbState = cbClosed
}

// cbRecordFailure records a failed call, opening the circuit breaker once the
// failure threshold is reached.
func (c *Client) cbRecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cbFailures++
	c.cbLastFailureAt = time.Now()

	if c.cbFailures >= cbFailureThreshold || c.cbState == cbHalfOpen {
		c.cbState = cbOpen
	}
}
