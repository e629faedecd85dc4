// Package mirror fans index writes out to an external search engine
// (meilisearch, typesense, or opensearch) so operators can keep a secondary
// index warm without coupling the primary store to any one vendor's schema.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/lexisearch/lexisearch/internal/models"
)

const requestTimeout = 10 * time.Second

// Names of the supported mirror adapters.
const (
	Meilisearch = "meilisearch"
	Typesense   = "typesense"
	Opensearch  = "opensearch"
)

// httpAdapter is the shared HTTP-call shape for all three mirror vendors:
// context-bound request, status-code check, bounded body read. Each vendor
// differs only in its bulk-index endpoint path, auth header, and the
// gjson path used to read back an acknowledgement.
type httpAdapter struct {
	name       string
	baseURL    string
	apiKey     string
	authHeader string
	client     *http.Client
	upsertPath string
	deletePath string
	ackPath    string
}

// New returns an Adapter for the given vendor name. An unrecognized name
// returns an error rather than a silently inert adapter.
func New(name, baseURL, apiKey string) (*httpAdapter, error) { //nolint:revive // unexported return type is intentional: callers use the domain.MirrorAdapter interface.
	client := &http.Client{Timeout: requestTimeout}

	switch name {
	case Meilisearch:
		return &httpAdapter{
			name: name, baseURL: baseURL, apiKey: apiKey, client: client,
			authHeader: "Authorization", upsertPath: "/indexes/documents/documents", deletePath: "/indexes/documents/documents/delete-batch",
			ackPath: "taskUid",
		}, nil
	case Typesense:
		return &httpAdapter{
			name: name, baseURL: baseURL, apiKey: apiKey, client: client,
			authHeader: "X-TYPESENSE-API-KEY", upsertPath: "/collections/documents/documents/import", deletePath: "/collections/documents/documents",
			ackPath: "success",
		}, nil
	case Opensearch:
		return &httpAdapter{
			name: name, baseURL: baseURL, apiKey: apiKey, client: client,
			authHeader: "Authorization", upsertPath: "/documents/_bulk", deletePath: "/documents/_bulk",
			ackPath: "errors",
		}, nil
	default:
		return nil, fmt.Errorf("unknown mirror adapter %q", name)
	}
}

// Name returns the adapter's vendor name.
func (a *httpAdapter) Name() string { return a.name }

// Upsert sends docs to the vendor's bulk-index endpoint.
func (a *httpAdapter) Upsert(ctx context.Context, docs []models.Document) error {
	body, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshaling mirror upsert payload: %w", err)
	}

	return a.doRequest(ctx, http.MethodPost, a.upsertPath, body)
}

// Delete sends an id batch to the vendor's bulk-delete endpoint.
func (a *httpAdapter) Delete(ctx context.Context, ids []string) error {
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return fmt.Errorf("marshaling mirror delete payload: %w", err)
	}

	return a.doRequest(ctx, http.MethodPost, a.deletePath, body)
}

// Flush is a no-op for adapters whose bulk endpoints apply writes
// synchronously; vendors with async indexing queues would override this.
func (a *httpAdapter) Flush(_ context.Context) error { return nil }

func (a *httpAdapter) doRequest(ctx context.Context, method, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating mirror request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(a.authHeader, a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s mirror: %w", a.name, err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, 1<<20) // 1 MB

	raw, err := io.ReadAll(limited)
	if err != nil {
		return fmt.Errorf("reading %s mirror response: %w", a.name, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s mirror returned status %d: %s", a.name, resp.StatusCode, gjson.GetBytes(raw, "message").String())
	}

	return a.checkAck(raw)
}

// checkAck interprets the vendor-specific acknowledgement field named by
// ackPath. Each vendor signals success differently:
//   - meilisearch's "taskUid" is the id of the async indexing task it
//     queued; its presence is the ack, there's no separate error flag here.
//   - typesense's "success" is an explicit boolean, false on partial
//     import failure.
//   - opensearch's "errors" is an explicit boolean, true when any item in
//     the bulk request failed.
func (a *httpAdapter) checkAck(raw []byte) error {
	ack := gjson.GetBytes(raw, a.ackPath)

	switch a.name {
	case Meilisearch:
		if !ack.Exists() {
			return fmt.Errorf("%s mirror response missing %s acknowledgement", a.name, a.ackPath)
		}
	case Typesense:
		if !ack.Bool() {
			return fmt.Errorf("%s mirror reported partial failure", a.name)
		}
	case Opensearch:
		if ack.Bool() {
			return fmt.Errorf("%s mirror reported partial failure", a.name)
		}
	}

	return nil
}
