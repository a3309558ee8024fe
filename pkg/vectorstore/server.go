package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aegis-sec/aegis/pkg/coreerr"
)

func init() {
	Register("server", func(_ context.Context, embedder Embedder, opts map[string]string) (Store, error) {
		baseURL := opts["baseUrl"]
		if baseURL == "" {
			return nil, fmt.Errorf("vectorstore: server backend requires baseUrl")
		}
		if embedder == nil {
			return nil, fmt.Errorf("vectorstore: server backend requires an embedder")
		}
		timeout := 10 * time.Second
		return &ServerStore{
			baseURL:  baseURL,
			embedder: embedder,
			client:   &http.Client{Timeout: timeout},
		}, nil
	})
}

// ServerStore delegates add/search/delete/count to a remote vector-search
// service over plain HTTP+JSON. Grounded on the teacher's MCP transport
// layer: a thin client keyed by a configured base URL rather than an
// in-process implementation, every call wrapped so any transport failure
// surfaces uniformly as BackendUnavailable.
type ServerStore struct {
	baseURL  string
	embedder Embedder
	client   *http.Client
}

type addRequest struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type searchRequest struct {
	Vector    []float32 `json:"vector"`
	K         int       `json:"k"`
	Threshold float64   `json:"threshold"`
}

type searchResponse struct {
	Matches []Match `json:"matches"`
}

func (s *ServerStore) Add(ctx context.Context, id, text string, metadata map[string]string) error {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("vectorstore: embedding %q: %w", id, err)
	}
	req := addRequest{ID: id, Text: text, Vector: vec, Metadata: metadata}
	return s.post(ctx, "/vectors", req, nil)
}

func (s *ServerStore) FindSimilar(ctx context.Context, query string, k int, threshold float64) ([]Match, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: embedding query: %w", err)
	}
	var resp searchResponse
	if err := s.post(ctx, "/vectors/search", searchRequest{Vector: vec, K: k, Threshold: threshold}, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

func (s *ServerStore) Remove(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/vectors/"+id, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: building delete request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return coreerr.Wrap(coreerr.ErrBackendUnavailable, "VECTORSTORE_REMOVE", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return coreerr.New(coreerr.ErrBackendUnavailable, "VECTORSTORE_REMOVE", fmt.Sprintf("remote returned %d", resp.StatusCode), "")
	}
	return nil
}

func (s *ServerStore) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := s.get(ctx, "/vectors/count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (s *ServerStore) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore: marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *ServerStore) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: building request: %w", err)
	}
	return s.do(req, out)
}

func (s *ServerStore) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return coreerr.Wrap(coreerr.ErrBackendUnavailable, "VECTORSTORE_CALL", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return coreerr.New(coreerr.ErrBackendUnavailable, "VECTORSTORE_CALL", fmt.Sprintf("remote returned %d", resp.StatusCode), "")
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vectorstore: decoding response: %w", err)
	}
	return nil
}
