// Package llm implements the core's client for the out-of-scope LLM
// backend (spec §1): an RPC endpoint exposing generate(prompt) → text and
// embed(text) → vector. The core never fabricates output when this
// backend is unreachable — every failure surfaces as a typed
// coreerr.ErrBackendUnavailable or coreerr.ErrTimeout for the retrieval
// pipeline (C6) to translate further.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/llm/rpc"
)

// Default method names the backend is expected to expose, matched against
// whatever its own server registers these handlers under.
const (
	generateMethod = "/aegis.llm.v1.LLMService/Generate"
	embedMethod    = "/aegis.llm.v1.LLMService/Embed"
)

// Config bundles Client construction options (spec §6: llm.apiUrl,
// llm.timeoutMs, llm.maxTokens).
type Config struct {
	APIURL    string
	Timeout   time.Duration
	MaxTokens int
}

const defaultTimeout = 15 * time.Second

// Client is a thin gRPC client for the LLM backend. Grounded on the
// teacher's pkg/agent/llm_grpc.go choice of google.golang.org/grpc as
// transport; messages travel as JSON (pkg/llm/rpc) rather than generated
// protobuf types since no .proto contract survived retrieval.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	maxTok  int
}

// New dials addr with insecure (plaintext) credentials, matching the
// teacher's sidecar-on-localhost assumption.
func New(cfg Config) (*Client, error) {
	conn, err := grpc.NewClient(cfg.APIURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("llm: dialing %s: %w", cfg.APIURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{conn: conn, timeout: timeout, maxTok: cfg.MaxTokens}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GenerateRequest is the JSON wire request for the Generate RPC.
type GenerateRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"maxTokens,omitempty"`
}

// GenerateResponse is the JSON wire response for the Generate RPC.
type GenerateResponse struct {
	Text         string `json:"text"`
	TokensUsed   int    `json:"tokensUsed"`
	FinishReason string `json:"finishReason,omitempty"`
}

// Generate calls the backend's generate(prompt) → text RPC (spec §1).
func (c *Client) Generate(ctx context.Context, prompt string) (GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := GenerateRequest{Prompt: prompt, MaxTokens: c.maxTok}
	var resp GenerateResponse
	if err := c.invoke(ctx, generateMethod, &req, &resp); err != nil {
		return GenerateResponse{}, err
	}
	return resp, nil
}

// EmbedRequest is the JSON wire request for the Embed RPC.
type EmbedRequest struct {
	Text string `json:"text"`
}

// EmbedResponse is the JSON wire response for the Embed RPC.
type EmbedResponse struct {
	Vector []float32 `json:"vector"`
}

// Embed calls the backend's embed(text) → vector RPC (spec §1). The
// signature matches vectorstore.Embedder and cag.Embedder structurally, so
// *Client can be passed directly wherever either is expected.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := EmbedRequest{Text: text}
	var resp EmbedResponse
	if err := c.invoke(ctx, embedMethod, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Vector, nil
}

// invoke issues a unary RPC using the JSON content-subtype codec
// (pkg/llm/rpc) instead of a generated protobuf stub, translating every
// transport failure to the core's typed taxonomy (spec §7) rather than
// leaking a raw gRPC status to callers.
func (c *Client) invoke(ctx context.Context, method string, req, reply any) error {
	err := c.conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype(rpc.CodecName))
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return coreerr.Wrap(coreerr.ErrTimeout, "LLM_TIMEOUT", "", err)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return coreerr.Wrap(coreerr.ErrTimeout, "LLM_TIMEOUT", "", err)
		case codes.Unavailable, codes.Unknown, codes.Internal:
			return coreerr.Wrap(coreerr.ErrBackendUnavailable, "LLM_UNAVAILABLE", "", err)
		}
	}
	return coreerr.Wrap(coreerr.ErrBackendUnavailable, "LLM_UNAVAILABLE", "", err)
}
