package core

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/retrieval"
)

// QueryKnowledge runs the retrieval/generation pipeline (C6) for query
// (spec §6: queryKnowledge).
func (c *Core) QueryKnowledge(ctx context.Context, query string, opts QueryOptions) (QueryResult, error) {
	start := time.Now()

	result, err := c.Pipeline.Process(ctx, query, retrieval.Options{
		UseCache:   opts.UseCache,
		Debug:      opts.Debug,
		Category:   opts.Category,
		Difficulty: opts.Difficulty,
		K:          opts.K,
	})
	if err != nil {
		if coreerr.Is(err, coreerr.ErrGenerationUnavailable) {
			return QueryResult{Degraded: true, ProcessingTime: time.Since(start).Milliseconds()}, err
		}
		return QueryResult{}, err
	}

	nodes := retrieval.LookupCatalog(c.Memory.Graph, query, retrieval.CatalogFilter{Category: opts.Category, Difficulty: opts.Difficulty})
	var techniques, toolNames []string
	for _, n := range nodes {
		switch n.Type {
		case "tool":
			toolNames = append(toolNames, n.Label)
		default:
			techniques = append(techniques, n.Label)
		}
	}

	return QueryResult{
		Response:       result.Answer,
		Techniques:     techniques,
		Tools:          toolNames,
		Confidence:     result.Confidence,
		Cached:         result.Cached,
		HitType:        result.HitType,
		ProcessingTime: time.Since(start).Milliseconds(),
	}, nil
}

// Ingest loads docPath, splitting it into paragraph-sized chunks and
// adding each as a semantic-memory entry (spec §6: ingest). Concrete
// document formats are an explicit spec Non-goal, so this only handles
// plain text — empty chunks are skipped, and a chunk is rejected when it
// would exceed the pipeline's context budget on its own.
func (c *Core) Ingest(ctx context.Context, docPath string) (IngestResult, error) {
	f, err := os.Open(docPath)
	if err != nil {
		return IngestResult{}, coreerr.Wrap(coreerr.ErrNotFound, "INGEST_DOC_NOT_FOUND", "", err)
	}
	defer f.Close()

	var result IngestResult
	var builder strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	flush := func() {
		chunk := strings.TrimSpace(builder.String())
		builder.Reset()
		if chunk == "" {
			return
		}
		if len(chunk) > c.Pipeline.MaxContextChars {
			result.Rejected = append(result.Rejected, fmt.Sprintf("chunk starting %q exceeds max context size", truncateFor(chunk, 40)))
			return
		}
		id := uuid.NewString()
		if err := c.Memory.Semantic.Upsert(ctx, id, chunk, map[string]string{"source": docPath}); err != nil {
			result.Rejected = append(result.Rejected, fmt.Sprintf("chunk starting %q: %v", truncateFor(chunk, 40), err))
			return
		}
		result.AcceptedChunks++
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return result, coreerr.Wrap(coreerr.ErrInternal, "INGEST_READ_FAILED", "", err)
	}
	return result, nil
}

func truncateFor(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
