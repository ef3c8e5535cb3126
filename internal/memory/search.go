package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/store"
)

// SearchOptions configures SearchCode.
type SearchOptions struct {
	Limit         int
	MinScore      float64
	KeywordWeight float64
	VectorWeight  float64
}

// defaultSearchOptions fills in a sensible default for any zero field: a
// limit of 10 results, and a 0.3/0.7 keyword/vector weight split when the
// caller leaves both weights unset.
func defaultSearchOptions(opts SearchOptions) SearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.KeywordWeight == 0 && opts.VectorWeight == 0 {
		opts.KeywordWeight, opts.VectorWeight = 0.3, 0.7
	}
	return opts
}

// SourceScore is the per-source contribution to a SearchResult's total score.
type SourceScore struct {
	Keyword *float64
	Vector  *float64
}

// SearchResult is one ranked hybrid-search hit.
type SearchResult struct {
	ChunkID   string
	Score     float64
	Content   string
	FilePath  string
	StartLine int
	EndLine   int
	Symbols   []string
	Imports   []string
	Sources   SourceScore
}

// SearchCode runs the hybrid keyword + vector search described in spec
// §4.2.2: sanitize and FTS-match query, embed and cosine-scan query,
// merge by chunk id with weighted scores, filter by min_score, sort
// descending by score with id-ascending tie-break, truncate to limit.
func (e *Engine) SearchCode(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	opts = defaultSearchOptions(opts)
	if opts.KeywordWeight < 0 || opts.VectorWeight < 0 {
		return nil, errs.Validation("search weights must not be negative")
	}
	if opts.KeywordWeight == 0 && opts.VectorWeight == 0 {
		return nil, errs.Validation("search weights must not both be zero")
	}

	keywordScores, err := e.keywordPass(ctx, query, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search pass: %w", err)
	}
	vectorScores, err := e.vectorPass(ctx, query, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("vector search pass: %w", err)
	}

	merged := mergeScores(keywordScores, vectorScores, opts.KeywordWeight, opts.VectorWeight)

	var ids []string
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var results []SearchResult
	for _, id := range ids {
		sc := merged[id]
		if sc.total < opts.MinScore {
			continue
		}
		c, err := e.store.GetCodeChunk(ctx, id)
		if err != nil {
			continue // chunk was deleted between the scan and this lookup
		}
		results = append(results, SearchResult{
			ChunkID: id, Score: sc.total, Content: c.Text, FilePath: c.FilePath,
			StartLine: c.StartLine, EndLine: c.EndLine, Symbols: c.Symbols, Imports: c.Imports,
			Sources: SourceScore{Keyword: sc.keyword, Vector: sc.vector},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// keywordPass sanitizes query into an FTS match expression, runs it, and
// converts the raw bm25 rank into a [0,1] relevance score.
func (e *Engine) keywordPass(ctx context.Context, query string, limit int) (map[string]float64, error) {
	ftsQuery := sanitizeFTSQuery(query)
	hits, err := e.store.SearchCodeChunksFTS(ctx, ftsQuery, 2*limit)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		scores[h.ChunkID] = bm25ToScore(h.Rank)
	}
	return scores, nil
}

// sanitizeFTSQuery implements spec §4.2.2's keyword-pass rule: trim; empty
// becomes match-all; a single token is quoted; multiple tokens are joined
// as an OR of quoted tokens; embedded quotes are doubled.
func sanitizeFTSQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "*"
	}
	tokens := strings.Fields(trimmed)
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted, " OR ")
}

// bm25ToScore converts SQLite's bm25() rank (negative, more negative is
// more relevant) into a normalized [0,1] relevance score.
func bm25ToScore(rank float64) float64 {
	s := 1 - math.Exp(-math.Abs(rank)/5)
	return clamp01(s)
}

// vectorPass embeds query, cosine-scans every chunk with an embedding, and
// returns the top `2*limit` by similarity as a [0,1] score.
func (e *Engine) vectorPass(ctx context.Context, query string, limit int) (map[string]float64, error) {
	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		id    string
		score float64
	}
	var all []scored
	err = e.store.StreamChunksWithEmbeddings(ctx, func(cwe store.ChunkWithEmbedding) bool {
		sim := cosineSimilarity(queryVec, cwe.Vector)
		all = append(all, scored{id: cwe.Chunk.ID, score: clamp01(sim)})
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id < all[j].id
	})
	if len(all) > 2*limit {
		all = all[:2*limit]
	}

	scores := make(map[string]float64, len(all))
	for _, s := range all {
		scores[s.id] = s.score
	}
	return scores, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type mergedScore struct {
	total   float64
	keyword *float64
	vector  *float64
}

func mergeScores(keyword, vector map[string]float64, wk, wv float64) map[string]mergedScore {
	merged := make(map[string]mergedScore, len(keyword)+len(vector))
	for id, ks := range keyword {
		ksCopy := ks
		merged[id] = mergedScore{total: ks * wk, keyword: &ksCopy}
	}
	for id, vs := range vector {
		vsCopy := vs
		m, ok := merged[id]
		if !ok {
			merged[id] = mergedScore{total: vs * wv, vector: &vsCopy}
			continue
		}
		m.total += vs * wv
		m.vector = &vsCopy
		merged[id] = m
	}
	return merged
}
