// Package extract turns raw text into knowledge-graph fragments by prompting
// a language model per chunk and recovering JSON from its output. It is the
// producer side of the pipeline: its fragments are what pkg/graph loads and
// the clustering core consumes.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/sony/gobreaker"

	"github.com/soundprediction/go-kgmerge/pkg/graph"
	"github.com/soundprediction/go-kgmerge/pkg/llm"
)

const (
	// DefaultChunkSize is the maximum chunk length in bytes.
	DefaultChunkSize = 5000
	// DefaultMaxAttempts bounds retries for a single chunk.
	DefaultMaxAttempts = 5
	// DefaultRefineIterations bounds the refinement passes over a fragment.
	DefaultRefineIterations = 2
	// retryDelay is the base wait between attempts for one chunk.
	retryDelay = 10 * time.Second

	// Prompt samples for refinement: the model sees at most this many
	// entities and example relations.
	refineEntitySample   = 50
	refineRelationSample = 5
)

const extractPrompt = `Analyze this text and generate a knowledge graph in JSON format with:
- "nodes": list of objects with "id" (number) and "label" (string)
- "edges": list of objects with "source", "target" (node ids), and "relation" (string)
Example format:
{
  "nodes": [{"id": 1, "label": "Concept1"}, {"id": 2, "label": "Concept2"}],
  "edges": [{"source": 1, "target": 2, "relation": "related_to"}]
}
Text to analyze:
%s
Return only the JSON, no additional text or markdown.`

const refinePrompt = `Given these entities: %s
And some existing relations (for reference): %s
Suggest 3-5 NEW plausible relations that might be missing between these entities.
Use EXACTLY this JSON format for each relation:
{"source": "subject", "target": "object", "relation": "predicate"}
Return ONLY a JSON list of such relation objects.`

// graphResponse is the model's raw nodes/edges answer for one chunk.
type graphResponse struct {
	Nodes []struct {
		ID    json.Number `json:"id"`
		Label string      `json:"label"`
	} `json:"nodes"`
	Edges []struct {
		Source   json.Number `json:"source"`
		Target   json.Number `json:"target"`
		Relation string      `json:"relation"`
	} `json:"edges"`
}

// Options configures an Extractor.
type Options struct {
	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int
	// MaxAttempts bounds the retries per chunk.
	MaxAttempts int
	// RetryDelay overrides the wait between attempts, mainly for tests.
	RetryDelay time.Duration
	// Logger for per-chunk diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Extractor produces graph fragments from text through a language model. A
// circuit breaker around the model keeps a dead endpoint from burning the
// full retry budget on every remaining chunk.
type Extractor struct {
	llm         llm.Client
	breaker     *gobreaker.CircuitBreaker
	logger      *slog.Logger
	chunkSize   int
	maxAttempts int
	retryDelay  time.Duration
}

// NewExtractor creates an extractor using the given model client.
func NewExtractor(client llm.Client, opts Options) *Extractor {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = retryDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "llm-extract",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Extractor{
		llm:         client,
		breaker:     breaker,
		logger:      opts.Logger,
		chunkSize:   opts.ChunkSize,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
	}
}

// Extract chunks text, prompts the model per chunk, and assembles one graph
// fragment from all recovered triples. Chunks whose retries are exhausted
// are skipped with a diagnostic; the fragment holds whatever the remaining
// chunks produced.
func (e *Extractor) Extract(ctx context.Context, text string) (graph.Graph, error) {
	chunks := ChunkText(text, e.chunkSize)
	e.logger.Info("extracting knowledge graph", "chunks", len(chunks))

	relations := make(map[graph.Relation]struct{})
	for i, chunk := range chunks {
		resp, err := e.safeGenerate(ctx, fmt.Sprintf(extractPrompt, chunk))
		if err != nil {
			e.logger.Warn("skipping chunk", "chunk", i+1, "error", err)
			continue
		}
		triples := resp.triples()
		e.logger.Info("extracted triples", "chunk", i+1, "triples", len(triples))
		for _, t := range triples {
			relations[t] = struct{}{}
		}
	}

	return fragmentFromRelations(relations), nil
}

// Refine asks the model to suggest relations missing between the already
// extracted entities and folds the new ones into the fragment, iterating
// until the relation count stabilizes or maxIterations passes have run.
// maxIterations <= 0 means DefaultRefineIterations. A failed pass leaves the
// fragment as it was; refinement only ever adds relations.
func (e *Extractor) Refine(ctx context.Context, g graph.Graph, maxIterations int) graph.Graph {
	if maxIterations <= 0 {
		maxIterations = DefaultRefineIterations
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		before := len(g.Relations)
		g = e.completeGraph(ctx, g)
		e.logger.Info("refinement iteration",
			"iteration", iteration, "relations_before", before, "relations_after", len(g.Relations))
		if len(g.Relations) == before {
			break
		}
	}
	return g
}

// completeGraph runs one refinement pass: prompt the model with an entity
// sample and a few existing relations, parse the suggested relation list,
// and add the suggestions not already present. Entities and edges are left
// untouched; only the relation set grows.
func (e *Extractor) completeGraph(ctx context.Context, g graph.Graph) graph.Graph {
	entities, err := json.Marshal(head(g.Entities, refineEntitySample))
	if err != nil {
		return g
	}
	sample, err := json.Marshal(head(g.Relations, refineRelationSample))
	if err != nil {
		return g
	}

	content, err := e.generate(ctx, fmt.Sprintf(refinePrompt, entities, sample))
	if err != nil {
		e.logger.Warn("skipping refinement pass", "error", err)
		return g
	}
	suggested, err := parseRelationList(content)
	if err != nil {
		e.logger.Warn("skipping refinement pass", "error", err)
		return g
	}

	existing := make(map[graph.Relation]struct{}, len(g.Relations))
	for _, rel := range g.Relations {
		existing[rel] = struct{}{}
	}
	for _, s := range suggested {
		if s.Source == "" || s.Relation == "" || s.Target == "" {
			continue
		}
		rel := graph.NewRelation(s.Source, s.Relation, s.Target)
		if _, ok := existing[rel]; ok {
			continue
		}
		existing[rel] = struct{}{}
		e.logger.Info("added suggested relation",
			"source", rel.Source, "relation", rel.Predicate, "target", rel.Target)
	}
	g.Relations = graph.SortRelations(existing)
	return g
}

// safeGenerate calls the model with bounded retries and recovers a JSON
// object from whatever surrounds it in the response.
func (e *Extractor) safeGenerate(ctx context.Context, prompt string) (*graphResponse, error) {
	content, err := e.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	// Malformed output is not worth retrying: the model answered, it just
	// did not produce a graph.
	return parseGraphJSON(content)
}

// generate calls the model through the breaker, retrying transport failures
// up to maxAttempts with a delay between attempts.
func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}

		result, err := e.breaker.Execute(func() (any, error) {
			return e.llm.Chat(ctx, []llm.Message{llm.NewUserMessage(prompt)})
		})
		if err != nil {
			lastErr = err
			e.logger.Warn("model call failed",
				"attempt", attempt, "max_attempts", e.maxAttempts, "error", err)
			continue
		}
		return result.(*llm.Response).Content, nil
	}
	return "", fmt.Errorf("max attempts reached: %w", lastErr)
}

// suggestedRelation is one entry of the model's refinement answer. Unlike
// the extraction response, endpoints are entity names, not node IDs.
type suggestedRelation struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// parseRelationList digs the JSON list out of a refinement response,
// repairing minor syntax damage on the way.
func parseRelationList(text string) ([]suggestedRelation, error) {
	text = stripFence(text)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON list in model response")
	}
	text = text[start : end+1]

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		repaired = text
	}

	var parsed []suggestedRelation
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return parsed, nil
}

// parseGraphJSON digs the JSON object out of a model response that may wrap
// it in markdown fences or prose, repairing minor syntax damage on the way.
func parseGraphJSON(text string) (*graphResponse, error) {
	text = stripFence(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	text = text[start : end+1]

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		repaired = text
	}

	var parsed graphResponse
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &parsed, nil
}

// triples converts the nodes/edges answer into relation triples, resolving
// node IDs to labels. Edges referencing unknown nodes keep the raw ID as the
// entity name rather than being dropped.
func (r *graphResponse) triples() []graph.Relation {
	labels := make(map[string]string, len(r.Nodes))
	for _, n := range r.Nodes {
		labels[n.ID.String()] = n.Label
	}

	resolve := func(id json.Number) string {
		if label, ok := labels[id.String()]; ok {
			return label
		}
		return id.String()
	}

	triples := make([]graph.Relation, 0, len(r.Edges))
	for _, edge := range r.Edges {
		triples = append(triples, graph.NewRelation(
			resolve(edge.Source), edge.Relation, resolve(edge.Target)))
	}
	return triples
}

// fragmentFromRelations builds a producer-schema fragment: entities are the
// endpoints of the relations, edges the distinct predicates.
func fragmentFromRelations(relations map[graph.Relation]struct{}) graph.Graph {
	entities := make(map[string]struct{})
	edges := make(map[string]struct{})
	for rel := range relations {
		entities[rel.Source] = struct{}{}
		entities[rel.Target] = struct{}{}
		edges[rel.Predicate] = struct{}{}
	}

	return graph.Graph{
		Entities:  keys(entities),
		Relations: graph.SortRelations(relations),
		Edges:     keys(edges),
	}
}

// stripFence unwraps a ```json markdown fence when the response carries one.
func stripFence(text string) string {
	idx := strings.Index(text, "```json")
	if idx < 0 {
		return text
	}
	text = text[idx+len("```json"):]
	if end := strings.Index(text, "```"); end >= 0 {
		text = text[:end]
	}
	return text
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
