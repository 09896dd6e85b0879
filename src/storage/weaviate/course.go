package weaviate

import (
	"context"
	"fmt"
	"regexp"

	"github.com/weaviate/weaviate/entities/models"

	"examgrader/src/core/coursematerial"
	"examgrader/src/log"
)

const (
	propText   = "text"
	propKind   = "kind"
	propSource = "source"

	batchSize = 64
)

var invalidClassChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Embedder computes one vector per text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ClassName maps a course material collection to a valid Weaviate class.
func ClassName(collection string) string {
	return "Course_" + invalidClassChars.ReplaceAllString(collection, "_")
}

// CourseIndex stores course material nodes with embeddings computed by
// the Embedder.
type CourseIndex struct {
	sdk      *SDK
	embedder Embedder
	alpha    float32
}

func NewCourseIndex(sdk *SDK, embedder Embedder, alpha float32) *CourseIndex {
	return &CourseIndex{sdk: sdk, embedder: embedder, alpha: alpha}
}

// Build replaces the collection with nodes.
func (c *CourseIndex) Build(ctx context.Context, collection string, nodes []coursematerial.Node) error {
	className := ClassName(collection)
	err := c.sdk.RecreateClass(ctx, className, []*models.Property{
		{Name: propText, DataType: []string{"text"}},
		{Name: propKind, DataType: []string{"text"}},
		{Name: propSource, DataType: []string{"text"}},
	})
	if err != nil {
		return err
	}

	for start := 0; start < len(nodes); start += batchSize {
		end := min(start+batchSize, len(nodes))
		batch := nodes[start:end]

		texts := make([]string, len(batch))
		for i, n := range batch {
			texts[i] = n.Text
		}
		vectors, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed nodes %d-%d: %w", start, end, err)
		}

		objects := make([]VectorObject, len(batch))
		for i, n := range batch {
			objects[i] = VectorObject{
				Vector: vectors[i],
				Properties: map[string]interface{}{
					propText:   n.Text,
					propKind:   string(n.Kind),
					propSource: n.Source,
				},
			}
		}
		if err := c.sdk.BatchAddVectors(ctx, className, objects); err != nil {
			return err
		}
	}

	log.Info("built weaviate course index", "class", className, "nodes", len(nodes))
	return nil
}

// Retriever returns a retriever over one collection.
func (c *CourseIndex) Retriever(collection string) coursematerial.Retriever {
	return &courseRetriever{index: c, className: ClassName(collection)}
}

type courseRetriever struct {
	index     *CourseIndex
	className string
}

func (r *courseRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	vectors, err := r.index.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var results []QueryResult
	if r.index.alpha >= 1 {
		results, err = r.index.sdk.QueryVectors(ctx, r.className, vectors[0], []string{propText}, k)
	} else {
		cfg := DefaultHybridConfig(query)
		cfg.Alpha = r.index.alpha
		cfg.Fields = []string{propText}
		cfg.Limit = k
		results, err = r.index.sdk.QueryHybrid(ctx, r.className, vectors[0], cfg)
	}
	if err != nil {
		return nil, err
	}

	return Texts(results), nil
}

// Texts returns the text property of each result.
func Texts(results []QueryResult) []string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		if s, ok := r.Properties[propText].(string); ok {
			texts = append(texts, s)
		}
	}
	return texts
}
