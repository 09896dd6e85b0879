// Package elastic keeps course material in Elasticsearch for keyword (BM25)
// retrieval.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"examgrader/src/core/coursematerial"
	"examgrader/src/log"
)

const mapping = `{"mappings":{"properties":{` +
	`"text":{"type":"text"},` +
	`"kind":{"type":"keyword"},` +
	`"source":{"type":"keyword"}}}}`

var invalidIndexChars = regexp.MustCompile(`[^a-z0-9_-]`)

type document struct {
	Text   string `json:"text"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

func NewClient(addresses ...string) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return es, nil
}

// IndexName maps a course material collection to a valid index name.
func IndexName(collection string) string {
	return "course-" + invalidIndexChars.ReplaceAllString(strings.ToLower(collection), "_")
}

type CourseIndex struct {
	es *elasticsearch.Client
}

func NewCourseIndex(es *elasticsearch.Client) *CourseIndex {
	return &CourseIndex{es: es}
}

// Build replaces the index of collection with nodes.
func (c *CourseIndex) Build(ctx context.Context, collection string, nodes []coursematerial.Node) error {
	index := IndexName(collection)

	res, err := c.es.Indices.Delete([]string{index},
		c.es.Indices.Delete.WithContext(ctx),
		c.es.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete index: %s", res.Status())
	}

	res, err = c.es.Indices.Create(index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err := check(res, err, "create index"); err != nil {
		return err
	}
	res.Body.Close()

	if len(nodes) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, n := range nodes {
		meta := map[string]map[string]string{"index": {"_id": n.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(document{Text: n.Text, Kind: string(n.Kind), Source: n.Source}); err != nil {
			return err
		}
	}

	res, err = c.es.Bulk(&body,
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(index),
		c.es.Bulk.WithRefresh("true"),
	)
	if err := check(res, err, "bulk index"); err != nil {
		return err
	}
	defer res.Body.Close()

	var bulk struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if bulk.Errors {
		return fmt.Errorf("bulk index into %s reported item errors", index)
	}

	log.Info("built elasticsearch course index", "index", index, "nodes", len(nodes))
	return nil
}

func (c *CourseIndex) Retriever(collection string) coursematerial.Retriever {
	return &retriever{es: c.es, index: IndexName(collection)}
}

type retriever struct {
	es    *elasticsearch.Client
	index string
}

func (r *retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{"text": query},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(bytes.NewReader(body)),
		r.es.Search.WithSize(k),
	)
	if err := check(res, err, "search"); err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var result struct {
		Hits struct {
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	texts := make([]string, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		texts = append(texts, hit.Source.Text)
	}
	return texts, nil
}

// check turns transport and HTTP errors into one error. Successful bodies are
// left open for the caller.
func check(res *esapi.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if res.IsError() {
		defer res.Body.Close()
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("failed to %s: %s: %s", op, res.Status(), strings.TrimSpace(string(msg)))
	}
	return nil
}
