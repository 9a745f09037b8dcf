// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const ChaptersIndexName = "chapters"

// defineChaptersMapping returns the JSON string for the chapters index mapping.
func defineChaptersMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"title":            map[string]interface{}{"type": "text"},
				"slug":             map[string]interface{}{"type": "keyword"},
				"path":             map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 512}}},
				"number":           map[string]interface{}{"type": "integer"},
				"guide_id":         map[string]interface{}{"type": "keyword"},
				"guide_slug":       map[string]interface{}{"type": "keyword"},
				"guide_title":      map[string]interface{}{"type": "text"},
				"word_count":       map[string]interface{}{"type": "integer"},
				"link_count":       map[string]interface{}{"type": "integer"},
				"code_fence_count": map[string]interface{}{"type": "integer"},
				"updated_at":       map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling chapters mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateChaptersIndexIfNotExists creates the chapters index with the defined
// mapping when it does not exist yet.
func CreateChaptersIndexIfNotExists(es *ESClientWrapper, logger *zap.Logger) error {
	if es == nil {
		return nil
	}

	existsRes, err := esapi.IndicesExistsRequest{Index: []string{ChaptersIndexName}}.Do(context.Background(), es.Client)
	if err != nil {
		return fmt.Errorf("checking chapters index existence: %w", err)
	}
	defer existsRes.Body.Close()

	if existsRes.StatusCode == http.StatusOK {
		logger.Debug("Chapters index already exists", zap.String("index", ChaptersIndexName))
		return nil
	}
	if existsRes.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking chapters index: %s", existsRes.Status())
	}

	mapping, err := defineChaptersMapping()
	if err != nil {
		return err
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: ChaptersIndexName,
		Body:  strings.NewReader(mapping),
	}.Do(context.Background(), es.Client)
	if err != nil {
		return fmt.Errorf("creating chapters index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("chapters index creation returned an error: %s", createRes.Status())
	}

	logger.Info("Created Elasticsearch chapters index", zap.String("index", ChaptersIndexName))
	return nil
}
