// File: internal/guide/esutil.go
package guide

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	platformES "guidecheck_backend/internal/platform/elasticsearch"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// chapterDoc is the Elasticsearch document shape for a chapter.
type chapterDoc struct {
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Path           string `json:"path"`
	Number         int    `json:"number"`
	GuideID        string `json:"guide_id"`
	GuideSlug      string `json:"guide_slug,omitempty"`
	GuideTitle     string `json:"guide_title,omitempty"`
	WordCount      int    `json:"word_count"`
	LinkCount      int    `json:"link_count"`
	CodeFenceCount int    `json:"code_fence_count"`
	UpdatedAt      string `json:"updated_at"`
}

// ChapterToElasticsearchDoc converts a chapter into its index document JSON.
func ChapterToElasticsearchDoc(ch *Chapter) (string, error) {
	doc := chapterDoc{
		Title:          ch.Title,
		Slug:           ch.Slug,
		Path:           ch.Path,
		Number:         ch.Number,
		GuideID:        ch.GuideID.String(),
		WordCount:      ch.WordCount,
		LinkCount:      ch.LinkCount,
		CodeFenceCount: ch.CodeFenceCount,
		UpdatedAt:      ch.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if ch.Guide != nil {
		doc.GuideSlug = ch.Guide.Slug
		doc.GuideTitle = ch.Guide.Title
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshalling chapter %s for indexing: %w", ch.ID, err)
	}
	return string(docJSON), nil
}

// BulkIndexChapters sends all chapters to the chapters index in one bulk
// request. Returns the number of failed documents.
func BulkIndexChapters(ctx context.Context, es *platformES.ESClientWrapper, guides []Guide, logger *zap.Logger) (int, error) {
	if es == nil {
		return 0, nil
	}

	var body strings.Builder
	docCount := 0
	failed := 0

	for gi := range guides {
		g := &guides[gi]
		for ci := range g.Chapters {
			ch := &g.Chapters[ci]
			if ch.Guide == nil {
				ch.Guide = g
			}
			docJSON, err := ChapterToElasticsearchDoc(ch)
			if err != nil {
				logger.Error("Failed to convert chapter to Elasticsearch document",
					zap.String("chapterID", ch.ID.String()), zap.Error(err))
				failed++
				continue
			}
			action := fmt.Sprintf(`{ "index" : { "_index" : "%s", "_id" : "%s" } }%s`,
				platformES.ChaptersIndexName, ch.ID.String(), "\n")
			body.WriteString(action)
			body.WriteString(docJSON)
			body.WriteString("\n")
			docCount++
		}
	}

	if docCount == 0 {
		return failed, nil
	}

	res, err := esapi.BulkRequest{
		Index: platformES.ChaptersIndexName,
		Body:  strings.NewReader(body.String()),
	}.Do(ctx, es.Client)
	if err != nil {
		return failed + docCount, fmt.Errorf("sending bulk chapter index request: %w", err)
	}
	defer res.Body.Close()

	var bulkResponse struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string                 `json:"_id"`
				Status int                    `json:"status"`
				Error  map[string]interface{} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
		return failed + docCount, fmt.Errorf("parsing bulk chapter index response: %w", err)
	}
	if bulkResponse.Errors {
		for _, item := range bulkResponse.Items {
			if item.Index.Error != nil {
				logger.Error("Failed to index chapter document",
					zap.String("chapterID", item.Index.ID),
					zap.Int("status", item.Index.Status),
					zap.Any("error", item.Index.Error))
				failed++
			}
		}
	}
	return failed, nil
}

// searchChapterIDs queries the chapters index and returns matching chapter
// IDs in relevance order plus the total hit count.
func searchChapterIDs(ctx context.Context, es *platformES.ESClientWrapper, query string, from, size int) ([]uuid.UUID, int64, error) {
	searchBody := map[string]interface{}{
		"from": from,
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "guide_title", "path", "slug"},
			},
		},
	}
	bodyBytes, err := json.Marshal(searchBody)
	if err != nil {
		return nil, 0, fmt.Errorf("marshalling chapter search query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{platformES.ChaptersIndexName},
		Body:  bytes.NewReader(bodyBytes),
	}.Do(ctx, es.Client)
	if err != nil {
		return nil, 0, fmt.Errorf("chapter search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("chapter search returned an error: %s", res.Status())
	}

	var searchResponse struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResponse); err != nil {
		return nil, 0, fmt.Errorf("parsing chapter search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(searchResponse.Hits.Hits))
	for _, hit := range searchResponse.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, searchResponse.Hits.Total.Value, nil
}
