// internal/backend/elasticsearch.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const esServiceName = "résumé index"

// ElasticsearchSearcher answers keyword queries directly from the résumé
// index. Relevance is rescaled so the best hit scores 100.
type ElasticsearchSearcher struct {
	client  *elasticsearch.Client
	index   string
	maxHits int
	logger  logger.Logger
}

func NewElasticsearchSearcher(client *elasticsearch.Client, index string, maxHits int, log logger.Logger) *ElasticsearchSearcher {
	if maxHits < 1 || maxHits > 100 {
		maxHits = 20
	}
	return &ElasticsearchSearcher{
		client:  client,
		index:   index,
		maxHits: maxHits,
		logger:  log.WithFields(map[string]interface{}{"component": "es-searcher", "index": index}),
	}
}

func buildResumeQuery(query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query": query,
				"fields": []string{
					"skills^3",
					"work_experience^2",
					"projects^2",
					"certifications",
					"education",
					"personal_info.name",
				},
				"type": "best_fields",
			},
		},
	}
}

func (s *ElasticsearchSearcher) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	body, err := json.Marshal(buildResumeQuery(query))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	size := s.maxHits
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewNetworkFailureError(esServiceName, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.NewNetworkFailureError(esServiceName, err)
	}
	if res.IsError() {
		return nil, errors.NewServerError(esServiceName, res.StatusCode, esErrorReason(raw))
	}

	var parsed struct {
		Hits *struct {
			MaxScore *float64 `json:"max_score"`
			Hits     []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewMalformedResponseError(esServiceName, err)
	}
	if parsed.Hits == nil {
		return nil, errors.NewMalformedResponseError(esServiceName, fmt.Errorf("response has no hits"))
	}

	maxScore := 0.0
	if parsed.Hits.MaxScore != nil {
		maxScore = *parsed.Hits.MaxScore
	}

	results := make([]models.SearchResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var r models.SearchResult
		if err := json.Unmarshal(hit.Source, &r); err != nil {
			return nil, errors.NewMalformedResponseError(esServiceName, fmt.Errorf("hit %s: %w", hit.ID, err))
		}
		if r.DocumentID == "" {
			r.DocumentID = hit.ID
		}
		r.MatchScore = relativeScore(hit.Score, maxScore)
		results = append(results, r)
	}

	s.logger.Debug("index search completed", map[string]interface{}{"query": query, "hits": len(results)})
	return results, nil
}

func relativeScore(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(score/maxScore*1000) / 10
}

func esErrorReason(body []byte) string {
	var parsed struct {
		Error struct {
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	return parsed.Error.Reason
}
