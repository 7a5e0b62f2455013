// Package backend talks to the matching backend: posting submission,
// résumé keyword search and résumé upload.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"skillmatch/internal/common/errors"
	commonhttp "skillmatch/internal/common/http"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/common/metrics"
	"skillmatch/internal/common/validation"
	"skillmatch/internal/models"
)

const serviceName = "matching backend"

// Searcher answers candidate keyword queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// PostingRequest is the POST /company body.
type PostingRequest struct {
	CompanyName    string `json:"company_name"`
	CompanyEmail   string `json:"company_email"`
	JobDescription string `json:"job_description"`
	HiringType     string `json:"hiring_type"`
	WorkMode       string `json:"work_mode"`
	JobRole        string `json:"job_role"`
}

type UploadRequest struct {
	Filename  string
	File      io.Reader
	UserID    string
	UserEmail string
}

type UploadResponse struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	PDFURL     string `json:"pdf_url"`
}

type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg *Config, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "backend-client"}),
	}
}

// SubmitPosting sends a posting and returns the number of candidates the
// backend matched to it.
func (c *Client) SubmitPosting(ctx context.Context, posting PostingRequest) (int, error) {
	body, err := json.Marshal(posting)
	if err != nil {
		return 0, fmt.Errorf("encode posting: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.endpoint(c.config.CompanyPath), bytes.NewReader(body))
	if err != nil {
		return 0, errors.NewNetworkFailureError(serviceName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(ctx, "company", req, companyResponseSchema)
	if err != nil {
		return 0, err
	}

	var parsed struct {
		TotalMatches int `json:"total_matches"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, errors.NewMalformedResponseError(serviceName, err)
	}

	c.logger.Info("posting submitted", map[string]interface{}{
		"companyName":  posting.CompanyName,
		"totalMatches": parsed.TotalMatches,
	})
	return parsed.TotalMatches, nil
}

// Search implements Searcher over GET /search_resumes.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	u := c.endpoint(c.config.SearchPath) + "?" + url.Values{"query": {query}}.Encode()
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.NewNetworkFailureError(serviceName, err)
	}

	raw, err := c.do(ctx, "search_resumes", req, searchResponseSchema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		MatchingResumes []models.SearchResult `json:"matching_resumes"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewMalformedResponseError(serviceName, err)
	}
	if parsed.MatchingResumes == nil {
		parsed.MatchingResumes = []models.SearchResult{}
	}
	return parsed.MatchingResumes, nil
}

// UploadResume posts a résumé PDF as multipart form data.
func (c *Client) UploadResume(ctx context.Context, upload UploadRequest) (*UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", upload.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, upload.File); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.WriteField("userId", upload.UserID); err != nil {
		return nil, fmt.Errorf("write userId: %w", err)
	}
	if err := mw.WriteField("userEmail", upload.UserEmail); err != nil {
		return nil, fmt.Errorf("write userEmail: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint(c.config.UploadPath), &buf)
	if err != nil {
		return nil, errors.NewNetworkFailureError(serviceName, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	raw, err := c.do(ctx, "upload", req, uploadResponseSchema)
	if err != nil {
		return nil, err
	}

	var parsed UploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewMalformedResponseError(serviceName, err)
	}
	return &parsed, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// do sends req and classifies the outcome into the dashboard error taxonomy.
// The returned body has been checked against schema.
func (c *Client) do(ctx context.Context, endpoint string, req *http.Request, schema *validation.Schema) ([]byte, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		c.logger.Warn("backend request failed", map[string]interface{}{"endpoint": endpoint, "error": err})
		return nil, errors.NewNetworkFailureError(serviceName, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkFailureError(serviceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewServerError(serviceName, resp.StatusCode, serverMessage(body)).
			WithMetadata("endpoint", endpoint)
	}

	result, err := schema.ValidateBytes(body)
	if err != nil {
		return nil, errors.NewMalformedResponseError(serviceName, err).WithMetadata("endpoint", endpoint)
	}
	if !result.Valid {
		return nil, errors.NewMalformedResponseError(serviceName, fmt.Errorf("%s", result.FirstMessage())).
			WithMetadata("endpoint", endpoint)
	}
	return body, nil
}

// serverMessage extracts {"error": ...} or {"message": ...} from an error body.
func serverMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}
