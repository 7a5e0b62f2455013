// internal/dashboard/candidate-search/session.go
package candidatesearch

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/common/metrics"
	"skillmatch/internal/models"
)

type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// DefaultFailureMessage is shown when the backend gave no message of its own.
const DefaultFailureMessage = "search failed"

// ErrSuperseded is returned to a caller whose query was replaced by a newer
// one before its response arrived.
var ErrSuperseded = stderrors.New("search superseded by a newer query")

type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// Snapshot is a copy of the session state for display.
type Snapshot struct {
	State       State                 `json:"state"`
	Query       string                `json:"query"`
	Results     []models.SearchResult `json:"results"`
	LastResults []models.SearchResult `json:"lastResults,omitempty"`
	Error       string                `json:"error,omitempty"`
	ErrorCode   errors.ErrorCode      `json:"errorCode,omitempty"`
	Sequence    uint64                `json:"sequence"`
}

// Session is a single keyword search session. Each submitted query takes the
// next sequence number and only the response carrying the latest number may
// change state.
type Session struct {
	searcher Searcher
	logger   logger.Logger

	mu          sync.Mutex
	seq         uint64
	state       State
	query       string
	results     []models.SearchResult
	lastResults []models.SearchResult
	errMsg      string
	errCode     errors.ErrorCode
}

func New(searcher Searcher, log logger.Logger) *Session {
	return &Session{
		searcher: searcher,
		logger:   log.WithFields(map[string]interface{}{"component": "candidate-search"}),
		state:    StateIdle,
	}
}

// Submit runs query and blocks until its response arrives. A blank query is
// rejected with a ValidationError before any request is issued.
func (s *Session) Submit(ctx context.Context, query string) (Snapshot, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		metrics.SearchRequests.WithLabelValues("rejected").Inc()
		return s.Snapshot(), errors.NewValidationError("query", "Enter a search query")
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = StateSearching
	s.query = query
	s.results = nil
	s.errMsg = ""
	s.errCode = ""
	s.mu.Unlock()

	start := time.Now()
	results, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	fields := map[string]interface{}{
		"sequence":   seq,
		"durationMs": time.Since(start).Milliseconds(),
	}

	if seq != s.seq {
		metrics.StaleSearchResponses.Inc()
		metrics.SearchRequests.WithLabelValues("superseded").Inc()
		s.logger.Debug("discarding superseded search response", fields)
		return s.snapshotLocked(), ErrSuperseded
	}

	if err != nil {
		s.state = StateFailed
		s.errMsg = failureMessage(err)
		s.errCode = errors.CodeOf(err)
		metrics.SearchRequests.WithLabelValues("failed").Inc()
		fields["errorCode"] = string(s.errCode)
		s.logger.Warn("candidate search failed", fields)
		return s.snapshotLocked(), err
	}

	if results == nil {
		results = []models.SearchResult{}
	}
	s.state = StateSucceeded
	s.results = copyResults(results)
	s.lastResults = s.results
	metrics.SearchRequests.WithLabelValues("succeeded").Inc()
	fields["results"] = len(results)
	s.logger.Info("candidate search completed", fields)
	return s.snapshotLocked(), nil
}

// Close clears the query and any results or error, and invalidates a request
// still in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = StateIdle
	s.query = ""
	s.results = nil
	s.lastResults = nil
	s.errMsg = ""
	s.errCode = ""
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:       s.state,
		Query:       s.query,
		Results:     copyResults(s.results),
		LastResults: copyResults(s.lastResults),
		Error:       s.errMsg,
		ErrorCode:   s.errCode,
		Sequence:    s.seq,
	}
}

func failureMessage(err error) string {
	if msg := errors.ServerMessage(err); msg != "" {
		return msg
	}
	return DefaultFailureMessage
}

// copyResults keeps nil as nil and empty as empty.
func copyResults(in []models.SearchResult) []models.SearchResult {
	if in == nil {
		return nil
	}
	out := make([]models.SearchResult, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
