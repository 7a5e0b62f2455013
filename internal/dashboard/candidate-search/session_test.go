package candidatesearch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type reply struct {
	results []models.SearchResult
	err     error
}

// scriptedSearcher answers each query from replies. A query with a gate
// blocks until the gate is closed.
type scriptedSearcher struct {
	mu      sync.Mutex
	replies map[string]reply
	gates   map[string]chan struct{}
	started chan string
	calls   int32
}

func newScriptedSearcher() *scriptedSearcher {
	return &scriptedSearcher{
		replies: map[string]reply{},
		gates:   map[string]chan struct{}{},
	}
}

func (f *scriptedSearcher) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	gate := f.gates[query]
	r := f.replies[query]
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- query
	}
	if gate != nil {
		<-gate
	}
	return r.results, r.err
}

func candidate(id string, score float64) models.SearchResult {
	return models.SearchResult{
		DocumentID:   id,
		MatchScore:   score,
		PersonalInfo: models.PersonalInfo{Name: "Candidate " + id},
	}
}

// ==========================
// Submit
// ==========================

func TestSession_Submit_Success(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.replies["golang"] = reply{results: []models.SearchResult{candidate("a", 91), candidate("b", 77)}}
	session := New(searcher, logger.NewTestLogger(t))

	snap, err := session.Submit(context.Background(), "  golang ")
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, "golang", snap.Query)
	require.Len(t, snap.Results, 2)
	assert.Equal(t, "a", snap.Results[0].DocumentID)
	assert.Equal(t, "b", snap.Results[1].DocumentID)
	assert.Empty(t, snap.Error)
}

func TestSession_Submit_EmptyResultIsSuccess(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.replies["cobol"] = reply{results: []models.SearchResult{}}
	session := New(searcher, logger.NewTestLogger(t))

	snap, err := session.Submit(context.Background(), "cobol")
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)
	require.NotNil(t, snap.Results)
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.Error)
}

func TestSession_Submit_BlankQueryIsRejected(t *testing.T) {
	for _, query := range []string{"", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", query), func(t *testing.T) {
			searcher := newScriptedSearcher()
			searcher.replies["rust"] = reply{results: []models.SearchResult{candidate("r", 50)}}
			session := New(searcher, logger.NewTestLogger(t))
			_, err := session.Submit(context.Background(), "rust")
			require.NoError(t, err)
			before := session.Snapshot()

			snap, err := session.Submit(context.Background(), query)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
			assert.Equal(t, before, snap)
			assert.Equal(t, before, session.Snapshot())
			assert.Equal(t, int32(1), atomic.LoadInt32(&searcher.calls))
		})
	}
}

func TestSession_Submit_FailureMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantCode    errors.ErrorCode
	}{
		{
			name:        "server message",
			err:         errors.NewServerError("matching backend", 400, "Query too long"),
			wantMessage: "Query too long",
			wantCode:    errors.ErrCodeServerError,
		},
		{
			name:        "server error without body",
			err:         errors.NewServerError("matching backend", 502, ""),
			wantMessage: DefaultFailureMessage,
			wantCode:    errors.ErrCodeServerError,
		},
		{
			name:        "network failure",
			err:         errors.NewNetworkFailureError("matching backend", fmt.Errorf("connection reset")),
			wantMessage: DefaultFailureMessage,
			wantCode:    errors.ErrCodeNetworkFailure,
		},
		{
			name:        "malformed body",
			err:         errors.NewMalformedResponseError("matching backend", fmt.Errorf("matching_resumes is required")),
			wantMessage: DefaultFailureMessage,
			wantCode:    errors.ErrCodeMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := newScriptedSearcher()
			searcher.replies["java"] = reply{err: tt.err}
			session := New(searcher, logger.NewTestLogger(t))

			snap, err := session.Submit(context.Background(), "java")
			require.Error(t, err)
			assert.Equal(t, StateFailed, snap.State)
			assert.Equal(t, tt.wantMessage, snap.Error)
			assert.Equal(t, tt.wantCode, snap.ErrorCode)
			assert.Nil(t, snap.Results)
		})
	}
}

func TestSession_Submit_FailureKeepsLastResults(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.replies["python"] = reply{results: []models.SearchResult{candidate("p", 88)}}
	searcher.replies["perl"] = reply{err: errors.NewServerError("matching backend", 500, "")}
	session := New(searcher, logger.NewTestLogger(t))

	_, err := session.Submit(context.Background(), "python")
	require.NoError(t, err)
	snap, err := session.Submit(context.Background(), "perl")
	require.Error(t, err)

	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "perl", snap.Query)
	require.Len(t, snap.LastResults, 1)
	assert.Equal(t, "p", snap.LastResults[0].DocumentID)
}

// ==========================
// Ordering
// ==========================

func TestSession_StaleResponseIsIgnored(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.replies["first"] = reply{results: []models.SearchResult{candidate("old", 10)}}
	searcher.replies["second"] = reply{results: []models.SearchResult{candidate("new", 90)}}
	gate := make(chan struct{})
	searcher.gates["first"] = gate
	searcher.started = make(chan string, 2)
	session := New(searcher, logger.NewTestLogger(t))

	type result struct {
		snap Snapshot
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		snap, err := session.Submit(context.Background(), "first")
		firstDone <- result{snap, err}
	}()
	require.Equal(t, "first", <-searcher.started)

	snap, err := session.Submit(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)

	close(gate)
	stale := <-firstDone
	assert.ErrorIs(t, stale.err, ErrSuperseded)

	final := session.Snapshot()
	assert.Equal(t, StateSucceeded, final.State)
	assert.Equal(t, "second", final.Query)
	require.Len(t, final.Results, 1)
	assert.Equal(t, "new", final.Results[0].DocumentID)
}

func TestSession_Close_ClearsStateAndInvalidatesInFlight(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.replies["slow"] = reply{results: []models.SearchResult{candidate("s", 60)}}
	gate := make(chan struct{})
	searcher.gates["slow"] = gate
	searcher.started = make(chan string, 1)
	session := New(searcher, logger.NewTestLogger(t))

	done := make(chan error, 1)
	go func() {
		_, err := session.Submit(context.Background(), "slow")
		done <- err
	}()
	<-searcher.started
	assert.Equal(t, StateSearching, session.Snapshot().State)

	session.Close()
	close(gate)
	assert.ErrorIs(t, <-done, ErrSuperseded)

	snap := session.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Query)
	assert.Nil(t, snap.Results)
	assert.Nil(t, snap.LastResults)
	assert.Empty(t, snap.Error)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.replies["go"] = reply{results: []models.SearchResult{candidate("g", 70)}}
	session := New(searcher, logger.NewTestLogger(t))

	snap, err := session.Submit(context.Background(), "go")
	require.NoError(t, err)
	snap.Results[0].MatchScore = 0

	assert.Equal(t, float64(70), session.Snapshot().Results[0].MatchScore)
}
