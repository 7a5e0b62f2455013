// internal/dashboard/posting-store/store.go
package postingstore

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/common/metrics"
	aggregatestats "skillmatch/internal/dashboard/aggregate-stats"
	"skillmatch/internal/documents"
	"skillmatch/internal/models"
)

type ProfileResolver interface {
	Resolve(ctx context.Context, identity models.Identity) (*models.CompanyProfile, error)
}

// Outcome of a single resync.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeFailed     Outcome = "failed"
)

// Store is the in-memory snapshot of the signed-in company's postings.
// It is replaced wholesale by each resync and never partially updated.
type Store struct {
	resolver ProfileResolver
	docs     documents.Store
	logger   logger.Logger

	mu         sync.RWMutex
	generation uint64
	sealed     bool
	postings   []models.JobPosting
	stats      models.CompanyStats
	company    string
	syncedAt   time.Time
}

func New(resolver ProfileResolver, docs documents.Store, log logger.Logger) *Store {
	return &Store{
		resolver: resolver,
		docs:     docs,
		logger:   log.WithFields(map[string]interface{}{"component": "posting-store"}),
	}
}

// Resync reloads the snapshot for identity. Only the most recently started
// resync may commit; an older one finishing later is discarded and reports
// OutcomeSuperseded with a nil error.
//
// An unauthenticated identity yields an empty snapshot without error. A
// missing profile yields an empty snapshot and the ProfileNotFound error.
// Any other failure leaves the previous snapshot in place.
func (s *Store) Resync(ctx context.Context, identity models.Identity) (Outcome, error) {
	start := time.Now()
	gen, ok := s.begin()
	if !ok {
		return OutcomeSuperseded, nil
	}

	postings, company, err := s.load(ctx, identity)

	outcome := s.commit(gen, postings, company, err)
	metrics.ResyncsCompleted.WithLabelValues(string(outcome)).Inc()
	metrics.ResyncDuration.Observe(time.Since(start).Seconds())

	fields := map[string]interface{}{
		"generation": gen,
		"outcome":    string(outcome),
		"durationMs": time.Since(start).Milliseconds(),
	}
	switch {
	case outcome == OutcomeSuperseded:
		s.logger.Debug("resync superseded", fields)
		return outcome, nil
	case err != nil && errors.IsCode(err, errors.ErrCodeAuthNotReady):
		s.logger.Debug("resync skipped, session not ready", fields)
		return outcome, nil
	case err != nil:
		fields["errorCode"] = string(errors.CodeOf(err))
		s.logger.Warn("resync did not load postings", fields)
		return outcome, err
	}

	fields["postings"] = len(postings)
	s.logger.Info("resync applied", fields)
	return outcome, nil
}

func (s *Store) begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return 0, false
	}
	s.generation++
	return s.generation, true
}

// commit applies a finished load if gen is still current.
func (s *Store) commit(gen uint64, postings []models.JobPosting, company string, err error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed || gen != s.generation {
		return OutcomeSuperseded
	}

	outcome := OutcomeApplied
	switch {
	case err == nil:
	case errors.IsCode(err, errors.ErrCodeAuthNotReady):
		postings, company = nil, ""
	case errors.IsCode(err, errors.ErrCodeProfileNotFound):
		postings, company = nil, ""
		outcome = OutcomeFailed
	default:
		return OutcomeFailed
	}

	s.postings = postings
	s.stats = aggregatestats.ComputeStats(postings)
	s.company = company
	s.syncedAt = time.Now().UTC()
	metrics.PostingsLoaded.Set(float64(len(postings)))
	return outcome
}

func (s *Store) load(ctx context.Context, identity models.Identity) ([]models.JobPosting, string, error) {
	if identity.Email == "" {
		return nil, "", errors.NewAuthNotReadyError()
	}

	profile, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, "", err
	}

	doc, err := s.docs.Get(ctx, documents.CollectionCompanies, profile.Name)
	if stderrors.Is(err, documents.ErrNotFound) {
		return []models.JobPosting{}, profile.Name, nil
	}
	if err != nil {
		return nil, "", err
	}

	var posting models.JobPosting
	if err := documents.Decode(doc, &posting); err != nil {
		return nil, "", err
	}
	if posting.CompanyName == "" {
		posting.CompanyName = profile.Name
	}
	return []models.JobPosting{posting}, profile.Name, nil
}

// Clear empties the store and invalidates any resync still in flight.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Seal clears the store for good. Resyncs started afterwards, or still in
// flight, never commit.
func (s *Store) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
	s.reset()
}

func (s *Store) reset() {
	s.generation++
	s.postings = nil
	s.stats = models.CompanyStats{}
	s.company = ""
	s.syncedAt = time.Time{}
	metrics.PostingsLoaded.Set(0)
}

// Snapshot returns a deep copy of the current postings.
func (s *Store) Snapshot() []models.JobPosting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.JobPosting, len(s.postings))
	for i, p := range s.postings {
		out[i] = p.Clone()
	}
	return out
}

func (s *Store) Stats() models.CompanyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Company returns the company the snapshot was loaded for, or "".
func (s *Store) Company() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.company
}

func (s *Store) SyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncedAt
}
