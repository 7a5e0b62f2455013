// internal/dashboard/posting-submission/workflow.go
package postingsubmission

import (
	"context"
	"sync"
	"time"

	"skillmatch/internal/backend"
	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/common/metrics"
	"skillmatch/internal/models"
)

type ProfileResolver interface {
	Resolve(ctx context.Context, identity models.Identity) (*models.CompanyProfile, error)
}

type Poster interface {
	SubmitPosting(ctx context.Context, posting backend.PostingRequest) (int, error)
}

// Resyncer reloads the posting snapshot after a successful submission.
type Resyncer interface {
	Resync(ctx context.Context) error
}

// Receipt describes an accepted posting.
type Receipt struct {
	CompanyName  string
	CompanyEmail string
	Role         string
	HiringType   models.HiringType
	WorkMode     models.WorkMode
	MatchCount   int
}

type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, receipt Receipt) error
}

type Result struct {
	MatchCount int `json:"matchCount"`
}

// Workflow submits postings for the signed-in company. It holds the draft
// form, which is reset to DefaultForm after every accepted submission.
type Workflow struct {
	resolver ProfileResolver
	poster   Poster
	resyncer Resyncer
	notifier ReceiptNotifier
	logger   logger.Logger

	mu      sync.Mutex
	form    Form
	pending sync.WaitGroup
}

type Option func(*Workflow)

func WithReceiptNotifier(n ReceiptNotifier) Option {
	return func(w *Workflow) { w.notifier = n }
}

func New(resolver ProfileResolver, poster Poster, resyncer Resyncer, log logger.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		resolver: resolver,
		poster:   poster,
		resyncer: resyncer,
		logger:   log.WithFields(map[string]interface{}{"component": "posting-submission"}),
		form:     DefaultForm(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Form returns the current draft.
func (w *Workflow) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

func (w *Workflow) SetForm(f Form) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form = f
}

func (w *Workflow) Reset() {
	w.SetForm(DefaultForm())
}

// Submit validates form, resolves the company profile and posts it to the
// matching backend. On success the draft is reset and exactly one resync is
// started in the background; Submit does not wait for it. On failure the
// draft keeps the submitted values and nothing else changes.
func (w *Workflow) Submit(ctx context.Context, identity models.Identity, form Form) (Result, error) {
	start := time.Now()
	w.SetForm(form)

	result, receipt, err := w.submit(ctx, identity, form)
	if err != nil {
		code := errors.CodeOf(err)
		metrics.SubmissionsTotal.WithLabelValues("error", string(code)).Inc()
		w.logger.Warn("posting submission failed", map[string]interface{}{
			"errorCode":  string(code),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return Result{}, err
	}

	metrics.SubmissionsTotal.WithLabelValues("ok", "").Inc()
	w.logger.Info("posting submitted", map[string]interface{}{
		"company":    receipt.CompanyName,
		"matchCount": result.MatchCount,
		"durationMs": time.Since(start).Milliseconds(),
	})

	w.Reset()
	w.afterSubmit(context.WithoutCancel(ctx), receipt)
	return result, nil
}

func (w *Workflow) submit(ctx context.Context, identity models.Identity, form Form) (Result, Receipt, error) {
	if identity.Email == "" {
		return Result{}, Receipt{}, errors.NewAuthNotReadyError()
	}

	posting, err := form.Validate()
	if err != nil {
		return Result{}, Receipt{}, err
	}

	profile, err := w.resolver.Resolve(ctx, identity)
	if err != nil {
		return Result{}, Receipt{}, err
	}

	email := profile.Email
	if email == "" {
		email = identity.Email
	}

	matches, err := w.poster.SubmitPosting(ctx, backend.PostingRequest{
		CompanyName:    profile.Name,
		CompanyEmail:   email,
		JobDescription: posting.Description,
		HiringType:     string(posting.HiringType),
		WorkMode:       string(posting.WorkMode),
		JobRole:        posting.Role,
	})
	if err != nil {
		return Result{}, Receipt{}, err
	}

	receipt := Receipt{
		CompanyName:  profile.Name,
		CompanyEmail: email,
		Role:         posting.Role,
		HiringType:   posting.HiringType,
		WorkMode:     posting.WorkMode,
		MatchCount:   matches,
	}
	return Result{MatchCount: matches}, receipt, nil
}

func (w *Workflow) afterSubmit(ctx context.Context, receipt Receipt) {
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()

		if err := w.resyncer.Resync(ctx); err != nil {
			w.logger.Warn("post-submission resync failed", map[string]interface{}{
				"errorCode": string(errors.CodeOf(err)),
			})
		}

		if w.notifier == nil {
			return
		}
		if err := w.notifier.SendReceipt(ctx, receipt); err != nil {
			w.logger.Warn("submission receipt not sent", map[string]interface{}{
				"company": receipt.CompanyName,
				"error":   err,
			})
		}
	}()
}

// Wait blocks until background work started by earlier submissions is done.
func (w *Workflow) Wait() {
	w.pending.Wait()
}
