// internal/dashboard/dashboard.go
package dashboard

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	candidatesearch "skillmatch/internal/dashboard/candidate-search"
	postingstore "skillmatch/internal/dashboard/posting-store"
	postingsubmission "skillmatch/internal/dashboard/posting-submission"
	viewprojector "skillmatch/internal/dashboard/view-projector"
	"skillmatch/internal/documents"
	"skillmatch/internal/models"
	"skillmatch/internal/session"
)

const (
	OpResync = "resync"
	OpSearch = "search"
	OpSubmit = "submit"
	OpUpload = "upload"
)

// Deps are the collaborators a Dashboard is built from.
type Deps struct {
	Session   session.Provider
	Resolver  postingstore.ProfileResolver
	Documents documents.Store
	Poster    postingsubmission.Poster
	Searcher  candidatesearch.Searcher
	Notifier  postingsubmission.ReceiptNotifier // optional
}

// View is one rendering of the posting snapshot.
type View struct {
	Company  string               `json:"company"`
	Stats    models.CompanyStats  `json:"stats"`
	Postings []models.JobPosting  `json:"postings"`
	Filter   viewprojector.Filter `json:"filter"`
	SortBy   viewprojector.SortBy `json:"sortBy"`
	SyncedAt time.Time            `json:"syncedAt"`
}

// Dashboard owns the posting store and search session of one signed-in
// company and keeps them in step with the session.
type Dashboard struct {
	config  *Config
	session session.Provider
	store   *postingstore.Store
	search  *candidatesearch.Session
	submit  *postingsubmission.Workflow
	handler *errors.ErrorHandler
	logger  logger.Logger

	mu            sync.Mutex
	notifications []models.Notification
	started       bool
	closed        bool
	cancelSub     func()
	loopDone      chan struct{}
	background    sync.WaitGroup
}

func New(cfg *Config, deps Deps, log logger.Logger) *Dashboard {
	scoped := log.WithFields(map[string]interface{}{"component": "dashboard"})
	d := &Dashboard{
		config:  cfg,
		session: deps.Session,
		store:   postingstore.New(deps.Resolver, deps.Documents, log),
		search:  candidatesearch.New(deps.Searcher, log),
		handler: errors.NewErrorHandler(scoped),
		logger:  scoped,
	}

	var opts []postingsubmission.Option
	if deps.Notifier != nil {
		opts = append(opts, postingsubmission.WithReceiptNotifier(deps.Notifier))
	}
	d.submit = postingsubmission.New(deps.Resolver, deps.Poster, d, log, opts...)
	return d
}

// ==========================
// Lifecycle
// ==========================

// Start subscribes to session transitions. If a session is already signed in
// its postings are loaded in the background.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started || d.closed {
		d.mu.Unlock()
		return
	}
	d.started = true
	events, cancel := d.session.Subscribe()
	d.cancelSub = cancel
	d.loopDone = make(chan struct{})
	d.mu.Unlock()

	if identity, ok := d.session.Current(); ok {
		d.resyncInBackground(ctx, identity)
	}

	go d.run(ctx, events)
}

func (d *Dashboard) run(ctx context.Context, events <-chan session.Event) {
	defer close(d.loopDone)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.handleEvent(ctx, ev)
		}
	}
}

func (d *Dashboard) handleEvent(ctx context.Context, ev session.Event) {
	d.logger.Debug("session event", map[string]interface{}{"kind": string(ev.Kind)})
	switch ev.Kind {
	case session.SignedIn:
		d.resyncInBackground(ctx, ev.Identity)
	case session.SignedOut:
		d.store.Clear()
		d.search.Close()
		d.submit.Reset()
		d.clearNotifications()
	}
}

func (d *Dashboard) resyncInBackground(ctx context.Context, identity models.Identity) {
	d.background.Add(1)
	go func() {
		defer d.background.Done()
		_ = d.resync(ctx, identity)
	}()
}

// Close releases the session subscription and waits for background work.
// No state changes are made after Close returns.
func (d *Dashboard) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	cancel, done := d.cancelSub, d.loopDone
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	d.store.Seal()
	d.search.Close()
	d.background.Wait()
	d.submit.Wait()
}

func (d *Dashboard) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// ==========================
// Postings
// ==========================

// Resync reloads the postings of the current session.
func (d *Dashboard) Resync(ctx context.Context) error {
	identity, _ := d.session.Current()
	return d.resync(ctx, identity)
}

func (d *Dashboard) resync(ctx context.Context, identity models.Identity) error {
	if d.isClosed() {
		return nil
	}
	if d.config.ResyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ResyncTimeout)
		defer cancel()
	}
	_, err := d.store.Resync(ctx, identity)
	if err != nil {
		d.report(OpResync, err)
	}
	return err
}

// View projects the snapshot with the configured defaults for empty values.
func (d *Dashboard) View(workMode, sortBy string) (View, error) {
	filter := d.config.DefaultFilter
	if workMode != "" {
		f, err := viewprojector.ParseFilter(workMode)
		if err != nil {
			return View{}, err
		}
		filter = f
	}
	order := d.config.DefaultSort
	if sortBy != "" {
		s, err := viewprojector.ParseSortBy(sortBy)
		if err != nil {
			return View{}, err
		}
		order = s
	}

	return View{
		Company:  d.store.Company(),
		Stats:    d.store.Stats(),
		Postings: viewprojector.Project(d.store.Snapshot(), filter, order),
		Filter:   filter,
		SortBy:   order,
		SyncedAt: d.store.SyncedAt(),
	}, nil
}

// ==========================
// Submission
// ==========================

func (d *Dashboard) Submit(ctx context.Context, form postingsubmission.Form) (postingsubmission.Result, error) {
	identity, _ := d.session.Current()
	result, err := d.submit.Submit(ctx, identity, form)
	if err != nil {
		d.report(OpSubmit, err)
	}
	return result, err
}

// Form returns the current posting draft.
func (d *Dashboard) Form() postingsubmission.Form {
	return d.submit.Form()
}

// WaitForBackground blocks until post-submission resyncs have finished.
func (d *Dashboard) WaitForBackground() {
	d.submit.Wait()
	d.background.Wait()
}

// ==========================
// Search
// ==========================

func (d *Dashboard) Search(ctx context.Context, query string) (candidatesearch.Snapshot, error) {
	if d.config.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.SearchTimeout)
		defer cancel()
	}
	snap, err := d.search.Submit(ctx, query)
	if err != nil && !stderrors.Is(err, candidatesearch.ErrSuperseded) {
		d.report(OpSearch, err)
	}
	return snap, err
}

func (d *Dashboard) SearchState() candidatesearch.Snapshot {
	return d.search.Snapshot()
}

func (d *Dashboard) CloseSearch() {
	d.search.Close()
}

// ==========================
// Notifications
// ==========================

// Report surfaces err as a notification for operation. AuthNotReady is
// never surfaced.
func (d *Dashboard) Report(operation string, err error) {
	d.report(operation, err)
}

func (d *Dashboard) report(operation string, err error) {
	stdErr := d.handler.Handle(operation, err)
	if stdErr == nil || stdErr.Code == errors.ErrCodeAuthNotReady {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.notifications = append(d.notifications, models.Notification{
		ID:        uuid.NewString(),
		Operation: operation,
		Code:      string(stdErr.Code),
		Message:   errors.UserMessage(stdErr),
		CreatedAt: time.Now().UTC(),
	})
	if limit := d.config.MaxNotifications; limit > 0 && len(d.notifications) > limit {
		d.notifications = append([]models.Notification(nil), d.notifications[len(d.notifications)-limit:]...)
	}
}

// Notifications returns the undismissed notifications, oldest first.
func (d *Dashboard) Notifications() []models.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Notification{}, d.notifications...)
}

// Dismiss removes the notification with id and reports whether it existed.
func (d *Dashboard) Dismiss(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, n := range d.notifications {
		if n.ID == id {
			d.notifications = append(d.notifications[:i], d.notifications[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Dashboard) clearNotifications() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = nil
}
