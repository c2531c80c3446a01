package query

import (
	"context"
	"errors"
	"math"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sensor-warning-map/internal/domain"
	"github.com/couchcryptid/sensor-warning-map/internal/observability"
)

// ErrFetch is the user-visible error carried by a Result whose fetch failed.
// The underlying cause is logged, not surfaced.
var ErrFetch = errors.New("failed to fetch data")

// DataSource supplies the warnings for a query state and the sensor list.
type DataSource interface {
	Warnings(ctx context.Context, s State) ([]domain.Warning, error)
	Sensors(ctx context.Context) ([]domain.Sensor, error)
}

// Result is the outcome of the most recently issued fetch.
type Result struct {
	Token    uint64
	State    State
	Warnings []domain.Warning
	Sensors  []domain.Sensor
	Map      domain.MapModel
	HasMore  bool

	// Err is ErrFetch when the fetch for State failed. Warnings, Sensors and
	// Map then still hold the previous data and Stale is set.
	Err       error
	Stale     bool
	FetchedAt time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLocales selects the translations used when building the map model.
func WithLocales(loc domain.Locales) Option {
	return func(c *Controller) { c.locales = loc }
}

// WithFetchTimeout bounds each fetch. Zero means no timeout beyond the caller's context.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithClock sets the clock used for Result.FetchedAt.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithInitialState starts the Controller at s instead of InitialState. Page
// and PageSize are clamped to at least 1, as the transitions do. No fetch is
// issued; call Refresh to load it.
func WithInitialState(s State) Option {
	return func(c *Controller) { c.state = s.clamped() }
}

// WithListener registers fn to receive applied results. A result that was
// already superseded by the time fn could run is skipped. fn may read the
// controller and start new transitions but must not call Wait.
func WithListener(fn func(Result)) Option {
	return func(c *Controller) { c.listener = fn }
}

// Controller owns the query state and keeps the displayed result consistent
// with it. Every transition issues a fetch tagged with a fresh token; a fetch
// result is applied only if its token is still the latest one issued, so a
// slow response for an old state can never overwrite a newer one.
type Controller struct {
	source   DataSource
	logger   *slog.Logger
	metrics  *observability.Metrics
	locales  domain.Locales
	timeout  time.Duration
	clock    clockwork.Clock
	listener func(Result)

	mu        sync.Mutex
	state     State
	issued    uint64
	result    Result
	hasResult bool

	notifyMu sync.Mutex
	inflight sync.WaitGroup
}

// New creates a Controller in InitialState. No fetch is issued until the
// first transition; call Refresh for the initial load.
func New(source DataSource, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Controller {
	c := &Controller{
		source:  source,
		logger:  logger,
		metrics: metrics,
		locales: domain.DefaultLocales,
		clock:   clockwork.NewRealClock(),
		state:   InitialState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current query state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the last applied result and whether one exists yet.
func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.hasResult
}

// Wait blocks until every issued fetch has settled.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// SetSearchTerm filters by affected-area name. The page is left as is.
func (c *Controller) SetSearchTerm(ctx context.Context, term string) uint64 {
	return c.transition(ctx, func(s State) State {
		s.SearchTerm = term
		return s
	})
}

// SetEventType filters by event code. The page is left as is.
func (c *Controller) SetEventType(ctx context.Context, eventType string) uint64 {
	return c.transition(ctx, func(s State) State {
		s.EventType = eventType
		return s
	})
}

// SetPageSize changes the page size, clamped to at least 1.
func (c *Controller) SetPageSize(ctx context.Context, n int) uint64 {
	return c.transition(ctx, func(s State) State {
		s.PageSize = max(n, 1)
		return s
	})
}

// NextPage advances one page. There is no upper bound; Result.HasMore hints
// whether the next page can hold anything.
func (c *Controller) NextPage(ctx context.Context) uint64 {
	return c.transition(ctx, func(s State) State {
		if s.Page < math.MaxInt {
			s.Page++
		}
		return s
	})
}

// PrevPage goes back one page, stopping at 1.
func (c *Controller) PrevPage(ctx context.Context) uint64 {
	return c.transition(ctx, func(s State) State {
		s.Page = max(s.Page-1, 1)
		return s
	})
}

// Refresh re-fetches the current state unchanged.
func (c *Controller) Refresh(ctx context.Context) uint64 {
	return c.transition(ctx, func(s State) State { return s })
}

// transition replaces the state and issues a fetch for a snapshot of it.
func (c *Controller) transition(ctx context.Context, next func(State) State) uint64 {
	c.mu.Lock()
	c.state = next(c.state)
	c.issued++
	token, snapshot := c.issued, c.state
	c.inflight.Add(1)
	c.mu.Unlock()

	go c.fetch(ctx, token, snapshot)
	return token
}

func (c *Controller) fetch(ctx context.Context, token uint64, s State) {
	defer c.inflight.Done()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	warnings, err := c.source.Warnings(ctx, s)
	var sensors []domain.Sensor
	if err == nil {
		sensors, err = c.source.Sensors(ctx)
	}
	c.apply(token, s, warnings, sensors, err)
}

func (c *Controller) apply(token uint64, s State, warnings []domain.Warning, sensors []domain.Sensor, err error) {
	c.mu.Lock()
	if token != c.issued {
		latest := c.issued
		c.mu.Unlock()
		c.metrics.QueryResults.WithLabelValues("discarded").Inc()
		c.logger.Debug("discarding superseded query result", "token", token, "latest", latest)
		return
	}

	var res Result
	if err != nil {
		c.metrics.QueryResults.WithLabelValues("error").Inc()
		c.logger.Error("query fetch failed",
			"token", token,
			"search_term", s.SearchTerm,
			"event_type", s.EventType,
			"page", s.Page,
			"page_size", s.PageSize,
			"error", err,
		)
		res = c.result
		res.Token, res.State = token, s
		res.Err, res.Stale = ErrFetch, true
	} else {
		c.metrics.QueryResults.WithLabelValues("applied").Inc()
		res = Result{
			Token:     token,
			State:     s,
			Warnings:  warnings,
			Sensors:   sensors,
			Map:       domain.BuildMapModel(warnings, sensors, c.locales),
			HasMore:   len(warnings) >= s.PageSize,
			FetchedAt: c.clock.Now(),
		}
	}
	c.result, c.hasResult = res, true
	c.mu.Unlock()

	c.notify(res)
}

// notify hands res to the listener unless a newer result has been applied in
// the meantime. Listeners run one at a time.
func (c *Controller) notify(res Result) {
	if c.listener == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	current := c.result.Token == res.Token
	c.mu.Unlock()
	if current {
		c.listener(res)
	}
}
