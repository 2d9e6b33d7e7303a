package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"civil-quiz/internal/domain"
	"civil-quiz/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps wires the components a Controller drives.
type Deps struct {
	Auth       *Authenticator
	Identities *IdentityStore
	Catalog    *Catalog
	Reporter   *Reporter
	Timer      *Countdown
	Random     Randomizer
	Metrics    *metrics.Metrics
	Log        *zap.Logger

	// RedirectDelay is how long the login success message stays up.
	RedirectDelay time.Duration
	// Schedule runs f after d; defaults to time.AfterFunc. It is never
	// called with the controller lock held.
	Schedule func(d time.Duration, f func())
	NewID    func() string
	Now      func() time.Time
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	View      domain.ViewName
	User      *domain.UserIdentity
	Entries   []domain.ManifestEntry
	InQuiz    bool
	Answered  bool
	Index     int
	Total     int
	Score     int
	Remaining int
	Mistakes  []domain.Mistake
}

// Controller owns the session context and moves it through
// login -> dashboard -> quiz -> result. All state changes happen under mu;
// network calls run without it, and their results are dropped when the user
// has navigated since the call started.
type Controller struct {
	deps Deps
	view View
	log  *zap.Logger

	mu        sync.Mutex
	current   domain.ViewName
	nav       uint64
	user      *domain.UserIdentity
	entries   []domain.ManifestEntry
	session   *Session
	remaining int
	loggingIn bool
	lastMiss  []domain.Mistake
}

func NewController(view View, deps Deps) *Controller {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Timer == nil {
		deps.Timer = NewCountdown(nil)
	}
	if deps.Random == nil {
		deps.Random = NewRandomizer()
	}
	if deps.Schedule == nil {
		deps.Schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{deps: deps, view: view, log: deps.Log}
}

// Boot picks the initial view: the dashboard when an identity is stored,
// the login form otherwise.
func (c *Controller) Boot(ctx context.Context) error {
	_, ok, err := c.deps.Identities.Load(ctx)
	if err != nil {
		c.log.Warn("identity unreadable, asking for login", zap.Error(err))
	}
	if !ok {
		c.mu.Lock()
		c.showLocked(domain.ViewLogin)
		c.mu.Unlock()
		return nil
	}
	return c.Dashboard(ctx)
}

// Login verifies the credentials and, on success, shows the dashboard after
// the redirect delay.
func (c *Controller) Login(ctx context.Context, name, qualification, code string) error {
	c.mu.Lock()
	if c.loggingIn {
		c.mu.Unlock()
		return domain.ErrLoginInProgress
	}
	if _, err := validateLogin(name, qualification, code); err != nil {
		c.view.Alert("Please enter both Name and Unique Code.")
		c.mu.Unlock()
		c.deps.Metrics.Auth("invalid")
		return err
	}
	c.loggingIn = true
	gen := c.nav
	c.view.ShowAuthStatus(AuthStatus{State: AuthPending, Message: "Connecting to server..."})
	c.mu.Unlock()

	user, err := c.deps.Auth.VerifyAndLogin(ctx, name, qualification, code)

	c.mu.Lock()
	c.loggingIn = false
	c.deps.Metrics.Auth(authOutcome(err))
	if gen != c.nav {
		c.mu.Unlock()
		c.log.Debug("dropping stale login response")
		return err
	}
	if err != nil {
		msg := loginErrorMessage(err)
		c.view.ShowAuthStatus(AuthStatus{State: AuthFailed, Message: "Error: " + msg})
		c.view.Alert("Login Failed: " + msg)
		c.mu.Unlock()
		return err
	}
	c.user = &user
	c.view.ShowAuthStatus(AuthStatus{State: AuthSuccess, Message: "Success! Redirecting..."})
	c.mu.Unlock()

	c.deps.Schedule(c.deps.RedirectDelay, func() {
		if !c.stillAt(gen) {
			return
		}
		if err := c.Dashboard(ctx); err != nil {
			c.log.Debug("dashboard after login", zap.Error(err))
		}
	})
	return nil
}

// Logout forgets the stored identity and returns to the login form.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardSessionLocked()
	c.user = nil
	c.entries = nil
	c.showLocked(domain.ViewLogin)
	return c.deps.Identities.Clear(ctx)
}

// Dashboard greets the stored user and lists the available quizzes.
func (c *Controller) Dashboard(ctx context.Context) error {
	user, ok, err := c.deps.Identities.Load(ctx)
	if err != nil {
		c.log.Warn("identity unreadable, asking for login", zap.Error(err))
	}

	c.mu.Lock()
	c.discardSessionLocked()
	if !ok {
		c.user = nil
		c.showLocked(domain.ViewLogin)
		c.mu.Unlock()
		return nil
	}
	c.user = &user
	gen := c.showLocked(domain.ViewDashboard)
	c.view.ShowGreeting(fmt.Sprintf("Namaste, %s!", FirstName(user)))
	c.view.ShowLoading("Loading available tests...")
	c.mu.Unlock()

	entries, err := c.deps.Catalog.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.nav {
		c.log.Debug("dropping stale manifest response")
		return err
	}
	if err != nil {
		c.log.Warn("manifest unavailable", zap.Error(err))
		c.entries = nil
		c.view.ShowCatalogError("Failed to load test list. Make sure list.json is uploaded.")
		return err
	}
	c.entries = entries
	c.view.ShowCatalog(entries)
	return nil
}

// Select starts the listed quiz with the given manifest id.
func (c *Controller) Select(ctx context.Context, id int) error {
	return c.startListed(ctx, func(e domain.ManifestEntry) bool { return e.ID == id })
}

// SelectFile starts the listed quiz whose question set is file. References
// that are not in the loaded manifest are rejected.
func (c *Controller) SelectFile(ctx context.Context, file string) error {
	return c.startListed(ctx, func(e domain.ManifestEntry) bool { return e.File == file })
}

func (c *Controller) startListed(ctx context.Context, match func(domain.ManifestEntry) bool) error {
	c.mu.Lock()
	var (
		entry domain.ManifestEntry
		found bool
	)
	for _, e := range c.entries {
		if match(e) {
			entry, found = e, true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return domain.ErrQuizNotFound
	}
	return c.StartQuiz(ctx, entry.File, entry.Name)
}

// StartQuiz loads a question set and begins a fresh session, discarding any
// previous one and its timer.
func (c *Controller) StartQuiz(ctx context.Context, file, topic string) error {
	c.mu.Lock()
	known := c.user != nil
	c.mu.Unlock()

	var loaded *domain.UserIdentity
	if !known {
		user, ok, err := c.deps.Identities.Load(ctx)
		if err != nil {
			c.log.Warn("identity unreadable, asking for login", zap.Error(err))
		}
		if ok {
			loaded = &user
		}
	}

	c.mu.Lock()
	if c.user == nil {
		c.user = loaded
	}
	if c.user == nil {
		c.showLocked(domain.ViewLogin)
		c.mu.Unlock()
		return domain.ErrNotLoggedIn
	}
	c.discardSessionLocked()
	gen := c.showLocked(domain.ViewQuiz)
	c.view.ShowLoading("Loading Questions...")
	c.mu.Unlock()

	questions, err := c.deps.Catalog.Questions(ctx, file)

	c.mu.Lock()
	if gen != c.nav {
		c.mu.Unlock()
		c.log.Debug("dropping stale question set", zap.String("file", file))
		return err
	}
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuiz) {
			c.view.Alert("No questions found.")
		} else {
			c.log.Warn("question set unavailable", zap.String("file", file), zap.Error(err))
			c.view.Alert("Error loading quiz file: " + file)
		}
		c.mu.Unlock()
		if dashErr := c.Dashboard(ctx); dashErr != nil {
			c.log.Debug("dashboard after failed start", zap.Error(dashErr))
		}
		return err
	}

	session, err := NewSession(c.deps.NewID(), topic, questions, c.deps.Random, c.deps.Now())
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.session = session
	c.lastMiss = nil
	seconds := int(QuizDuration / time.Second)
	c.remaining = seconds
	sessionID := session.ID()
	c.deps.Timer.Start(seconds,
		func(remaining int) { c.tick(sessionID, remaining) },
		func() { c.expire(ctx, sessionID) },
	)
	c.renderLocked()
	c.deps.Metrics.QuizStarted()
	c.log.Info("quiz started",
		zap.String("session", sessionID),
		zap.String("topic", topic),
		zap.Int("questions", session.Total()),
	)
	c.mu.Unlock()
	return nil
}

// Answer checks the option at display position option. Answering the same
// question again is a no-op.
func (c *Controller) Answer(option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.ErrNoActiveQuiz
	}
	result, err := c.session.Check(option)
	if err != nil {
		return err
	}
	if !result.Changed {
		return nil
	}

	first := ""
	if c.user != nil {
		first = FirstName(*c.user)
	}
	msg := "Oops! " + first
	if result.Correct {
		msg = "Correct! " + first
	}
	c.view.ShowFeedback(FeedbackView{
		Selected:     result.Selected,
		CorrectIndex: result.CorrectIndex,
		Correct:      result.Correct,
		Message:      msg,
		Explanation:  result.Explanation,
	})
	c.deps.Metrics.Answer(result.Correct)
	return nil
}

// Next moves to the following question or finishes the attempt after the
// last one.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return domain.ErrNoActiveQuiz
	}
	done, err := c.session.Next()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if !done {
		c.renderLocked()
		c.mu.Unlock()
		return nil
	}
	record, gen := c.finishLocked()
	c.mu.Unlock()

	c.sync(ctx, record, gen)
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		View:      c.current,
		Entries:   append([]domain.ManifestEntry(nil), c.entries...),
		Remaining: c.remaining,
		Mistakes:  append([]domain.Mistake(nil), c.lastMiss...),
	}
	if c.user != nil {
		user := *c.user
		snap.User = &user
	}
	if c.session != nil {
		snap.InQuiz = true
		snap.Answered = c.session.Answered()
		snap.Index = c.session.Index()
		snap.Total = c.session.Total()
		snap.Score = c.session.Score()
		snap.Mistakes = c.session.Mistakes()
	}
	return snap
}

func (c *Controller) tick(sessionID string, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.ID() != sessionID {
		return
	}
	c.remaining = remaining
	c.view.ShowTimer(FormatClock(remaining))
}

func (c *Controller) expire(ctx context.Context, sessionID string) {
	c.mu.Lock()
	if c.session == nil || c.session.ID() != sessionID {
		c.mu.Unlock()
		return
	}
	c.log.Info("time is up", zap.String("session", sessionID))
	record, gen := c.finishLocked()
	c.mu.Unlock()

	c.sync(ctx, record, gen)
}

// finishLocked stops the timer, shows the result and discards the session.
func (c *Controller) finishLocked() (domain.ResultRecord, uint64) {
	c.deps.Timer.Stop()
	s := c.session
	c.session = nil
	c.lastMiss = s.Mistakes()

	gen := c.showLocked(domain.ViewResult)
	pct := Accuracy(s.Score(), s.Total())
	c.view.ShowResult(ResultView{
		Topic:    s.Topic(),
		Score:    s.Score(),
		Total:    s.Total(),
		Percent:  pct,
		Accuracy: fmt.Sprintf("%d%% Accuracy", pct),
		Mistakes: c.lastMiss,
	})
	c.view.ShowSyncStatus(domain.SyncPending)

	var user domain.UserIdentity
	if c.user != nil {
		user = *c.user
	}
	c.log.Info("quiz finished",
		zap.String("session", s.ID()),
		zap.Int("score", s.Score()),
		zap.Int("total", s.Total()),
		zap.Duration("elapsed", c.deps.Now().Sub(s.StartedAt())),
	)
	return c.deps.Reporter.Record(user, s.Topic(), s.Score()), gen
}

func (c *Controller) sync(ctx context.Context, record domain.ResultRecord, gen uint64) domain.SyncStatus {
	status := c.deps.Reporter.Sync(ctx, record)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.deps.Metrics.Sync(string(status))
	if gen != c.nav {
		c.log.Debug("dropping stale sync status", zap.String("status", string(status)))
		return status
	}
	c.view.ShowSyncStatus(status)
	return status
}

func (c *Controller) renderLocked() {
	q, ok := c.session.Current()
	if !ok {
		return
	}
	opts := make([]OptionView, len(q.Shuffled))
	for i, opt := range q.Shuffled {
		opts[i] = OptionView{Label: OptionLabel(i), Text: opt.Text}
	}
	c.view.ShowQuestion(QuestionView{
		Number:   c.session.Index() + 1,
		Total:    c.session.Total(),
		Text:     q.Text,
		Options:  opts,
		Feedback: "Good Luck!",
		Clock:    FormatClock(c.remaining),
	})
}

func (c *Controller) showLocked(name domain.ViewName) uint64 {
	c.current = name
	c.nav++
	c.view.ShowView(name)
	return c.nav
}

func (c *Controller) discardSessionLocked() {
	c.deps.Timer.Stop()
	c.session = nil
}

func (c *Controller) stillAt(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.nav
}

func authOutcome(err error) string {
	var authErr *domain.AuthenticationError
	var netErr *domain.NetworkError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &authErr):
		return "rejected"
	case errors.As(err, &netErr):
		return "network"
	default:
		return "error"
	}
}

func loginErrorMessage(err error) string {
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return err.Error()
}
