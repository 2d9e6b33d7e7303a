package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
	"civil-quiz/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	ctrl       *app.Controller
	view       *recordingView
	identities *app.IdentityStore
	scores     *recordingScores
	clock      *fakeClock
	authCalls  int
}

type harnessOpts struct {
	manifests app.ManifestSource
	questions app.QuestionSource
	authErr   error
	online    bool
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()
	static := memory.NewStaticCatalog(
		[]domain.ManifestEntry{
			{ID: 1, Name: "Mechanics", File: "mech.json"},
			{ID: 2, Name: "Empty", File: "empty.json"},
		},
		map[string][]domain.Question{
			"mech.json":  mechanicsSet(),
			"empty.json": {},
		},
	)
	if opts.manifests == nil {
		opts.manifests = static
	}
	if opts.questions == nil {
		opts.questions = static
	}

	h := &harness{
		view:       &recordingView{},
		identities: app.NewIdentityStore(memory.NewKVStore(), ""),
		scores:     &recordingScores{},
		clock:      &fakeClock{},
	}
	auth := authFunc(func(context.Context, string, string, string) error {
		h.authCalls++
		return opts.authErr
	})
	h.ctrl = app.NewController(h.view, app.Deps{
		Auth:       app.NewAuthenticator(auth, h.identities, zap.NewNop()),
		Identities: h.identities,
		Catalog:    app.NewCatalog(opts.manifests, opts.questions, zap.NewNop()),
		Reporter:   app.NewReporter(h.scores, app.StaticConnectivity(opts.online), zap.NewNop()),
		Timer:      app.NewCountdown(h.clock.factory),
		Random:     keepOrder{},
		Log:        zap.NewNop(),
		Schedule:   func(_ time.Duration, f func()) { f() },
	})
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Login(context.Background(), "Asha Verma", "B.Tech", "X1"))
	require.Equal(t, domain.ViewDashboard, h.ctrl.Snapshot().View)
	h.view.reset()
}

func TestBootWithoutIdentityShowsLogin(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	require.NoError(t, h.ctrl.Boot(context.Background()))
	assert.Equal(t, []string{"view:login"}, h.view.log())
}

func TestBootWithIdentityShowsDashboard(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	require.NoError(t, h.identities.Save(context.Background(), domain.UserIdentity{Name: "Ravi Kumar", Code: "C"}))

	require.NoError(t, h.ctrl.Boot(context.Background()))
	assert.Equal(t, []string{
		"view:dashboard",
		"greeting:Namaste, Ravi!",
		"loading:Loading available tests...",
		"catalog:Empty,Mechanics",
	}, h.view.log())
}

func TestLoginRequiresNameAndCode(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	err := h.ctrl.Login(context.Background(), "Asha", "", " ")

	var validation *domain.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Zero(t, h.authCalls)
	assert.Equal(t, []string{"alert:Please enter both Name and Unique Code."}, h.view.log())
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t, harnessOpts{authErr: &domain.AuthenticationError{Message: "Invalid Code or Code Expired"}})
	require.NoError(t, h.ctrl.Boot(context.Background()))

	err := h.ctrl.Login(context.Background(), "Asha", "", "bad")
	require.Error(t, err)
	assert.Equal(t, 1, h.authCalls)
	assert.Equal(t, []string{
		"view:login",
		"auth:pending:Connecting to server...",
		"auth:error:Error: Invalid Code or Code Expired",
		"alert:Login Failed: Invalid Code or Code Expired",
	}, h.view.log())
	assert.Equal(t, domain.ViewLogin, h.ctrl.Snapshot().View)

	_, ok, err := h.identities.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginSuccessRedirects(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	require.NoError(t, h.ctrl.Login(context.Background(), "Asha Verma", "B.Tech", "X1"))

	assert.Equal(t, []string{
		"auth:pending:Connecting to server...",
		"auth:success:Success! Redirecting...",
		"view:dashboard",
		"greeting:Namaste, Asha!",
		"loading:Loading available tests...",
		"catalog:Empty,Mechanics",
	}, h.view.log())
	snap := h.ctrl.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "Asha Verma", snap.User.Name)
}

func TestFullQuizOnline(t *testing.T) {
	h := newHarness(t, harnessOpts{online: true})
	h.login(t)
	ctx := context.Background()

	require.NoError(t, h.ctrl.Select(ctx, 1))
	assert.Equal(t, []string{
		"view:quiz",
		"loading:Loading Questions...",
		"question:1/2:45:00",
	}, h.view.log())

	assert.ErrorIs(t, h.ctrl.Next(ctx), domain.ErrQuestionUnanswered)

	require.NoError(t, h.ctrl.Answer(0))
	require.NoError(t, h.ctrl.Answer(1))
	require.NoError(t, h.ctrl.Next(ctx))
	require.NoError(t, h.ctrl.Answer(0))
	require.NoError(t, h.ctrl.Next(ctx))

	log := h.view.log()
	assert.Equal(t, []string{
		"feedback:Correct! Asha",
		"question:2/2:45:00",
		"feedback:Oops! Asha",
		"view:result",
		"result:1/2:50% Accuracy",
		"sync:syncing",
		"sync:submitted",
	}, log[3:])

	result := h.view.result()
	assert.Equal(t, 50, result.Percent)
	assert.Equal(t, []domain.Mistake{{Question: "Unit of work?", Selected: "Watt", Correct: "Joule"}}, result.Mistakes)

	require.Equal(t, 1, h.scores.calls())
	rec := h.scores.records[0]
	assert.Equal(t, "Asha Verma", rec.Name)
	assert.Equal(t, "B.Tech", rec.Qualification)
	assert.Equal(t, "Mechanics", rec.Topic)
	assert.Equal(t, 1, rec.Score)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, domain.ViewResult, snap.View)
	assert.False(t, snap.InQuiz)
	assert.ErrorIs(t, h.ctrl.Answer(0), domain.ErrNoActiveQuiz)
}

func TestOfflineResultIsNotSent(t *testing.T) {
	h := newHarness(t, harnessOpts{online: false})
	h.login(t)
	ctx := context.Background()

	require.NoError(t, h.ctrl.StartQuiz(ctx, "mech.json", "Mechanics"))
	for i := 0; i < 2; i++ {
		require.NoError(t, h.ctrl.Answer(0))
		require.NoError(t, h.ctrl.Next(ctx))
	}
	log := h.view.log()
	assert.Equal(t, "sync:offline-no-internet", log[len(log)-1])
	assert.Zero(t, h.scores.calls())
}

func TestEmptyQuizReturnsToDashboard(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	h.login(t)

	err := h.ctrl.Select(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrEmptyQuiz)
	assert.Equal(t, []string{
		"view:quiz",
		"loading:Loading Questions...",
		"alert:No questions found.",
		"view:dashboard",
		"greeting:Namaste, Asha!",
		"loading:Loading available tests...",
		"catalog:Empty,Mechanics",
	}, h.view.log())
	assert.False(t, h.ctrl.Snapshot().InQuiz)
}

func TestMissingQuizFileAlerts(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	h.login(t)

	err := h.ctrl.StartQuiz(context.Background(), "nope.json", "Nope")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
	assert.Contains(t, h.view.log(), "alert:Error loading quiz file: nope.json")
	assert.Equal(t, domain.ViewDashboard, h.ctrl.Snapshot().View)

	assert.ErrorIs(t, h.ctrl.Select(context.Background(), 99), domain.ErrQuizNotFound)
}

func TestManifestFailureShowsCatalogError(t *testing.T) {
	h := newHarness(t, harnessOpts{manifests: failingManifest{err: errors.New("404")}})
	require.NoError(t, h.identities.Save(context.Background(), domain.UserIdentity{Name: "Asha", Code: "1"}))

	err := h.ctrl.Dashboard(context.Background())
	var catalogErr *domain.CatalogError
	require.True(t, errors.As(err, &catalogErr))
	assert.Contains(t, h.view.log(), "catalogError:Failed to load test list. Make sure list.json is uploaded.")
}

func TestTimerExpiryFinishesQuiz(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	h.login(t)
	ctx := context.Background()

	require.NoError(t, h.ctrl.StartQuiz(ctx, "mech.json", "Mechanics"))
	require.NoError(t, h.ctrl.Answer(0))

	tk := h.clock.last()
	seconds := int(app.QuizDuration / time.Second)
	for i := 0; i < seconds; i++ {
		tk.c <- time.Time{}
	}

	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().View == domain.ViewResult
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		log := h.view.log()
		return log[len(log)-1] == "sync:offline-no-internet"
	}, time.Second, 5*time.Millisecond)

	log := h.view.log()
	assert.Contains(t, log, "timer:44:59")
	assert.Contains(t, log, "timer:0:00")
	assert.Contains(t, log, "result:1/2:50% Accuracy")
	assert.Equal(t, 1, countPrefix(log, "view:result"))
}

func TestRestartDiscardsPreviousTimer(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	h.login(t)
	ctx := context.Background()

	require.NoError(t, h.ctrl.StartQuiz(ctx, "mech.json", "Mechanics"))
	first := h.clock.last()
	require.NoError(t, h.ctrl.Answer(0))

	require.NoError(t, h.ctrl.StartQuiz(ctx, "mech.json", "Mechanics"))
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, 0, snap.Index)
	assert.False(t, snap.Answered)

	select {
	case first.c <- time.Time{}:
		t.Fatalf("previous timer still running")
	case <-time.After(50 * time.Millisecond):
	}
}

// gatedManifest blocks until released so a navigation can happen meanwhile.
type gatedManifest struct {
	entered chan struct{}
	release chan struct{}
}

func (g gatedManifest) Manifest(context.Context) ([]domain.ManifestEntry, error) {
	close(g.entered)
	<-g.release
	return []domain.ManifestEntry{{ID: 1, Name: "Late", File: "late.json"}}, nil
}

func TestStaleManifestIsDropped(t *testing.T) {
	gate := gatedManifest{entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, harnessOpts{manifests: gate})
	ctx := context.Background()
	require.NoError(t, h.identities.Save(ctx, domain.UserIdentity{Name: "Asha", Code: "1"}))

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Dashboard(ctx) }()
	<-gate.entered

	require.NoError(t, h.ctrl.Logout(ctx))
	close(gate.release)
	require.NoError(t, <-done)

	log := h.view.log()
	assert.NotContains(t, log, "catalog:Late")
	assert.Equal(t, "view:login", log[len(log)-1])
	assert.Equal(t, domain.ViewLogin, h.ctrl.Snapshot().View)
}

func countPrefix(log []string, prefix string) int {
	n := 0
	for _, e := range log {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func TestSelectFileOnlyStartsListedSets(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	h.login(t)
	ctx := context.Background()

	assert.ErrorIs(t, h.ctrl.SelectFile(ctx, "file:///etc/passwd"), domain.ErrQuizNotFound)
	assert.ErrorIs(t, h.ctrl.SelectFile(ctx, "../mech.json"), domain.ErrQuizNotFound)
	assert.False(t, h.ctrl.Snapshot().InQuiz)

	require.NoError(t, h.ctrl.SelectFile(ctx, "mech.json"))
	snap := h.ctrl.Snapshot()
	assert.True(t, snap.InQuiz)
	assert.Equal(t, 2, snap.Total)
}

// gatedKV blocks Get until release is closed.
type gatedKV struct {
	app.KV
	entered chan struct{}
	release chan struct{}
}

func (g *gatedKV) Get(ctx context.Context, key string) (string, bool, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.KV.Get(ctx, key)
}

func TestStartQuizLoadsIdentityOutsideLock(t *testing.T) {
	backing := memory.NewKVStore()
	require.NoError(t, app.NewIdentityStore(backing, "").Save(context.Background(), domain.UserIdentity{Name: "Asha", Code: "1"}))
	kv := &gatedKV{KV: backing, entered: make(chan struct{}, 1), release: make(chan struct{})}
	identities := app.NewIdentityStore(kv, "")
	static := memory.NewStaticCatalog(
		[]domain.ManifestEntry{{ID: 1, Name: "Mechanics", File: "mech.json"}},
		map[string][]domain.Question{"mech.json": mechanicsSet()},
	)
	clock := &fakeClock{}
	ctrl := app.NewController(&recordingView{}, app.Deps{
		Auth:       app.NewAuthenticator(authFunc(func(context.Context, string, string, string) error { return nil }), identities, zap.NewNop()),
		Identities: identities,
		Catalog:    app.NewCatalog(static, static, zap.NewNop()),
		Reporter:   app.NewReporter(&recordingScores{}, app.StaticConnectivity(false), zap.NewNop()),
		Timer:      app.NewCountdown(clock.factory),
		Random:     keepOrder{},
		Log:        zap.NewNop(),
		Schedule:   func(_ time.Duration, f func()) { f() },
	})

	started := make(chan error, 1)
	go func() { started <- ctrl.StartQuiz(context.Background(), "mech.json", "Mechanics") }()
	<-kv.entered

	snapped := make(chan app.Snapshot, 1)
	go func() { snapped <- ctrl.Snapshot() }()
	select {
	case <-snapped:
	case <-time.After(time.Second):
		t.Fatalf("Snapshot blocked while identity was loading")
	}

	close(kv.release)
	require.NoError(t, <-started)
	assert.True(t, ctrl.Snapshot().InQuiz)
}
