package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mcserver/internal/catalog"
	"mcserver/internal/install"
	"mcserver/internal/paths"
	"mcserver/internal/properties"
	"mcserver/internal/supervisor"
)

// DumpTimeout caps a registry dump run, which exits on its own once the
// data generators finish.
const DumpTimeout = 9 * time.Second

// dumpMainClass selects the data generator entry point of the bundled jar.
const dumpMainClass = "-DbundlerMainClass=net.minecraft.data.Main"

// RetryPolicy controls StartServerAndWaitRetry. The zero value selects
// DefaultRetryPolicy.
type RetryPolicy struct {
	// Attempts counts the first try. Values below 1 mean 1.
	Attempts int
	// Cooldown separates a failed attempt from the next one.
	Cooldown time.Duration
}

// DefaultRetryPolicy makes one retry after ten seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 2, Cooldown: 10 * time.Second}
}

// StartOptions configures one startup.
type StartOptions struct {
	// Path selects the installation directory, absolute or relative to Root.
	// Empty means Root/mc-<version>.
	Path string
	// Root is the directory installations live under. Empty means ".".
	Root string
	// Timeout kills the process once elapsed, regardless of readiness.
	Timeout  time.Duration
	PreArgs  []string
	PostArgs []string
	// DumpRegistries runs the data generators into this path instead of a
	// normal server. The run is killed after DumpTimeout unless Timeout is
	// set, in which case Timeout applies.
	DumpRegistries string
	// Properties are written to the managed server.properties section.
	// "path" and "root" keys act as Path and Root when those are empty.
	Properties *properties.Options
}

// Deps are the components a Session drives.
type Deps struct {
	Catalog    *catalog.Catalog
	Installer  *install.Installer
	Writer     *properties.Writer
	Supervisor *supervisor.Supervisor
	Logger     *zap.Logger
	Retry      RetryPolicy
	OnPhase    PhaseFunc
}

// Session runs server startups. It allows one startup at a time; a call
// made while another is in progress fails with ErrSessionBusy.
type Session struct {
	catalog    *catalog.Catalog
	installer  *install.Installer
	writer     *properties.Writer
	supervisor *supervisor.Supervisor
	logger     *zap.Logger
	retry      RetryPolicy
	onPhase    PhaseFunc

	busy  sync.Mutex
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewSession wires deps into a Session. Nil components get defaults built
// from each other.
func NewSession(d Deps) *Session {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Catalog == nil {
		d.Catalog = catalog.New("", nil, d.Logger)
	}
	if d.Installer == nil {
		d.Installer = install.New(d.Catalog, install.Options{Logger: d.Logger})
	}
	if d.Writer == nil {
		d.Writer = properties.NewWriter(nil, "", d.Logger)
	}
	if d.Supervisor == nil {
		d.Supervisor = supervisor.New(supervisor.Options{Logger: d.Logger})
	}
	if d.Retry == (RetryPolicy{}) {
		d.Retry = DefaultRetryPolicy()
	}
	if d.Retry.Attempts < 1 {
		d.Retry.Attempts = 1
	}
	return &Session{
		catalog:    d.Catalog,
		installer:  d.Installer,
		writer:     d.Writer,
		supervisor: d.Supervisor,
		logger:     d.Logger,
		retry:      d.Retry,
		onPhase:    d.OnPhase,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Catalog returns the session's version catalog.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Supervisor returns the session's process supervisor.
func (s *Session) Supervisor() *supervisor.Supervisor { return s.supervisor }

// Download resolves token and makes sure its server jar is installed.
func (s *Session) Download(ctx context.Context, token string, opts StartOptions) (install.Result, error) {
	entry, err := s.catalog.Resolve(ctx, token)
	if err != nil {
		return install.Result{}, err
	}
	root, path := opts.location()
	return s.installer.Acquire(ctx, entry.ID, root, path)
}

// StartServer installs, configures and spawns the server for token. It
// returns as soon as the process is spawned; onReady, if set, is called once
// the server reports it is ready. Cancelling ctx kills the server.
func (s *Session) StartServer(ctx context.Context, token string, onReady func(), opts StartOptions) (*supervisor.Handle, error) {
	if !s.busy.TryLock() {
		return nil, ErrSessionBusy
	}
	defer s.busy.Unlock()

	run, version, err := s.prepare(ctx, token, 1, opts)
	if err != nil {
		s.emit(Event{Phase: PhaseFailed, Version: version, Attempt: 1, Err: err})
		return nil, err
	}
	run.OnReady = onReady
	return s.spawn(ctx, run, version, 1)
}

// StartServerAndWait starts the server and blocks until it is ready, the
// timeout elapses, the process exits, or ctx is cancelled. The timeout
// covers installation and configuration too. On timeout the process is
// killed and a StartupTimeoutError returned.
func (s *Session) StartServerAndWait(ctx context.Context, token string, timeout time.Duration, opts StartOptions) (*supervisor.Handle, error) {
	if !s.busy.TryLock() {
		return nil, ErrSessionBusy
	}
	defer s.busy.Unlock()

	h, _, err := s.startAndWait(ctx, token, timeout, 1, opts)
	return h, err
}

// StartServerAndWaitRetry is StartServerAndWait with recovery: after a
// failed attempt it kills the latest server process, waits out the
// cooldown, erases the installation so it is downloaded again, and tries
// once more. The last attempt's error is returned unchanged.
func (s *Session) StartServerAndWaitRetry(ctx context.Context, token string, timeout time.Duration, opts StartOptions) (*supervisor.Handle, error) {
	if timeout <= 0 {
		return nil, ErrInvalidTimeout
	}
	if !s.busy.TryLock() {
		return nil, ErrSessionBusy
	}
	defer s.busy.Unlock()

	for attempt := 1; ; attempt++ {
		h, version, err := s.startAndWait(ctx, token, timeout, attempt, opts)
		if err == nil {
			return h, nil
		}
		if attempt >= s.retry.Attempts || ctx.Err() != nil {
			return nil, err
		}

		s.logger.Error("server failed to start, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("cooldown", s.retry.Cooldown),
			zap.Error(err))
		if cur := s.supervisor.Current(); cur != nil {
			_ = cur.Kill()
		}
		if err := s.sleep(ctx, s.retry.Cooldown); err != nil {
			return nil, err
		}
		if version == "" {
			version = token
		}
		root, path := opts.location()
		if err := s.installer.Erase(version, root, path); err != nil {
			return nil, fmt.Errorf("erase server before retry: %w", err)
		}
	}
}

func (s *Session) startAndWait(ctx context.Context, token string, timeout time.Duration, attempt int, opts StartOptions) (*supervisor.Handle, string, error) {
	if timeout <= 0 {
		return nil, "", ErrInvalidTimeout
	}
	deadline := s.now().Add(timeout)

	prepCtx, cancel := context.WithDeadline(ctx, deadline)
	run, version, err := s.prepare(prepCtx, token, attempt, opts)
	cancel()
	if err != nil {
		phase := PhaseFailed
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = &StartupTimeoutError{Timeout: timeout, At: s.now(), Err: err}
			phase = PhaseTimedOut
		}
		s.emit(Event{Phase: phase, Version: version, Attempt: attempt, Err: err})
		return nil, version, err
	}

	ready := make(chan struct{})
	var once sync.Once
	run.OnReady = func() { once.Do(func() { close(ready) }) }

	h, err := s.spawn(ctx, run, version, attempt)
	if err != nil {
		return nil, version, err
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	s.emit(Event{Phase: PhaseAwaitingReady, Version: version, Attempt: attempt})

	select {
	case <-ready:
		s.emit(Event{Phase: PhaseReady, Version: version, Attempt: attempt})
		return h, version, nil
	case <-timer.C:
		s.teardown(h)
		err := &StartupTimeoutError{Timeout: timeout, At: s.now()}
		s.emit(Event{Phase: PhaseTimedOut, Version: version, Attempt: attempt, Err: err})
		return nil, version, err
	case <-h.Done():
		select {
		case <-ready:
			s.emit(Event{Phase: PhaseReady, Version: version, Attempt: attempt})
			return h, version, nil
		default:
		}
		err := &ProcessExitedError{PID: h.PID(), Err: h.Err()}
		s.emit(Event{Phase: PhaseFailed, Version: version, Attempt: attempt, Err: err})
		return nil, version, err
	case <-ctx.Done():
		s.teardown(h)
		s.emit(Event{Phase: PhaseFailed, Version: version, Attempt: attempt, Err: ctx.Err()})
		return nil, version, ctx.Err()
	}
}

// prepare resolves, installs and configures, returning the launch arguments
// and the resolved version id.
func (s *Session) prepare(ctx context.Context, token string, attempt int, opts StartOptions) (supervisor.RunArgs, string, error) {
	version := token
	fail := func(err error) (supervisor.RunArgs, string, error) {
		return supervisor.RunArgs{}, version, err
	}

	s.emit(Event{Phase: PhaseResolving, Version: version, Attempt: attempt})
	entry, err := s.catalog.Resolve(ctx, token)
	if err != nil {
		return fail(err)
	}
	version = entry.ID

	s.emit(Event{Phase: PhaseAcquiring, Version: version, Attempt: attempt})
	root, path := opts.location()
	res, err := s.installer.Acquire(ctx, version, root, path)
	if err != nil {
		return fail(err)
	}
	inst, err := paths.Resolve(version, root, path)
	if err != nil {
		return fail(err)
	}

	s.emit(Event{Phase: PhaseConfiguring, Version: version, Attempt: attempt})
	s.logger.Debug("configuring server", zap.String("version", version), zap.String("dir", res.Path))
	if err := s.writer.Configure(ctx, inst, opts.Properties); err != nil {
		return fail(err)
	}
	if values, err := properties.Effective(inst); err == nil {
		s.logger.Info("server configured",
			zap.String("version", version),
			zap.String("port", values["server-port"]),
			zap.String("online-mode", values["online-mode"]))
	}

	run := supervisor.RunArgs{
		Dir:      inst.Dir,
		Timeout:  opts.Timeout,
		PreArgs:  opts.PreArgs,
		PostArgs: opts.PostArgs,
	}
	if opts.DumpRegistries != "" {
		s.logger.Info("dumping registries", zap.String("output", opts.DumpRegistries))
		run.PreArgs = []string{dumpMainClass}
		run.PostArgs = []string{"--all", "--output", opts.DumpRegistries}
		if run.Timeout <= 0 {
			run.Timeout = DumpTimeout
		}
	}
	return run, version, nil
}

func (s *Session) spawn(ctx context.Context, run supervisor.RunArgs, version string, attempt int) (*supervisor.Handle, error) {
	s.emit(Event{Phase: PhaseSpawning, Version: version, Attempt: attempt})
	return s.supervisor.Run(ctx, run)
}

// teardown kills h, stops readiness detection and waits for the exit.
func (s *Session) teardown(h *supervisor.Handle) {
	h.Detach()
	if err := h.Kill(); err != nil {
		s.logger.Warn("kill server", zap.Int("pid", h.PID()), zap.Error(err))
	}
	<-h.Done()
}

func (s *Session) emit(ev Event) {
	if s.onPhase != nil {
		s.onPhase(ev)
	}
}

func (o StartOptions) location() (root, path string) {
	root, path = o.Root, o.Path
	if root == "" {
		if v, ok := o.Properties.Get("root"); ok {
			root = fmt.Sprint(v)
		}
	}
	if path == "" {
		if v, ok := o.Properties.Get("path"); ok {
			path = fmt.Sprint(v)
		}
	}
	return root, path
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
