package supervisor

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"mcserver/internal/paths"
	"mcserver/internal/properties"
)

// waitDelay bounds how long Wait blocks on output pipes after the server
// process is gone.
const waitDelay = 2 * time.Second

// RunArgs describes one server launch.
type RunArgs struct {
	// Dir is the installation directory holding server.jar.
	Dir string
	// Timeout, when positive, kills the process once it elapses, whatever
	// state the server is in.
	Timeout  time.Duration
	PreArgs  []string
	PostArgs []string
	// OnReady, when set, is called once the server reports it is ready.
	// Without it the child inherits the supervisor's stdio.
	OnReady func()
}

// Options configures a Supervisor. Nil streams default to the process's own.
type Options struct {
	JavaBin string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *zap.Logger
}

// Supervisor spawns server processes and remembers the latest one.
type Supervisor struct {
	javaBin string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
	current atomic.Pointer[Handle]
}

// New builds a Supervisor.
func New(opts Options) *Supervisor {
	if opts.JavaBin == "" {
		opts.JavaBin = "java"
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Supervisor{
		javaBin: opts.JavaBin,
		stdin:   opts.Stdin,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		logger:  opts.Logger,
	}
}

// Args builds the server argument list.
func Args(pre, post []string) []string {
	args := append([]string(nil), properties.JVMArgs...)
	args = append(args, pre...)
	args = append(args, "-jar", paths.JarName)
	return append(args, post...)
}

// Run starts the server in args.Dir. Cancelling ctx kills the process.
// A failure to spawn is not returned as an error: the returned Handle is
// already finished and Err reports the cause. Run errors only on invalid
// arguments.
func (s *Supervisor) Run(ctx context.Context, args RunArgs) (*Handle, error) {
	if args.Dir == "" {
		return nil, errors.New("run server: empty directory")
	}
	if args.Timeout < 0 {
		return nil, errors.New("run server: negative timeout")
	}

	argv := Args(args.PreArgs, args.PostArgs)
	cmd := exec.CommandContext(ctx, s.javaBin, argv...)
	cmd.Dir = args.Dir
	cmd.WaitDelay = waitDelay

	h := &Handle{cmd: cmd, done: make(chan struct{})}
	if args.OnReady != nil {
		h.detector = NewReadyDetector(ReadyMarker, args.OnReady)
		cmd.Stdout = io.MultiWriter(s.stdout, h.detector)
		cmd.Stderr = s.stdout
	} else {
		cmd.Stdin = s.stdin
		cmd.Stdout = s.stdout
		cmd.Stderr = s.stderr
	}

	s.logger.Info("starting server",
		zap.String("cmd", s.javaBin+" "+strings.Join(argv, " ")),
		zap.String("dir", args.Dir))
	s.current.Store(h)

	if err := cmd.Start(); err != nil {
		s.logger.Warn("server failed to start", zap.Error(err))
		h.finish(err)
		return h, nil
	}
	h.pid = cmd.Process.Pid

	if args.Timeout > 0 {
		h.timer = time.AfterFunc(args.Timeout, func() {
			s.logger.Warn("server deadline reached, killing", zap.Int("pid", h.pid), zap.Duration("timeout", args.Timeout))
			_ = h.Kill()
		})
	}

	go func() {
		err := cmd.Wait()
		if h.timer != nil {
			h.timer.Stop()
		}
		if err != nil && !h.killed.Load() && ctx.Err() == nil {
			s.logger.Warn("server exited abnormally", zap.Int("pid", h.pid), zap.Error(err))
			_ = cmd.Process.Kill()
		}
		h.finish(err)
	}()
	return h, nil
}

// Current returns the most recently started handle, or nil.
func (s *Supervisor) Current() *Handle {
	return s.current.Load()
}

// Handle is a running (or finished) server process.
type Handle struct {
	cmd      *exec.Cmd
	pid      int
	detector *ReadyDetector
	timer    *time.Timer

	killed atomic.Bool
	done   chan struct{}
	err    error
}

func (h *Handle) finish(err error) {
	h.err = err
	close(h.done)
}

// PID returns the process id, or 0 if the process never started.
func (h *Handle) PID() int { return h.pid }

// Done is closed once the process has exited and its output is drained.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the process exits and returns its exit error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Err returns the exit error once the process has finished, nil before.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Exited reports whether the process has finished.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Killed reports whether Kill was called.
func (h *Handle) Killed() bool { return h.killed.Load() }

// Kill sends SIGKILL. Killing a finished process is not an error.
func (h *Handle) Kill() error {
	h.killed.Store(true)
	if h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Detach stops readiness detection. Output keeps flowing to the parent.
func (h *Handle) Detach() {
	if h.detector != nil {
		h.detector.Detach()
	}
}
