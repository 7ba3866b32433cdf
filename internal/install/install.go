package install

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"mcserver/internal/catalog"
	"mcserver/internal/paths"
)

// DefaultStallTimeout bounds how long a download may go without receiving
// any bytes.
const DefaultStallTimeout = 20 * time.Second

const userAgent = "mcserver/1.0"

// MetadataSource resolves a version id to its server download.
type MetadataSource interface {
	Metadata(ctx context.Context, versionID string) (catalog.Metadata, error)
}

// Result describes an installation after Acquire.
type Result struct {
	Version string `json:"version"`
	Path    string `json:"path"`
	// Downloaded is false when an existing installation was reused.
	Downloaded bool `json:"downloaded"`
}

// Installer downloads server jars into installation directories. At most one
// download runs at a time per Installer; a second concurrent Acquire fails
// with ConcurrentAcquisitionError instead of waiting.
type Installer struct {
	source  MetadataSource
	client  *http.Client
	stall   time.Duration
	logger  *zap.Logger
	lock    chan struct{}
	nowFunc func() time.Time
}

// Options tunes an Installer. Zero values select defaults.
type Options struct {
	Client       *http.Client
	StallTimeout time.Duration
	Logger       *zap.Logger
}

// New builds an Installer resolving downloads through source.
func New(source MetadataSource, opts Options) *Installer {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.StallTimeout <= 0 {
		opts.StallTimeout = DefaultStallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Installer{
		source:  source,
		client:  opts.Client,
		stall:   opts.StallTimeout,
		logger:  opts.Logger,
		lock:    make(chan struct{}, 1),
		nowFunc: time.Now,
	}
}

// Acquire makes sure a server jar for version exists in the installation
// directory (explicit path, or root/mc-<version>). A directory holding more
// than one entry is reused as is, without any network i/o.
func (i *Installer) Acquire(ctx context.Context, version, root, explicit string) (Result, error) {
	inst, err := paths.Resolve(version, root, explicit)
	if err != nil {
		return Result{}, err
	}

	populated, err := inst.Populated()
	if err != nil {
		return Result{}, err
	}
	if populated {
		i.logger.Debug("already downloaded", zap.String("version", version), zap.String("path", inst.Dir))
		return Result{Version: version, Path: inst.Dir}, nil
	}

	if !i.tryLock() {
		return Result{}, &ConcurrentAcquisitionError{Version: version}
	}
	defer i.unlock()

	meta, err := i.source.Metadata(ctx, version)
	if err != nil {
		return Result{}, err
	}
	if err := inst.EnsureDir(); err != nil {
		return Result{}, err
	}

	i.logger.Info("downloading server",
		zap.String("version", version),
		zap.String("url", meta.ServerURL),
		zap.String("size", humanize.Bytes(uint64(max(meta.ServerSize, 0)))))

	start := i.nowFunc()
	written, err := i.download(ctx, inst.Jar, meta)
	if err != nil {
		return Result{}, err
	}
	i.logger.Info("downloaded server",
		zap.String("version", version),
		zap.String("path", inst.Jar),
		zap.String("size", humanize.Bytes(uint64(written))),
		zap.Duration("elapsed", i.nowFunc().Sub(start)))

	return Result{Version: version, Path: inst.Dir, Downloaded: true}, nil
}

// Erase removes the installation directory and clears the acquisition lock
// whether or not it is held, so a crashed holder cannot lock out recovery.
func (i *Installer) Erase(version, root, explicit string) error {
	defer i.unlock()

	inst, err := paths.Resolve(version, root, explicit)
	if err != nil {
		return err
	}
	i.logger.Info("removing server", zap.String("version", version), zap.String("path", inst.Dir))
	if err := os.RemoveAll(inst.Dir); err != nil {
		return fmt.Errorf("remove installation: %w", err)
	}
	return nil
}

func (i *Installer) tryLock() bool {
	select {
	case i.lock <- struct{}{}:
		return true
	default:
		return false
	}
}

func (i *Installer) unlock() {
	select {
	case <-i.lock:
	default:
	}
}

func (i *Installer) download(ctx context.Context, dest string, meta catalog.Metadata) (int64, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	stalled := errors.New("download stalled")
	timer := time.AfterFunc(i.stall, func() { cancel(stalled) })
	defer timer.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.ServerURL, nil)
	if err != nil {
		return 0, &DownloadError{URL: meta.ServerURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := i.client.Do(req)
	if err != nil {
		return 0, &DownloadError{URL: meta.ServerURL, Err: downloadCause(ctx, err), Timeout: context.Cause(ctx) == stalled}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &DownloadError{URL: meta.ServerURL, Status: resp.StatusCode}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	hash := sha1.New()
	body := &stallReader{r: resp.Body, timer: timer, d: i.stall}
	written, err := io.Copy(io.MultiWriter(tmpFile, hash), body)
	if err != nil {
		tmpFile.Close()
		return 0, &DownloadError{URL: meta.ServerURL, Err: downloadCause(ctx, err), Timeout: context.Cause(ctx) == stalled}
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if meta.ServerSHA1 != "" {
		sum := hex.EncodeToString(hash.Sum(nil))
		if !strings.EqualFold(sum, meta.ServerSHA1) {
			return 0, &DownloadError{URL: meta.ServerURL, Err: fmt.Errorf("checksum mismatch: got %s, want %s", sum, meta.ServerSHA1)}
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("finalize download: %w", err)
	}
	return written, nil
}

func downloadCause(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(err, cause) {
		return fmt.Errorf("%w: %w", cause, err)
	}
	return err
}

// stallReader pushes the stall deadline back every time bytes arrive.
type stallReader struct {
	r     io.Reader
	timer *time.Timer
	d     time.Duration
}

func (s *stallReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.timer.Reset(s.d)
	}
	return n, err
}
