package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"mcserver/internal/jsonutil"
)

const (
	// DefaultManifestURL is the upstream launcher manifest.
	DefaultManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	// TokenLatest and TokenSnapshot resolve through the manifest's latest
	// pointers rather than by position.
	TokenLatest   = "latest"
	TokenSnapshot = "snapshot"

	defaultListMax = 20
	userAgent      = "mcserver/1.0"
	maxMetadataLen = 4 << 20
)

// VersionType classifies a manifest entry.
type VersionType string

const (
	TypeRelease  VersionType = "release"
	TypeSnapshot VersionType = "snapshot"
	TypeOldBeta  VersionType = "old_beta"
	TypeOldAlpha VersionType = "old_alpha"
)

// Latest points at the newest release and snapshot ids.
type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// VersionEntry is one row of the upstream manifest.
type VersionEntry struct {
	ID          string      `json:"id"`
	Type        VersionType `json:"type"`
	URL         string      `json:"url"`
	Time        time.Time   `json:"time"`
	ReleaseTime time.Time   `json:"releaseTime"`
}

// Manifest lists every known version, most recent first.
type Manifest struct {
	Latest   Latest         `json:"latest"`
	Versions []VersionEntry `json:"versions"`
}

// Find returns the entry with the given id.
func (m *Manifest) Find(id string) (VersionEntry, bool) {
	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return VersionEntry{}, false
}

// Metadata is the part of a per-version document needed to fetch the server.
type Metadata struct {
	ID         string `json:"id"`
	ServerURL  string `json:"server_url"`
	ServerSHA1 string `json:"server_sha1,omitempty"`
	ServerSize int64  `json:"server_size,omitempty"`
}

// Catalog resolves version tokens against the upstream manifest. The
// manifest is fetched once and reused for the catalog's lifetime; there is
// no invalidation. Per-version metadata is fetched on every call.
type Catalog struct {
	url    string
	client *http.Client
	logger *zap.Logger

	mu       sync.Mutex
	manifest *Manifest
}

// New builds a catalog. Empty url selects DefaultManifestURL, nil client a
// 30 second client, nil logger a no-op logger.
func New(url string, client *http.Client, logger *zap.Logger) *Catalog {
	if url == "" {
		url = DefaultManifestURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{url: url, client: client, logger: logger}
}

// Manifest returns the memoized manifest, fetching it on first use. A failed
// fetch is not remembered, so the next call tries again.
func (c *Catalog) Manifest(ctx context.Context) (*Manifest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.manifest != nil {
		return c.manifest, nil
	}

	var m Manifest
	if err := c.getJSON(ctx, c.url, func(body io.Reader) error {
		return jsonutil.Decode(body, &m)
	}); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched version manifest",
		zap.Int("versions", len(m.Versions)),
		zap.String("latest", m.Latest.Release),
		zap.String("snapshot", m.Latest.Snapshot))
	c.manifest = &m
	return c.manifest, nil
}

// ListRecent returns up to max entries in upstream order. max <= 0 means 20.
func (c *Catalog) ListRecent(ctx context.Context, max int) ([]VersionEntry, error) {
	m, err := c.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = defaultListMax
	}
	if max > len(m.Versions) {
		max = len(m.Versions)
	}
	out := make([]VersionEntry, max)
	copy(out, m.Versions[:max])
	return out, nil
}

// Resolve maps a version token to a manifest entry. "latest" and "snapshot"
// follow the manifest's latest pointers; anything else is an explicit id.
func (c *Catalog) Resolve(ctx context.Context, token string) (VersionEntry, error) {
	m, err := c.Manifest(ctx)
	if err != nil {
		return VersionEntry{}, err
	}

	id := token
	switch token {
	case TokenLatest:
		id = m.Latest.Release
	case TokenSnapshot:
		id = m.Latest.Snapshot
	}

	entry, ok := m.Find(id)
	if !ok {
		return VersionEntry{}, &VersionNotFoundError{Version: token}
	}
	return entry, nil
}

// Metadata fetches the per-version document for versionID and extracts the
// server download.
func (c *Catalog) Metadata(ctx context.Context, versionID string) (Metadata, error) {
	m, err := c.Manifest(ctx)
	if err != nil {
		return Metadata{}, err
	}
	entry, ok := m.Find(versionID)
	if !ok {
		return Metadata{}, &VersionNotFoundError{Version: versionID}
	}

	var doc []byte
	if err := c.getJSON(ctx, entry.URL, func(body io.Reader) error {
		var readErr error
		doc, readErr = io.ReadAll(io.LimitReader(body, maxMetadataLen))
		return readErr
	}); err != nil {
		return Metadata{}, err
	}
	if !gjson.ValidBytes(doc) {
		return Metadata{}, &NetworkError{URL: entry.URL, Err: fmt.Errorf("invalid metadata document")}
	}

	fields := gjson.GetManyBytes(doc, "id", "downloads.server.url", "downloads.server.sha1", "downloads.server.size")
	meta := Metadata{
		ID:         fields[0].String(),
		ServerURL:  fields[1].String(),
		ServerSHA1: fields[2].String(),
		ServerSize: fields[3].Int(),
	}
	if meta.ID == "" {
		meta.ID = versionID
	}
	if meta.ServerURL == "" {
		return Metadata{}, &VersionNotFoundError{Version: versionID, Reason: "no server download published"}
	}
	return meta, nil
}

func (c *Catalog) getJSON(ctx context.Context, url string, read func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NetworkError{URL: url, Status: resp.StatusCode}
	}
	if err := read(resp.Body); err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	return nil
}
