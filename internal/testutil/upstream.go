package testutil

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mcserver/internal/jsonutil"
)

const (
	// SnapshotID is the snapshot the fake manifest advertises as latest.
	SnapshotID = "23w51a"
	// NoServerID is listed in the manifest but publishes no server jar.
	NoServerID = "a1.0.4"
)

// Upstream is a fake launcher-meta service.
type Upstream struct {
	Server *httptest.Server
	// Jar is served for every version's server download.
	Jar []byte

	mu        sync.Mutex
	hits      map[string]int
	versions  []string
	jarStatus int
	jarDelay  time.Duration
	badSHA1   bool
}

// NewUpstream serves a manifest listing SnapshotID, then releases in the
// given order (the first is latest), then NoServerID.
func NewUpstream(t testing.TB, releases ...string) *Upstream {
	t.Helper()
	u := &Upstream{
		Jar:      []byte("PK\x03\x04 fake server jar"),
		hits:     map[string]int{},
		versions: releases,
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

// ManifestURL is the URL to configure a catalog with.
func (u *Upstream) ManifestURL() string { return u.Server.URL + "/manifest.json" }

// Hits returns how many requests reached path.
func (u *Upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// JarHits counts server jar downloads for version.
func (u *Upstream) JarHits(version string) int { return u.Hits(jarPath(version)) }

// FailJar makes jar downloads answer with status. Zero restores success.
func (u *Upstream) FailJar(status int) {
	u.mu.Lock()
	u.jarStatus = status
	u.mu.Unlock()
}

// SlowJar delays jar responses by d.
func (u *Upstream) SlowJar(d time.Duration) {
	u.mu.Lock()
	u.jarDelay = d
	u.mu.Unlock()
}

// CorruptSHA1 advertises a checksum that will not match the served jar.
func (u *Upstream) CorruptSHA1() {
	u.mu.Lock()
	u.badSHA1 = true
	u.mu.Unlock()
}

func jarPath(version string) string { return "/jar/" + version + "/server.jar" }

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.Path]++
	status, delay, badSHA1 := u.jarStatus, u.jarDelay, u.badSHA1
	u.mu.Unlock()

	switch {
	case r.URL.Path == "/manifest.json":
		writeJSON(w, u.manifest())
	case strings.HasPrefix(r.URL.Path, "/v/"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v/"), ".json")
		writeJSON(w, u.metadata(id, badSHA1))
	case strings.HasPrefix(r.URL.Path, "/jar/"):
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			http.Error(w, "unavailable", status)
			return
		}
		w.Header().Set("Content-Type", "application/java-archive")
		_, _ = w.Write(u.Jar)
	default:
		http.NotFound(w, r)
	}
}

func (u *Upstream) manifest() map[string]any {
	type entry struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		URL         string `json:"url"`
		Time        string `json:"time"`
		ReleaseTime string `json:"releaseTime"`
	}
	base := time.Date(2023, 12, 20, 10, 0, 0, 0, time.UTC)
	stamp := func(i int) string { return base.Add(-time.Duration(i) * 24 * time.Hour).Format(time.RFC3339) }

	entries := []entry{{ID: SnapshotID, Type: "snapshot", URL: u.Server.URL + "/v/" + SnapshotID + ".json", Time: stamp(0), ReleaseTime: stamp(0)}}
	for i, id := range u.versions {
		entries = append(entries, entry{ID: id, Type: "release", URL: u.Server.URL + "/v/" + id + ".json", Time: stamp(i + 1), ReleaseTime: stamp(i + 1)})
	}
	n := len(entries)
	entries = append(entries, entry{ID: NoServerID, Type: "old_alpha", URL: u.Server.URL + "/v/" + NoServerID + ".json", Time: stamp(n), ReleaseTime: stamp(n)})

	latest := ""
	if len(u.versions) > 0 {
		latest = u.versions[0]
	}
	return map[string]any{
		"latest":   map[string]string{"release": latest, "snapshot": SnapshotID},
		"versions": entries,
	}
}

func (u *Upstream) metadata(id string, badSHA1 bool) map[string]any {
	doc := map[string]any{"id": id, "type": "release", "mainClass": "net.minecraft.client.main.Main"}
	if id == NoServerID {
		doc["downloads"] = map[string]any{"client": map[string]any{"url": u.Server.URL + "/jar/" + id + "/client.jar"}}
		return doc
	}
	sum := sha1.Sum(u.Jar)
	digest := hex.EncodeToString(sum[:])
	if badSHA1 {
		digest = strings.Repeat("0", len(digest))
	}
	doc["downloads"] = map[string]any{
		"server": map[string]any{
			"url":  u.Server.URL + jarPath(id),
			"sha1": digest,
			"size": len(u.Jar),
		},
	}
	return doc
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := jsonutil.JSON.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode: %v", err), http.StatusInternalServerError)
	}
}
