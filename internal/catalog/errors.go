package catalog

import (
	"fmt"
	"net/http"
)

// NetworkError reports a manifest or metadata fetch that failed in transport,
// returned a non-2xx status, or could not be decoded.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// VersionNotFoundError reports a version id absent from the manifest, or one
// that publishes no server download.
type VersionNotFoundError struct {
	Version string
	Reason  string
}

func (e *VersionNotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("version %s: %s", e.Version, e.Reason)
	}
	return fmt.Sprintf("version not found: %s", e.Version)
}
