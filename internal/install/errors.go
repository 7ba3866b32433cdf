package install

import (
	"fmt"
	"net/http"
)

// ConcurrentAcquisitionError is returned when another acquisition already
// holds the installer's lock.
type ConcurrentAcquisitionError struct {
	Version string
}

func (e *ConcurrentAcquisitionError) Error() string {
	return fmt.Sprintf("acquire %s: already downloading server", e.Version)
}

// DownloadError reports a server jar download that failed: non-2xx status,
// transport failure, stall timeout, or checksum mismatch.
type DownloadError struct {
	URL     string
	Status  int
	Timeout bool
	Err     error
}

func (e *DownloadError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("download %s: server returned code %d %s", e.URL, e.Status, http.StatusText(e.Status))
	case e.Timeout:
		return fmt.Sprintf("download %s: timed out: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	}
}

func (e *DownloadError) Unwrap() error { return e.Err }
