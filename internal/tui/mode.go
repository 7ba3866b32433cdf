package tui

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode selects how commands report progress.
type OutputMode int

const (
	// ModeTUI animates progress with bubbletea.
	ModeTUI OutputMode = iota
	// ModePlain prints lines as work happens.
	ModePlain
	// ModeJSON prints one JSON document at the end.
	ModeJSON
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeJSON:
		return "json"
	default:
		return "plain"
	}
}

// DetectMode picks ModeTUI only when out is an interactive terminal.
func DetectMode(out io.Writer, plain, jsonOutput bool) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case plain:
		return ModePlain
	}
	f, ok := out.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return ModePlain
	}
	if runtime.GOOS != "windows" {
		if term := os.Getenv("TERM"); term == "" || strings.EqualFold(term, "dumb") {
			return ModePlain
		}
	}
	return ModeTUI
}
