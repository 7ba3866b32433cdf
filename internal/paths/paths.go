package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// JarName is the fixed filename the server binary is downloaded to.
	JarName        = "server.jar"
	PropertiesName = "server.properties"
	EulaName       = "eula.txt"
	LogsDirName    = "logs"

	dirPrefix = "mc-"
)

// Installation captures canonical locations for one server installation.
// Identity is the absolute Dir.
type Installation struct {
	Version    string
	Root       string
	Dir        string
	Jar        string
	Properties string
	Eula       string
	LogsDir    string
}

// Resolve determines the installation directory for version. An explicit
// path wins; a relative explicit path is taken relative to root. Without an
// explicit path the directory is root/mc-<version>. An empty root means the
// current working directory.
func Resolve(version, root, explicit string) (Installation, error) {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Installation{}, fmt.Errorf("resolve root: %w", err)
	}

	dir := explicit
	if dir == "" {
		dir = dirPrefix + version
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(absRoot, dir)
	}
	return newInstallation(version, absRoot, filepath.Clean(dir)), nil
}

func newInstallation(version, root, dir string) Installation {
	return Installation{
		Version:    version,
		Root:       root,
		Dir:        dir,
		Jar:        filepath.Join(dir, JarName),
		Properties: filepath.Join(dir, PropertiesName),
		Eula:       filepath.Join(dir, EulaName),
		LogsDir:    filepath.Join(dir, LogsDirName),
	}
}

// Populated reports whether the installation directory exists and holds more
// than one entry. This is a heuristic: it does not check the jar's contents
// or version, and a directory holding a single stray file counts as empty.
func (i Installation) Populated() (bool, error) {
	entries, err := os.ReadDir(i.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read installation dir: %w", err)
	}
	return len(entries) > 1, nil
}

// EnsureDir creates the installation directory.
func (i Installation) EnsureDir() error {
	if err := os.MkdirAll(i.Dir, 0o755); err != nil {
		return fmt.Errorf("create installation dir: %w", err)
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// FileSize returns the size of the file at path.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
