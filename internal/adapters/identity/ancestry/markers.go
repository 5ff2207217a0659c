package ancestry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	markerDirMode     = 0o700
	markerFileMode    = 0o600
	markerExt         = ".toml"
	tempMarkerPattern = ".marker-*.toml.tmp"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Marker ties a host session to the pid of the process that launched the
// agent, so commands run by that agent can find their session by walking
// up their own process tree.
type Marker struct {
	SessionID string    `toml:"session_id"`
	ParentPID int       `toml:"parent_pid"`
	CreatedAt time.Time `toml:"created_at"`
}

type Markers struct {
	dir   string
	alive func(pid int) bool
}

var _ ports.SessionMarkers = (*Markers)(nil)

func NewMarkers(dir string) *Markers {
	return &Markers{dir: filepath.Clean(dir), alive: processAlive}
}

func (m *Markers) Dir() string {
	return m.dir
}

func (m *Markers) Record(token domain.SessionToken, parentPID int, at time.Time) error {
	_, err := m.Write(Marker{SessionID: string(token), ParentPID: parentPID, CreatedAt: at})
	return err
}

// Write stores marker atomically and returns the file path.
func (m *Markers) Write(marker Marker) (string, error) {
	if strings.TrimSpace(marker.SessionID) == "" {
		return "", errors.New("marker session id is empty")
	}
	if marker.ParentPID <= 0 {
		return "", fmt.Errorf("invalid marker parent pid %d", marker.ParentPID)
	}

	if err := os.MkdirAll(m.dir, markerDirMode); err != nil {
		return "", fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := toml.Marshal(marker)
	if err != nil {
		return "", fmt.Errorf("encode session marker: %w", err)
	}

	path := filepath.Join(m.dir, unsafeFileChars.ReplaceAllString(marker.SessionID, "_")+markerExt)

	tempFile, err := os.CreateTemp(m.dir, tempMarkerPattern)
	if err != nil {
		return "", fmt.Errorf("create temp session marker: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("write temp session marker: %w", err)
	}

	if err := tempFile.Chmod(markerFileMode); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("chmod temp session marker: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("close temp session marker: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return "", fmt.Errorf("replace session marker: %w", err)
	}

	cleanup = false
	return path, nil
}

// List returns every readable marker, newest first. Unreadable or corrupt
// files are skipped.
func (m *Markers) List() ([]Marker, error) {
	paths, err := m.paths()
	if err != nil {
		return nil, err
	}

	markers := make([]Marker, 0, len(paths))
	for _, path := range paths {
		marker, err := readMarker(path)
		if err != nil {
			continue
		}
		markers = append(markers, marker)
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].CreatedAt.After(markers[j].CreatedAt)
	})

	return markers, nil
}

// Prune removes markers whose recorded process has exited, along with
// corrupt marker files, and returns how many files were removed.
func (m *Markers) Prune() (int, error) {
	paths, err := m.paths()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range paths {
		marker, err := readMarker(path)
		if err == nil && m.alive(marker.ParentPID) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove session marker: %w", err)
		}
		removed++
	}

	return removed, nil
}

func (m *Markers) paths() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != markerExt || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(m.dir, entry.Name()))
	}

	return paths, nil
}

func readMarker(path string) (Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Marker{}, fmt.Errorf("read session marker: %w", err)
	}

	var marker Marker
	if err := toml.Unmarshal(data, &marker); err != nil {
		return Marker{}, fmt.Errorf("decode session marker: %w", err)
	}
	if marker.SessionID == "" || marker.ParentPID <= 0 {
		return Marker{}, fmt.Errorf("incomplete session marker %s", filepath.Base(path))
	}

	return marker, nil
}
