package warmup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"spacyserver/app/config"

	"github.com/samber/do"
)

// Marker persists the latest deployed function version between invocations.
type Marker struct {
	path string
}

func NewMarker(di *do.Injector) (*Marker, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Marker{
		path: cfg.Lambda.VersionFile,
	}, nil
}

func (m *Marker) Path() string {
	return m.path
}

func (m *Marker) Write(version string) error {
	if err := os.WriteFile(m.path, []byte(version), 0644); err != nil {
		return fmt.Errorf("failed to write version marker: %w", err)
	}

	return nil
}

// Read returns the recorded version, or "" when nothing was recorded yet.
func (m *Marker) Read() (string, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read version marker: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}
