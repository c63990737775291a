package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// New creates a manifest stamped with the current time, ready for its
// Scene/Render/KDTree fields to be filled in by the caller.
func New() *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// WriteJSON serializes m to path with stable indentation.
func WriteJSON(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write %q: %w", path, err)
	}
	return nil
}

// ReadJSON loads a manifest previously written by WriteJSON.
func ReadJSON(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %q: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %q: %w", path, err)
	}
	return &m, nil
}
