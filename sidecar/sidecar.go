// Package sidecar persists adjustments as a JSON document beside the source
// image. The source image bytes are never touched; the sidecar is the only
// artifact of an edit session.
package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/darkroom/adjust"
	"github.com/gogpu/darkroom/internal/logging"
)

// Ext is the reserved sidecar extension, appended to the image's base name:
// photo.nef -> photo.drk.json.
const Ext = ".drk.json"

// Path returns the sidecar path for an image path.
func Path(imagePath string) string {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	return base + Ext
}

// Load reads and normalizes the sidecar at path. A missing, unreadable or
// corrupt file degrades to defaults: stale edits must never block opening
// an image. The error return reports the degradation for logging; the
// returned adjustments are always usable.
func Load(path string) (adjust.Adjustments, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return adjust.Default(), nil
		}
		return adjust.Default(), fmt.Errorf("sidecar: read %s: %w", path, err)
	}
	adj, err := adjust.Normalize(raw)
	if err != nil {
		logging.Logger().Warn("sidecar: corrupt file, using defaults", "path", path, "error", err)
		return adjust.Default(), fmt.Errorf("sidecar: parse %s: %w", path, err)
	}
	return adj, nil
}

// Save writes the adjustments atomically: a temp file in the same directory
// is renamed over the target so readers never observe a partial document.
func Save(path string, adj adjust.Adjustments) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".drk-*.tmp")
	if err != nil {
		return fmt.Errorf("sidecar: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(adj.Encode()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sidecar: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sidecar: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sidecar: rename: %w", err)
	}
	return nil
}
