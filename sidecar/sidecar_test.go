package sidecar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/darkroom/adjust"
)

func TestPath(t *testing.T) {
	tests := []struct {
		image string
		want  string
	}{
		{"photo.nef", "photo.drk.json"},
		{"/shoots/day1/IMG_0042.CR3", "/shoots/day1/IMG_0042.drk.json"},
		{"noext", "noext.drk.json"},
	}
	for _, tt := range tests {
		if got := Path(tt.image); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.image, got, tt.want)
		}
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.drk.json")

	adj := adjust.Default()
	adj.Light.Exposure = 1.25
	adj.Effects.Vibrance = 40
	if err := Save(path, adj); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Light.Exposure != 1.25 || loaded.Effects.Vibrance != 40 {
		t.Errorf("loaded %v / %v, want 1.25 / 40", loaded.Light.Exposure, loaded.Effects.Vibrance)
	}
}

func TestLoad_MissingFileIsDefaults(t *testing.T) {
	adj, err := Load(filepath.Join(t.TempDir(), "nope.drk.json"))
	if err != nil {
		t.Fatalf("missing sidecar must not error, got %v", err)
	}
	if !equalAdjust(adj, adjust.Default()) {
		t.Error("missing sidecar did not load defaults")
	}
}

func TestLoad_CorruptFileDegradesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.drk.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	adj, err := Load(path)
	if err == nil {
		t.Error("corrupt sidecar should surface a warning error")
	}
	if !equalAdjust(adj, adjust.Default()) {
		t.Error("corrupt sidecar did not degrade to defaults")
	}
}

func TestSave_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.drk.json")
	if err := Save(path, adjust.Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Overwrite and verify no temp files leak.
	adj := adjust.Default()
	adj.Light.Contrast = 10
	if err := Save(path, adj); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries after save, want 1", len(entries))
	}
}

func TestAutosaver_DebouncedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.drk.json")
	a := &Autosaver{Debounce: 20 * time.Millisecond}
	defer a.Close()

	adj := adjust.Default()
	adj.Light.Exposure = 0.5
	a.Note(path, adj)
	adj.Light.Exposure = 1.5
	a.Note(path, adj)

	// Only the final state lands, after the quiet period.
	if _, err := os.Stat(path); err == nil {
		t.Error("sidecar written before debounce elapsed")
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("autosave never wrote the sidecar")
		}
		time.Sleep(5 * time.Millisecond)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Light.Exposure != 1.5 {
		t.Errorf("autosaved exposure = %v, want the latest value 1.5", loaded.Light.Exposure)
	}
}

func TestAutosaver_RapidNotesDoNotPanic(t *testing.T) {
	// A Note landing just as the previous timer fires must not run one
	// arming's callback twice. Hammer with a debounce short enough that
	// timers fire mid-Note.
	path := filepath.Join(t.TempDir(), "img.drk.json")
	a := &Autosaver{Debounce: time.Microsecond}

	adj := adjust.Default()
	for i := 0; i < 5000; i++ {
		adj.Light.Exposure = float64(i%40) / 10
		a.Note(path, adj)
	}
	a.Close()

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Light.Exposure != float64(4999%40)/10 {
		t.Errorf("final exposure = %v, want %v", loaded.Light.Exposure, float64(4999%40)/10)
	}
}

func TestAutosaver_CloseFlushesPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.drk.json")
	a := &Autosaver{Debounce: time.Hour}
	adj := adjust.Default()
	adj.Light.Blacks = -20
	a.Note(path, adj)
	a.Close()

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Light.Blacks != -20 {
		t.Errorf("flushed blacks = %v, want -20", loaded.Light.Blacks)
	}
}

func equalAdjust(a, b adjust.Adjustments) bool {
	return string(a.Encode()) == string(b.Encode())
}
