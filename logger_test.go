package darkroom

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	// Default logger discards silently.
	Logger().Info("should vanish")

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("configured logger did not receive output: %q", buf.String())
	}

	// nil restores the silent default.
	SetLogger(nil)
	buf.Reset()
	Logger().Info("should vanish too")
	if buf.Len() != 0 {
		t.Errorf("nil SetLogger still wrote output: %q", buf.String())
	}
}
