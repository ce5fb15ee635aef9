package render

import (
	"errors"

	"github.com/gogpu/darkroom/internal/gpu"
)

// GPU error conditions re-exported so callers never import internal
// packages to classify failures.
var (
	// ErrDeviceUnavailable means no usable GPU adapter exists. Fatal for
	// any render capability; never retried automatically.
	ErrDeviceUnavailable = gpu.ErrDeviceUnavailable

	// ErrShaderCompile means the adjustment pipeline failed to compile.
	// Startup-fatal: no render can ever succeed.
	ErrShaderCompile = gpu.ErrShaderCompile

	// ErrRenderFailed is a transient per-request dispatch failure. Prior
	// cached state is untouched; the request is safe to retry.
	ErrRenderFailed = gpu.ErrRenderFailed
)

// ErrStale reports that a preview request was superseded by a newer one
// before its result could be delivered. Not a failure: the caller already
// has a fresher request in flight.
var ErrStale = errors.New("render: request superseded")

// ErrClosed reports a request submitted after Close.
var ErrClosed = errors.New("render: scheduler closed")

// ErrNoSource reports a render for an image that was never opened.
var ErrNoSource = errors.New("render: no source image set")

// IsFatal reports whether err rules out all future renders, as opposed to a
// transient per-request failure.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDeviceUnavailable) || errors.Is(err, ErrShaderCompile)
}
