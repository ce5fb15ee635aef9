package gpu

import "errors"

var (
	// ErrDeviceUnavailable indicates no suitable GPU adapter exists. This is
	// a hard capability error: there is no alternate backend to fall back
	// to, so acquisition is never retried automatically.
	ErrDeviceUnavailable = errors.New("gpu: no suitable GPU adapter available")

	// ErrShaderCompile indicates the adjustment shader failed to compile.
	// The pipeline cannot run at all; this is fatal at first GPU use.
	ErrShaderCompile = errors.New("gpu: shader compilation failed")

	// ErrRenderFailed indicates a per-request dispatch failure, e.g. an
	// out-of-memory texture allocation. It is transient: previously cached
	// results remain valid and the request may be retried.
	ErrRenderFailed = errors.New("gpu: render dispatch failed")

	// ErrNoSource indicates Dispatch was called before a source upload.
	ErrNoSource = errors.New("gpu: no source texture uploaded")
)
