// Package gpu owns the process-wide GPU device and the fixed adjustment
// pipeline built on gogpu/wgpu HAL compute shaders.
//
// The device/queue pair is acquired once and memoized; all command
// submission is serialized by the render scheduler's worker, which is the
// only caller of Dispatch. Callers never touch raw HAL handles; they hold
// opaque texture handles and receive rendered pixel bytes.
//
// The uniform data contract between AdjustUniforms and the Params struct in
// shaders/adjust.wgsl is strict: field order, 4-byte alignment and total
// size must match exactly on both sides. Layout drift renders silently wrong
// pixels rather than crashing, so the contract is covered by a structural
// test (layout_test.go) instead of runtime checks.
package gpu
