// Package adjust defines the versioned, fully-defaulted edit parameter model
// for non-destructive image adjustment.
//
// An Adjustments value describes every edit applied to a source image:
// exposure and tone, curves, HSL, color grading, detail, creative effects,
// the geometric transform, and an ordered list of local mask containers.
// The source image is never modified; an Adjustments value is re-applied at
// render time.
//
// Persisted parameter sets (sidecar files) must always be loaded through
// [Normalize], never by direct deserialization. Normalize fills every absent
// field from defaults, migrates stale schema versions forward, and discards
// fields that are no longer recognized, so a forward-incompatible saved file
// still renders predictably.
package adjust
