// Package preview models the run/preview lifecycle of one workspace.
//
// The lifecycle is a closed state machine:
//
//	idle ──run──▶ running ──ok──▶ success ──run──▶ running ...
//	                 │
//	                 └──fail──▶ error ──run──▶ running ...
//
// Transition is the only place state changes. Generation is bumped by
// exactly one on every successful build and is what the preview surface
// keys its remount on, so a rebuilt artifact served from an unchanged URL
// is still reloaded. A failed build keeps the last URL and generation.
//
// Session serializes transitions for concurrent callers. The running phase
// is the only gate: a run requested while another is in flight is rejected
// with ErrRunInProgress and never reaches the dispatcher.
package preview
