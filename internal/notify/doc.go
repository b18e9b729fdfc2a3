// Package notify is the multi-channel notification pipeline: in-app toast,
// audio cue, and OS-level desktop notification behind one Notify call. The
// channels are attempted independently so one failing never blocks the rest.
package notify
