// Package watch re-runs tasks when their sources change and tells the
// browser to reload once the new output is on disk.
//
// Every binding owns a file system listener and a small state machine:
//
//	Idle -> Rerunning -> Notifying -> Idle
//
// Changes arriving inside the debounce window, or while a run is in
// progress, coalesce into a single follow-up run.
package watch
