// Package app wires a loaded configuration to the pipeline. It compiles the
// tasks, runs the build and dev groups, starts the dev server and watch
// dispatcher for a dev session and publishes the output root. It knows
// nothing about flags or exit codes; see package cli.
package app
