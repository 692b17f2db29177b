// Package cli builds the assetgrid command tree, validates user input and
// maps failures to process exit codes. It translates flags and environment
// variables into the application's configuration.
package cli
