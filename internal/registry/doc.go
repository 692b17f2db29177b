// Package registry provides the central "glue" for the module system.
//
// The Registry maps the stage type names used in configuration files (e.g.
// "sass", "concat") to the compiled Go constructors that build them, together
// with the options struct each stage decodes its settings into.
//
// During application startup, the registry is populated by every core module
// and then validated against the loaded model, so that unknown stage types or
// malformed options are reported before any task runs.
package registry
