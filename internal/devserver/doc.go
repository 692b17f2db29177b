// Package devserver serves the build output during development and pushes
// reload messages to connected browsers.
//
// Pages served as HTML get a small client script injected before </body>.
// The script listens on a websocket and either swaps changed stylesheets in
// place or reloads the page. The same messages are broadcast as `reload`
// events over socket.io for external tooling.
package devserver
