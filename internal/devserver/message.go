package devserver

import (
	"path/filepath"
	"strings"
)

// Kinds of reload messages.
const (
	KindInject = "inject"
	KindReload = "reload"
)

// Message is pushed to every client after a rebuild.
type Message struct {
	Type string `json:"type"`
	// Paths are the changed files as URL paths below the server root.
	Paths []string `json:"paths"`
}

// newMessage maps changed files to URL paths under root. Files outside root
// are dropped; ok is false when nothing served changed.
func newMessage(root string, files []string, injectChanges bool) (msg Message, ok bool) {
	root = filepath.Clean(root)
	allCSS := true
	for _, f := range files {
		rel, err := filepath.Rel(root, filepath.Clean(f))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		urlPath := "/" + filepath.ToSlash(rel)
		if strings.HasSuffix(urlPath, ".map") {
			continue
		}
		msg.Paths = append(msg.Paths, urlPath)
		if filepath.Ext(rel) != ".css" {
			allCSS = false
		}
	}
	if len(msg.Paths) == 0 {
		return msg, false
	}
	msg.Type = KindReload
	if injectChanges && allCSS {
		msg.Type = KindInject
	}
	return msg, true
}
