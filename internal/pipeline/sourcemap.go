package pipeline

import (
	"encoding/base64"
	"fmt"
	"path"
)

// MapSuffix is appended to an output path to name its source map.
const MapSuffix = ".map"

// sourceMappingComment returns the comment linking an output of type ext to
// the map file name. ok is false for types that cannot carry one.
func sourceMappingComment(ext, name string) (comment string, ok bool) {
	switch ext {
	case ".css":
		return fmt.Sprintf("\n/*# sourceMappingURL=%s */\n", name), true
	case ".js", ".mjs", ".cjs":
		return fmt.Sprintf("\n//# sourceMappingURL=%s\n", name), true
	default:
		return "", false
	}
}

// InlineSourceMap returns the asset data with its source map attached as a
// data URL comment, the form transpilers read input maps from. Assets
// without a map are returned unchanged.
func InlineSourceMap(a *Asset) []byte {
	if len(a.SourceMap) == 0 {
		return a.Data
	}
	url := "data:application/json;base64," + base64.StdEncoding.EncodeToString(a.SourceMap)
	comment, ok := sourceMappingComment(path.Ext(a.Path), url)
	if !ok {
		return a.Data
	}
	out := make([]byte, 0, len(a.Data)+len(comment))
	out = append(out, a.Data...)
	return append(out, comment...)
}

// linkSourceMap returns the data to write for a and, when a carries a map
// that its type can link, the map to write at outPath+MapSuffix.
func linkSourceMap(a *Asset) (data, sourceMap []byte) {
	if len(a.SourceMap) == 0 {
		return a.Data, nil
	}
	comment, ok := sourceMappingComment(path.Ext(a.Path), path.Base(a.Path)+MapSuffix)
	if !ok {
		return a.Data, nil
	}
	data = make([]byte, 0, len(a.Data)+len(comment))
	data = append(data, a.Data...)
	return append(data, comment...), a.SourceMap
}
