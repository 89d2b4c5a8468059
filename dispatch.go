package snapconfig

import (
	"path/filepath"
	"strings"
)

//============================================= Parser Dispatch

// Format names the text format a source document is written in.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatINI    Format = "ini"
	FormatDotenv Format = "dotenv"
)

// parseFunc is the shape every format parser satisfies: a pure function
// from source bytes to an abstract tree. Per spec.md §4.6, parsers share no
// state and coerce their own typed scalars.
type parseFunc func([]byte) (Node, error)

var parsersByFormat = map[Format]parseFunc{
	FormatJSON:   parseJSON,
	FormatYAML:   parseYAML,
	FormatTOML:   parseTOML,
	FormatINI:    parseINI,
	FormatDotenv: parseDotenv,
}

var parsersByExt = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".toml": FormatTOML,
	".ini":  FormatINI,
	".env":  FormatDotenv,
}

// DetectFormat maps a source path's extension to a Format, or reports
// ParseError if the extension is not recognized.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := parsersByExt[ext]; ok {
		return f, nil
	}
	return "", newError(KindParseError, "no parser registered for extension %q", ext)
}

// ParseSource dispatches data to the parser for format and returns the
// abstract tree it emits.
func ParseSource(format Format, data []byte) (Node, error) {
	fn, ok := parsersByFormat[format]
	if !ok {
		return Node{}, newError(KindParseError, "no parser registered for format %q", format)
	}
	return fn(data)
}
