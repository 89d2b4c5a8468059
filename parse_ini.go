package snapconfig

import (
	"log/slog"

	"gopkg.in/ini.v1"
)

//============================================= INI Parser

// parseINI implements the INI leaf parser per spec.md §6: sections become
// a top-level Object, each section becomes an Object of key->value, and
// every value runs through the shared coerceScalar rules in coerce.go.
func parseINI(data []byte) (Node, error) {
	file, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, data)
	if err != nil {
		return Node{}, wrapError(KindParseError, err, "parsing INI")
	}

	var sections []Field
	for _, sec := range file.Sections() {
		// ini.v1 always synthesizes a DEFAULT section even when the source
		// declares no keys ahead of its first [section] header; skip it
		// unless the source actually populated it, so compiled documents
		// don't gain a section that was never in the text.
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}

		var keys []Field
		for _, key := range sec.Keys() {
			keys = append(keys, Field{Key: key.Name(), Value: coerceScalar(key.Value())})
		}
		sections = append(sections, Field{Key: sec.Name(), Value: Object(keys, slog.Default())})
	}

	return Object(sections, slog.Default()), nil
}
