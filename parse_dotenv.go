package snapconfig

import (
	"bytes"
	"log/slog"

	"github.com/joho/godotenv"
)

//============================================= dotenv Parser

// parseDotenv implements the dotenv leaf parser per spec.md §6. godotenv
// already implements the line syntax (optional leading "export ", "#" line
// comments unless quoted, quote-stripped "…"/'…' values); snapconfig layers
// its own scalar coercion (coerce.go) on top, since godotenv's contract
// stops at producing raw string values.
func parseDotenv(data []byte) (Node, error) {
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return Node{}, wrapError(KindParseError, err, "parsing dotenv")
	}

	fields := make([]Field, 0, len(vars))
	for k, v := range vars {
		fields = append(fields, Field{Key: k, Value: coerceScalar(v)})
	}

	return Object(fields, slog.Default()), nil
}
