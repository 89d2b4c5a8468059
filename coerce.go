package snapconfig

import "strconv"

//============================================= Shared Scalar Coercion
//
// INI and dotenv share one textual-value coercion table per spec.md §6:
// empty -> empty string, nil/null/None (any case) -> Null, true/false (any
// case) -> Bool, a pure decimal integer -> Int, otherwise a String with
// surrounding quotes stripped if present.

func coerceScalar(raw string) Node {
	if raw == "" {
		return String("")
	}

	stripped := stripQuotes(raw)

	switch asciiLower(stripped) {
	case "nil", "null", "none":
		return Null()
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}

	if isPureDecimalInt(stripped) {
		if i, err := strconv.ParseInt(stripped, 10, 64); err == nil {
			return Int(i)
		}
	}

	return String(stripped)
}

func stripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func asciiLower(s string) string {
	buf := []byte(s)
	for i, c := range buf {
		if c >= 'A' && c <= 'Z' {
			buf[i] = c + ('a' - 'A')
		}
	}
	return string(buf)
}

func isPureDecimalInt(s string) bool {
	i := 0
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		i = 1
	}
	if i >= len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
