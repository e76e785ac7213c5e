package jsonrepair

import "strings"

// ExtractObject returns the {...} span opened by the first '{' in text,
// skipping braces inside string literals. When it never balances the span
// runs to the last '}' (or to the end of text) and is left for repair.
func ExtractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	return objectFrom(text, start), true
}

// objectFrom returns the span opened by text[start].
func objectFrom(text string, start int) string {
	if end := matchBrace(text, start); end > 0 {
		return text[start : end+1]
	}

	if end := strings.LastIndexByte(text, '}'); end > start {
		return text[start : end+1]
	}
	// truncated output: hand back the tail and let the caller repair it
	return text[start:]
}

// matchBrace returns the index of the brace closing text[start], or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
