package jsonrepair

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n?(.*?)```")

// Cleanup fixes lexical problems that models commonly produce:
// markdown code fences, // and /* */ comments, trailing and doubled commas,
// unquoted keys, single or typographic quotes, Python literals, raw
// newlines inside strings, missing commas between values, and arrays
// split in two (`["a"] ["b"]`).
func Cleanup(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "\ufeff")
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	return cleanTokens([]rune(s))
}

func cleanTokens(rs []rune) string {
	var (
		out       bytes.Buffer
		inString  bool
		quote     rune
		prev      rune // last significant rune emitted outside strings
		prevEnd   bool // prev closed a complete value
		lastClose = -1
	)

	// 值之间缺逗号时补上
	startValue := func() {
		if prevEnd {
			out.WriteByte(',')
		}
	}

	for i := 0; i < len(rs); i++ {
		r := rs[i]

		if inString {
			switch {
			case r == '\\':
				if i+1 >= len(rs) {
					continue
				}
				next := rs[i+1]
				i++
				if quote == '\'' && next == '\'' {
					out.WriteRune('\'')
					continue
				}
				out.WriteRune(r)
				out.WriteRune(next)
			case closesString(quote, r) && (quote != '\'' || endsSingleQuoted(rs, i+1)):
				out.WriteByte('"')
				inString = false
				prev, prevEnd = '"', true
			case r == '"':
				out.WriteString(`\"`)
			case r == '\n':
				out.WriteString(`\n`)
			case r == '\r':
			case r == '\t':
				out.WriteString(`\t`)
			default:
				out.WriteRune(r)
			}
			continue
		}

		switch {
		case unicode.IsSpace(r):
			out.WriteRune(r)

		case r == '/' && i+1 < len(rs) && rs[i+1] == '/':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
			i--

		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			end := indexRunes(rs, i+2, "*/")
			if end < 0 {
				i = len(rs)
			} else {
				i = end + 1
			}

		case r == '"' || r == '“' || r == '”':
			startValue()
			quote = '"'
			if r != '"' {
				quote = '”'
			}
			inString = true
			out.WriteByte('"')

		case (r == '\'' || r == '‘') && (prev == 0 || strings.ContainsRune("{[,:", prev) || prevEnd):
			startValue()
			quote = '\''
			inString = true
			out.WriteByte('"')

		case r == ',':
			next := nextSignificant(rs, i+1)
			if next == 0 || next == '}' || next == ']' || next == ',' || prev == ',' || prev == '[' || prev == '{' {
				continue
			}
			out.WriteByte(',')
			prev, prevEnd = ',', false

		case r == '[' && prev == ']' && prevEnd && lastClose >= 0:
			// ["a"] ["b"] -> ["a","b"]
			out.Truncate(lastClose)
			out.WriteByte(',')
			prev, prevEnd = ',', false

		case r == '{' || r == '[':
			startValue()
			out.WriteRune(r)
			prev, prevEnd = r, false

		case r == '}' || r == ']':
			if r == ']' {
				lastClose = out.Len()
			}
			out.WriteRune(r)
			prev, prevEnd = r, true

		case r == ':':
			out.WriteByte(':')
			prev, prevEnd = ':', false

		case r == '-' || unicode.IsDigit(r):
			j := i + 1
			for j < len(rs) && strings.ContainsRune("0123456789.eE+-", rs[j]) {
				j++
			}
			startValue()
			out.WriteString(string(rs[i:j]))
			prev, prevEnd = rs[j-1], true
			i = j - 1

		case isWordStart(r):
			j := i + 1
			for j < len(rs) && isWordPart(rs[j]) {
				j++
			}
			word := string(rs[i:j])
			i = j - 1

			if nextSignificant(rs, j) == ':' {
				startValue()
				out.WriteByte('"')
				out.WriteString(word)
				out.WriteByte('"')
				prev, prevEnd = '"', true
				continue
			}
			if lit, ok := literals[word]; ok {
				startValue()
				out.WriteString(lit)
				prev, prevEnd = rs[j-1], true
				continue
			}
			// bare value tokens are left for StructuralRepair
			out.WriteString(word)
			prev, prevEnd = rs[j-1], false

		default:
			out.WriteRune(r)
			prev, prevEnd = r, false
		}
	}

	return out.String()
}

var literals = map[string]string{
	"true":  "true",
	"false": "false",
	"null":  "null",
	"True":  "true",
	"False": "false",
	"None":  "null",
}

func closesString(quote, r rune) bool {
	switch quote {
	case '\'':
		return r == '\'' || r == '’'
	case '”':
		return r == '”' || r == '“' || r == '"'
	default:
		return r == '"'
	}
}

// endsSingleQuoted reports whether a quote before rs[i] closes a single-quoted
// string. Otherwise it is an apostrophe, as in 'it's'.
func endsSingleQuoted(rs []rune, i int) bool {
	switch next := nextSignificant(rs, i); next {
	case 0, ',', '}', ']', ':':
		return true
	case '\'', '‘', '"', '“':
		// 'a' 'b' with a missing comma
		return i < len(rs) && unicode.IsSpace(rs[i])
	}
	return false
}

func isWordStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isWordPart(r rune) bool {
	return isWordStart(r) || unicode.IsDigit(r) || r == '-'
}

// nextSignificant returns the first non-space rune at or after i, or 0.
func nextSignificant(rs []rune, i int) rune {
	for ; i < len(rs); i++ {
		if !unicode.IsSpace(rs[i]) {
			return rs[i]
		}
	}
	return 0
}

func indexRunes(rs []rune, from int, sub string) int {
	idx := strings.Index(string(rs[from:]), sub)
	if idx < 0 {
		return -1
	}
	return from + len([]rune(string(rs[from:])[:idx]))
}
