package jsonrepair

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
)

// StructuralRepair fixes shape problems: unterminated strings, missing or
// mismatched closing braces and brackets, a dangling key with no value,
// and unquoted value tokens. A single bare token becomes a string;
// several space-separated identifiers after a key become an array of
// strings ("concepts": a b c -> "concepts": ["a","b","c"]).
func StructuralRepair(text string) string {
	rs := []rune(text)

	var (
		out      bytes.Buffer
		stack    []rune // expected closers
		inString bool
		escaped  bool
		prev     rune
	)

	top := func() rune {
		if len(stack) == 0 {
			return 0
		}
		return stack[len(stack)-1]
	}
	closeTop := func() {
		trimTrailingComma(&out)
		out.WriteRune(top())
		stack = stack[:len(stack)-1]
	}

	for i := 0; i < len(rs); i++ {
		r := rs[i]

		if inString {
			out.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
				prev = '"'
			}
			continue
		}

		switch {
		case r == '"':
			inString = true
			out.WriteRune(r)

		case r == '{':
			stack = append(stack, '}')
			out.WriteRune(r)
			prev = r

		case r == '[':
			stack = append(stack, ']')
			out.WriteRune(r)
			prev = r

		case r == '}' || r == ']':
			if len(stack) == 0 {
				// stray closer
				continue
			}
			if top() != r && !containsRune(stack, r) {
				// mismatched closer, close what is actually open
				closeTop()
				prev = r
				continue
			}
			for top() != r {
				closeTop()
			}
			closeTop()
			prev = r

		case inValuePosition(prev, top()) && (isWordStart(r) || r == '-' || unicode.IsDigit(r)):
			j := i
			for j < len(rs) && !strings.ContainsRune(",}]\"\n", rs[j]) {
				j++
			}
			out.WriteString(coerceBareValue(string(rs[i:j]), prev == ':'))
			// keep trailing whitespace out of the value
			i = j - 1
			prev = '"'

		default:
			out.WriteRune(r)
			if !unicode.IsSpace(r) {
				prev = r
			}
		}
	}

	if inString {
		if escaped {
			out.Truncate(out.Len() - 1)
		}
		out.WriteByte('"')
		prev = '"'
	}

	trimTrailingComma(&out)
	if prev == ':' {
		out.WriteString("null")
	}
	for len(stack) > 0 {
		closeTop()
	}

	return out.String()
}

func inValuePosition(prev, container rune) bool {
	switch prev {
	case ':':
		return true
	case '[':
		return true
	case ',':
		return container == ']'
	}
	return false
}

// coerceBareValue turns an unquoted run into a JSON value.
func coerceBareValue(run string, afterKey bool) string {
	value := strings.TrimSpace(run)
	if value == "" {
		return "null"
	}
	if json.Valid([]byte(value)) {
		return value
	}

	words := strings.Fields(value)
	if afterKey && len(words) > 1 && allIdentifiers(words) {
		items := make([]string, len(words))
		for i, w := range words {
			items[i] = quote(w)
		}
		return "[" + strings.Join(items, ",") + "]"
	}
	return quote(value)
}

func allIdentifiers(words []string) bool {
	for _, w := range words {
		for i, r := range w {
			if i == 0 && !isWordStart(r) {
				return false
			}
			if !isWordPart(r) {
				return false
			}
		}
	}
	return true
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func trimTrailingComma(out *bytes.Buffer) {
	b := bytes.TrimRightFunc(out.Bytes(), unicode.IsSpace)
	if len(b) > 0 && b[len(b)-1] == ',' {
		out.Truncate(len(b) - 1)
	}
}

func containsRune(rs []rune, r rune) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}
