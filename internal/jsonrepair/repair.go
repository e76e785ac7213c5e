// Package jsonrepair turns loosely formatted model output into valid JSON.
//
// Repair runs four strategies in a fixed order and stops at the first one
// whose output is valid JSON:
//
//	Direct            the trimmed input as-is
//	Cleanup           code fences, comments, trailing commas, bare keys, quote
//	                  normalization, missing commas, disjoint arrays
//	StructuralRepair  unbalanced braces/brackets, unterminated strings, bare
//	                  value tokens coerced into strings or arrays
//	ExtractObject     the first balanced {...} span, repaired if needed;
//	                  later spans are tried when an earlier one is not JSON
//
// Every strategy is a pure string function and is exported for testing.
package jsonrepair

import (
	"encoding/json"
	"strings"
)

// Tier identifies the strategy that produced valid JSON.
type Tier int

const (
	TierNone Tier = iota
	TierDirect
	TierCleanup
	TierStructural
	TierExtract
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierCleanup:
		return "cleanup"
	case TierStructural:
		return "structural"
	case TierExtract:
		return "extract"
	default:
		return "none"
	}
}

// Repair returns the first valid JSON text produced by the tiers, or ok=false.
func Repair(text string) (raw []byte, tier Tier, ok bool) {
	if raw, ok := Direct(text); ok {
		return raw, TierDirect, true
	}

	cleaned := Cleanup(text)
	if json.Valid([]byte(cleaned)) {
		return []byte(cleaned), TierCleanup, true
	}

	repaired := StructuralRepair(cleaned)
	if json.Valid([]byte(repaired)) {
		return []byte(repaired), TierStructural, true
	}

	// 依次尝试每个 '{' 开始的片段，跳过正文里的花括号
	for start := strings.IndexByte(text, '{'); start >= 0; {
		obj := objectFrom(text, start)
		if json.Valid([]byte(obj)) {
			return []byte(obj), TierExtract, true
		}
		if fixed := StructuralRepair(Cleanup(obj)); json.Valid([]byte(fixed)) && isObject(fixed) {
			return []byte(fixed), TierExtract, true
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, TierNone, false
}

func isObject(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "{")
}

// Parse repairs text and decodes it. A nil value with ok=false means every tier failed.
func Parse(text string) (value interface{}, tier Tier, ok bool) {
	raw, tier, ok := Repair(text)
	if !ok {
		return nil, TierNone, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, TierNone, false
	}
	return value, tier, true
}

// ParseObject is Parse restricted to a top-level JSON object.
func ParseObject(text string) (map[string]interface{}, Tier, bool) {
	value, tier, ok := Parse(text)
	if !ok {
		return nil, TierNone, false
	}
	obj, isObj := value.(map[string]interface{})
	if !isObj {
		return nil, TierNone, false
	}
	return obj, tier, true
}

// Direct accepts the trimmed input only if it is already valid JSON.
func Direct(text string) ([]byte, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return nil, false
	}
	return []byte(trimmed), true
}
