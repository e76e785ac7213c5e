package llm

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// TokenCounter estimates prompt sizes. When no BPE table can be loaded it
// falls back to one token per four runes.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter 根据模型名选择编码，失败时退化为估算
func NewTokenCounter(model string) *TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
	}
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{encoding: enc}
}

// Count returns the number of tokens in text.
func (t *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.encoding == nil {
		return (utf8.RuneCountInString(text) + 3) / 4
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// Truncate cuts text to at most maxTokens tokens.
func (t *TokenCounter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if t == nil || t.encoding == nil {
		runes := []rune(text)
		if len(runes) <= maxTokens*4 {
			return text
		}
		return string(runes[:maxTokens*4])
	}

	tokens := t.encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.encoding.Decode(tokens[:maxTokens])
}
