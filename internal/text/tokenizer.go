// Package text implements question tokenization and the TF-IDF vectorizer
// that turns question pairs into the sparse feature matrix consumed by the
// SVD stage.
package text

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// TokenizerWords selects the whitespace/punctuation word tokenizer.
// Any other tokenizer name is treated as a tiktoken encoding name
// (e.g. "cl100k_base").
const TokenizerWords = "words"

// Tokenizer converts a question into a sequence of terms.
type Tokenizer interface {
	// Tokens returns the terms of text, in order. Repeated terms are
	// returned repeatedly; the vectorizer counts them.
	Tokens(text string) []string
}

// NewTokenizer creates a tokenizer by name.
//
// "words" gives the word-level tokenizer. Any other name is passed to
// tiktoken as a BPE encoding name; the resulting terms are token IDs, which
// works fine as vocabulary keys since TF-IDF only needs term identity.
func NewTokenizer(name string, lowercase bool) (Tokenizer, error) {
	if name == "" || name == TokenizerWords {
		return &WordTokenizer{Lowercase: lowercase}, nil
	}
	encoding, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", name, err)
	}
	return &BPETokenizer{encoding: encoding, lowercase: lowercase}, nil
}

// WordTokenizer splits text on any rune that is not a letter or digit.
type WordTokenizer struct {
	Lowercase bool
}

// Tokens implements Tokenizer.
func (w *WordTokenizer) Tokens(text string) []string {
	if w.Lowercase {
		text = strings.ToLower(text)
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// BPETokenizer tokenizes with an OpenAI BPE encoding via tiktoken.
type BPETokenizer struct {
	encoding  *tiktoken.Tiktoken
	lowercase bool
}

// Tokens implements Tokenizer. Terms are decimal token IDs.
func (b *BPETokenizer) Tokens(text string) []string {
	if b.lowercase {
		text = strings.ToLower(text)
	}
	ids := b.encoding.Encode(text, nil, nil)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = strconv.Itoa(id)
	}
	return tokens
}
