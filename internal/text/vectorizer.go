package text

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/sparse"
)

// Options configures vectorizer fitting.
type Options struct {
	// Tokenizer names the tokenizer: "words" or a tiktoken encoding.
	Tokenizer string
	// Lowercase folds text to lower case before tokenization.
	Lowercase bool
	// MinDF drops terms occurring in fewer than MinDF documents.
	MinDF int
	// MaxFeatures keeps only the MaxFeatures most frequent terms (0 = all).
	MaxFeatures int
	// SublinearTF replaces raw term counts with 1+ln(count).
	SublinearTF bool
}

// Vectorizer maps documents to L2-normalized TF-IDF rows.
//
// The vocabulary and IDF weights are fixed at fit time; transforming a
// document containing only unseen terms yields an all-zero row.
type Vectorizer struct {
	opts    Options
	vocab   map[string]int
	idf     []float64
	numDocs int
	tok     Tokenizer
}

// Fit builds a vectorizer from a training corpus.
func Fit(docs []string, opts Options) (*Vectorizer, error) {
	if opts.MinDF < 1 {
		opts.MinDF = 1
	}
	tok, err := NewTokenizer(opts.Tokenizer, opts.Lowercase)
	if err != nil {
		return nil, err
	}

	df := make(map[string]int)
	seen := make(map[string]struct{})
	for _, doc := range docs {
		clear(seen)
		for _, term := range tok.Tokens(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	terms := make([]string, 0, len(df))
	for term, n := range df {
		if n >= opts.MinDF {
			terms = append(terms, term)
		}
	}
	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		// Most frequent first; lexicographic tie-break keeps fitting
		// deterministic across runs.
		sort.Slice(terms, func(i, j int) bool {
			if df[terms[i]] != df[terms[j]] {
				return df[terms[i]] > df[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	v := &Vectorizer{
		opts:    opts,
		vocab:   make(map[string]int, len(terms)),
		idf:     make([]float64, len(terms)),
		numDocs: len(docs),
		tok:     tok,
	}
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = math.Log(float64(1+len(docs))/float64(1+df[term])) + 1
	}
	return v, nil
}

// NumFeatures returns the vocabulary size.
func (v *Vectorizer) NumFeatures() int {
	return len(v.vocab)
}

// Options returns the options the vectorizer was fitted with.
func (v *Vectorizer) Options() Options {
	return v.opts
}

// row is one transformed document before CSR assembly.
type row struct {
	indices []int
	values  []float64
}

// Transform converts documents into a sparse TF-IDF matrix with one row per
// document. Documents are processed in parallel shards; assembly into the
// final matrix preserves input order.
func (v *Vectorizer) Transform(docs []string) (*sparse.CSR, error) {
	rows := make([]row, len(docs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	const shardSize = 2048
	for start := 0; start < len(docs); start += shardSize {
		start, end := start, min(start+shardSize, len(docs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				rows[i] = v.transformOne(docs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := sparse.NewBuilder(v.NumFeatures())
	for _, r := range rows {
		b.AppendRow(r.indices, r.values)
	}
	return b.Build(), nil
}

func (v *Vectorizer) transformOne(doc string) row {
	counts := make(map[int]int)
	for _, term := range v.tok.Tokens(doc) {
		if j, ok := v.vocab[term]; ok {
			counts[j]++
		}
	}
	if len(counts) == 0 {
		return row{}
	}

	indices := make([]int, 0, len(counts))
	for j := range counts {
		indices = append(indices, j)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, j := range indices {
		tf := float64(counts[j])
		if v.opts.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		values[i] = tf * v.idf[j]
		norm += values[i] * values[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range values {
			values[i] /= norm
		}
	}
	return row{indices: indices, values: values}
}

// vectorizerState is the gob-encoded snapshot of a fitted vectorizer.
type vectorizerState struct {
	Options Options
	Vocab   map[string]int
	IDF     []float64
	NumDocs int
}

// Save writes the fitted vectorizer to path.
func (v *Vectorizer) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	state := vectorizerState{
		Options: v.opts,
		Vocab:   v.vocab,
		IDF:     v.idf,
		NumDocs: v.numDocs,
	}
	if err := gob.NewEncoder(f).Encode(&state); err != nil {
		return fmt.Errorf("failed to encode vectorizer: %w", err)
	}
	return nil
}

// Load reads a vectorizer previously written by Save and reattaches its
// tokenizer.
func Load(path string) (*Vectorizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var state vectorizerState
	if err := gob.NewDecoder(f).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode vectorizer: %w", err)
	}
	if len(state.IDF) != len(state.Vocab) {
		return nil, fmt.Errorf("vectorizer state inconsistent: %d idf weights for %d terms",
			len(state.IDF), len(state.Vocab))
	}
	tok, err := NewTokenizer(state.Options.Tokenizer, state.Options.Lowercase)
	if err != nil {
		return nil, err
	}
	return &Vectorizer{
		opts:    state.Options,
		vocab:   state.Vocab,
		idf:     state.IDF,
		numDocs: state.NumDocs,
		tok:     tok,
	}, nil
}
