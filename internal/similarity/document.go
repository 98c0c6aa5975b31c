// Package similarity implements the TF-IDF related-events engine: a tokenizer,
// a vocabulary/IDF snapshot builder, a vectorizer and a cosine-similarity ranker.
//
// The package does no I/O. Callers load the corpus, build one Snapshot from all
// of it, vectorize every document against that snapshot and persist the vectors.
// Vectors are only comparable within the snapshot that produced them.
package similarity

import "strings"

// Fields is the text an event contributes to its document.
type Fields struct {
	Title       string
	Description string
	Location    string
	Categories  []string
}

// Source is anything that can describe itself as document fields.
type Source interface {
	SimilarityFields() Fields
}

// Weights sets how many times each field is repeated in the document text.
// A weight of zero drops the field.
type Weights struct {
	Title       int
	Description int
	Location    int
	Categories  int
}

// DefaultWeights biases similarity toward titles and categories.
var DefaultWeights = Weights{Title: 2, Description: 1, Location: 1, Categories: 2}

// Engine bundles the tokenizer and field weights used for one deployment.
type Engine struct {
	Tokenizer *Tokenizer
	Weights   Weights
}

// NewEngine returns an engine; a nil tokenizer means DefaultTokenizer.
func NewEngine(tok *Tokenizer, w Weights) *Engine {
	if tok == nil {
		tok = DefaultTokenizer()
	}
	return &Engine{Tokenizer: tok, Weights: w}
}

// Document renders the weighted text for f.
func (e *Engine) Document(f Fields) string {
	var parts []string
	repeat := func(s string, n int) {
		if s == "" {
			return
		}
		for i := 0; i < n; i++ {
			parts = append(parts, s)
		}
	}
	repeat(f.Title, e.Weights.Title)
	repeat(f.Description, e.Weights.Description)
	repeat(f.Location, e.Weights.Location)
	for _, c := range f.Categories {
		repeat(c, e.Weights.Categories)
	}
	return strings.Join(parts, " ")
}

// Build tokenizes every source and returns the snapshot for that corpus.
func (e *Engine) Build(sources []Source) *Snapshot {
	docs := make([]string, len(sources))
	for i, s := range sources {
		docs[i] = e.Document(s.SimilarityFields())
	}
	return BuildSnapshot(e.Tokenizer, docs)
}

// Vector computes the feature vector of src against snap.
func (e *Engine) Vector(snap *Snapshot, src Source) []float64 {
	return snap.Vectorize(e.Tokenizer, e.Document(src.SimilarityFields()))
}
