package similarity

// Vectorize returns the TF-IDF vector of text, one entry per token in s.Order.
// Term frequency is count divided by the document's token count. A document
// with no tokens yields a zero vector of the same length.
func (s *Snapshot) Vectorize(tok *Tokenizer, text string) []float64 {
	vec := make([]float64, len(s.Order))

	tf := make(map[string]int)
	total := 0
	for t := range tok.Tokens(text) {
		tf[t]++
		total++
	}
	if total == 0 {
		return vec
	}

	length := float64(total)
	for i, word := range s.Order {
		if c, ok := tf[word]; ok {
			vec[i] = float64(c) / length * s.IDF[word]
		}
	}
	return vec
}
