package similarity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
)

// Snapshot is the vocabulary and IDF table built from one full corpus pass.
type Snapshot struct {
	ID                string
	DocCount          int
	DocumentFrequency map[string]int
	IDF               map[string]float64
	Order             []string
}

// BuildSnapshot computes document frequencies, smoothed IDF weights and the
// lexicographic token order for docs. An empty corpus yields an empty snapshot.
func BuildSnapshot(tok *Tokenizer, docs []string) *Snapshot {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for t := range tok.Tokens(doc) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	n := len(docs)
	idf := make(map[string]float64, len(df))
	order := make([]string, 0, len(df))
	for t, f := range df {
		idf[t] = SmoothedIDF(n, f)
		order = append(order, t)
	}
	sort.Strings(order)

	return &Snapshot{
		ID:                fingerprint(order, idf),
		DocCount:          n,
		DocumentFrequency: df,
		IDF:               idf,
		Order:             order,
	}
}

// SmoothedIDF returns ln((n+1)/(df+1)) + 1, which is positive for every df <= n.
func SmoothedIDF(n, df int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1.0
}

// Len is the dimension of vectors built from this snapshot.
func (s *Snapshot) Len() int {
	return len(s.Order)
}

// Empty reports whether the snapshot has no vocabulary.
func (s *Snapshot) Empty() bool {
	return len(s.Order) == 0
}

func fingerprint(order []string, idf map[string]float64) string {
	if len(order) == 0 {
		return ""
	}
	h := sha256.New()
	var buf [8]byte
	for _, t := range order {
		h.Write([]byte(t))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(idf[t]))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
