package llmclient

import (
	"sort"
	"strings"
	"sync"
)

// Document is one retrievable unit in a RetrievalStore, grounded on
// spec.md §4.8's retrieval-augmentation contract: {doc_id, content,
// metadata}.
type Document struct {
	DocID    string
	Content  string
	Metadata map[string]any
}

// RetrievalStore holds Documents and ranks them against a query by top-k
// similarity. No embedding model is wired into this stack, so similarity is
// scored by keyword overlap — grounded on passive_recon.py's and
// analyst.py's own plain substring/keyword matching over tool output rather
// than any vector search, which is the only ranking approach the retrieved
// pack actually exercises.
type RetrievalStore struct {
	mu   sync.RWMutex
	docs []Document
}

// NewRetrievalStore constructs an empty RetrievalStore.
func NewRetrievalStore() *RetrievalStore {
	return &RetrievalStore{}
}

// Add inserts doc into the store.
func (s *RetrievalStore) Add(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
}

// Len reports how many documents are held.
func (s *RetrievalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

type scoredDoc struct {
	doc   Document
	score int
}

// TopK returns up to k documents ranked by descending keyword-overlap score
// against query, ties broken by insertion order. Documents scoring zero are
// excluded.
func (s *RetrievalStore) TopK(query string, k int) []Document {
	if k <= 0 {
		return nil
	}
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]scoredDoc, 0, len(s.docs))
	for _, doc := range s.docs {
		score := overlapScore(queryTerms, tokenize(doc.Content))
		if score > 0 {
			scored = append(scored, scoredDoc{doc: doc, score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]Document, len(scored))
	for i, sd := range scored {
		out[i] = sd.doc
	}
	return out
}

func tokenize(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[strings.Trim(f, ".,:;!?()\"'")] = true
	}
	return set
}

func overlapScore(query, candidate map[string]bool) int {
	score := 0
	for term := range query {
		if candidate[term] {
			score++
		}
	}
	return score
}
