package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetrievalStore_TopK_RanksByKeywordOverlap(t *testing.T) {
	s := NewRetrievalStore()
	s.Add(Document{DocID: "1", Content: "nmap scan found open ports 22 and 80"})
	s.Add(Document{DocID: "2", Content: "whois registration for example.com"})
	s.Add(Document{DocID: "3", Content: "open port 443 found via nmap scan"})

	results := s.TopK("nmap scan open port", 2)
	require := assert.New(t)
	require.Len(results, 2)
	require.Equal("3", results[0].DocID)
	require.Equal("1", results[1].DocID)
}

func TestRetrievalStore_TopK_ExcludesZeroScoreDocuments(t *testing.T) {
	s := NewRetrievalStore()
	s.Add(Document{DocID: "1", Content: "completely unrelated text"})

	results := s.TopK("nmap scan", 5)
	assert.Empty(t, results)
}

func TestRetrievalStore_TopK_RespectsK(t *testing.T) {
	s := NewRetrievalStore()
	for i := 0; i < 5; i++ {
		s.Add(Document{DocID: "d", Content: "scan scan scan"})
	}
	results := s.TopK("scan", 2)
	assert.Len(t, results, 2)
}

func TestRetrievalStore_Len(t *testing.T) {
	s := NewRetrievalStore()
	s.Add(Document{DocID: "1", Content: "a"})
	s.Add(Document{DocID: "2", Content: "b"})
	assert.Equal(t, 2, s.Len())
}
