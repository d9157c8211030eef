// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import "sync"

// Store owns the ordered citation list for one research job. Citation
// numbers are assigned sequentially at insertion and never reassigned.
type Store struct {
	JobID string
	Style string

	mu        sync.Mutex
	citations []*Citation
}

// NewStore creates an empty store for a job. An empty style defaults to "apa".
func NewStore(jobID, style string) *Store {
	if style == "" {
		style = "apa"
	}
	return &Store{JobID: jobID, Style: style}
}

// Add appends a citation and assigns the next citation number if unset.
// Adding an id that already exists is a no-op returning the existing
// record; the incoming value is discarded.
func (s *Store) Add(c *Citation) *Citation {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.citations {
		if existing.ID == c.ID {
			return existing
		}
	}

	if c.CitationNumber == 0 {
		c.CitationNumber = len(s.citations) + 1
	}
	s.citations = append(s.citations, c)
	return c
}

// ByID returns the citation with the given id, or nil.
func (s *Store) ByID(id string) *Citation {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.citations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ByNumber returns the citation with the given citation number, or nil.
func (s *Store) ByNumber(n int) *Citation {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.citations {
		if c.CitationNumber == n {
			return c
		}
	}
	return nil
}

// All returns the citations in insertion order.
func (s *Store) All() []*Citation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Citation, len(s.citations))
	copy(out, s.citations)
	return out
}

// Count returns the number of citations in the store.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.citations)
}

// ValidatedCount returns the number of validated citations.
func (s *Store) ValidatedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.citations {
		if c.Validated {
			n++
		}
	}
	return n
}

// AverageCompleteness returns the mean completeness score across the
// store, or 0 for an empty store.
func (s *Store) AverageCompleteness() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.citations) == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.citations {
		sum += c.CompletenessScore()
	}
	return sum / float64(len(s.citations))
}
