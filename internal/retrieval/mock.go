package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mediconnect/backend/internal/models"
)

// MockIndex is an in-memory stand-in ranked by word overlap. Distance is
// 1 - (shared words / query words), so full overlap scores 0.
type MockIndex struct {
	mu   sync.Mutex
	docs map[string][]mockDoc
}

type mockDoc struct {
	id       string
	text     string
	metadata map[string]string
	subject  string
}

func NewMockIndex() *MockIndex {
	return &MockIndex{docs: map[string][]mockDoc{}}
}

func (m *MockIndex) SearchReference(_ context.Context, query string, topN int) ([]models.RetrievalHit, error) {
	return m.search(collectionReference, "", query, topN), nil
}

func (m *MockIndex) SearchSimilarHistory(_ context.Context, subjectID string, query string, topN int) ([]models.RetrievalHit, error) {
	return m.search(collectionHistory, subjectID, query, topN), nil
}

func (m *MockIndex) AddDocument(_ context.Context, subjectID string, text string, metadata map[string]string) (string, error) {
	collection := collectionReference
	if subjectID != "" {
		collection = collectionHistory
	}
	doc := mockDoc{id: uuid.NewString(), text: text, metadata: metadata, subject: subjectID}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection] = append(m.docs[collection], doc)
	return doc.id, nil
}

func (m *MockIndex) search(collection string, subjectID string, query string, topN int) []models.RetrievalHit {
	if topN <= 0 {
		topN = 3
	}
	queryWords := wordSet(query)

	m.mu.Lock()
	defer m.mu.Unlock()

	var hits []models.RetrievalHit
	for _, d := range m.docs[collection] {
		if subjectID != "" && d.subject != subjectID {
			continue
		}
		shared := 0
		for w := range wordSet(d.text) {
			if _, ok := queryWords[w]; ok {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		hits = append(hits, models.RetrievalHit{
			Document: d.text,
			Metadata: d.metadata,
			Distance: 1 - float64(shared)/float64(len(queryWords)),
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > topN {
		hits = hits[:topN]
	}
	return hits
}

func wordSet(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		out[strings.Trim(w, ".,;:!?")] = struct{}{}
	}
	return out
}
