package retrieval

import (
	"context"

	"github.com/mediconnect/backend/internal/models"
)

// Index is the vector-similarity collaborator. Reference search runs over the
// shared clinical knowledge collection; similar-history search is scoped to
// one subject. Lower hit distance means more similar.
type Index interface {
	SearchReference(ctx context.Context, query string, topN int) ([]models.RetrievalHit, error)
	SearchSimilarHistory(ctx context.Context, subjectID string, query string, topN int) ([]models.RetrievalHit, error)
	AddDocument(ctx context.Context, subjectID string, text string, metadata map[string]string) (string, error)
}

const (
	collectionReference = "clinical_knowledge"
	collectionHistory   = "subject_history"
)
