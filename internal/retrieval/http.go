package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/backend/internal/models"
)

// HTTPIndex talks to a Chroma-style embedding service over JSON.
type HTTPIndex struct {
	BaseURL string
	Client  *http.Client
}

type queryRequest struct {
	Query    string            `json:"query"`
	NResults int               `json:"n_results"`
	Where    map[string]string `json:"where,omitempty"`
}

type queryResponse struct {
	Documents []string            `json:"documents"`
	Metadatas []map[string]string `json:"metadatas"`
	Distances []float64           `json:"distances"`
}

type addRequest struct {
	Documents []string            `json:"documents"`
	Metadatas []map[string]string `json:"metadatas"`
	IDs       []string            `json:"ids"`
}

func (h HTTPIndex) SearchReference(ctx context.Context, query string, topN int) ([]models.RetrievalHit, error) {
	return h.query(ctx, collectionReference, queryRequest{Query: query, NResults: topN})
}

func (h HTTPIndex) SearchSimilarHistory(ctx context.Context, subjectID string, query string, topN int) ([]models.RetrievalHit, error) {
	return h.query(ctx, collectionHistory, queryRequest{
		Query:    query,
		NResults: topN,
		Where:    map[string]string{"subject_id": subjectID},
	})
}

func (h HTTPIndex) AddDocument(ctx context.Context, subjectID string, text string, metadata map[string]string) (string, error) {
	collection := collectionReference
	meta := map[string]string{}
	for k, v := range metadata {
		meta[k] = v
	}
	if subjectID != "" {
		collection = collectionHistory
		meta["subject_id"] = subjectID
	}
	id := uuid.NewString()

	payload := addRequest{
		Documents: []string{text},
		Metadatas: []map[string]string{meta},
		IDs:       []string{id},
	}
	if err := h.post(ctx, "/collections/"+collection+"/add", payload, nil); err != nil {
		return "", err
	}
	return id, nil
}

func (h HTTPIndex) query(ctx context.Context, collection string, reqBody queryRequest) ([]models.RetrievalHit, error) {
	var res queryResponse
	if err := h.post(ctx, "/collections/"+collection+"/query", reqBody, &res); err != nil {
		return nil, err
	}

	hits := make([]models.RetrievalHit, 0, len(res.Documents))
	for i, doc := range res.Documents {
		hit := models.RetrievalHit{Document: doc}
		if i < len(res.Metadatas) {
			hit.Metadata = res.Metadatas[i]
		}
		if i < len(res.Distances) {
			hit.Distance = res.Distances[i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (h HTTPIndex) post(ctx context.Context, path string, payload any, out any) error {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(h.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("retrieval service error: " + resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode retrieval response: %w", err)
	}
	return nil
}
