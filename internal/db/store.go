package db

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediconnect/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const logColumns = `id, subject_id, symptoms, urgency_level, explanation, confidence, esi_classification, resolution_status, created_at`

func scanLogs(rows pgx.Rows) ([]models.SymptomLog, error) {
	defer rows.Close()
	var out []models.SymptomLog
	for rows.Next() {
		var l models.SymptomLog
		if err := rows.Scan(&l.ID, &l.SubjectID, &l.Symptoms, &l.UrgencyLevel, &l.Explanation, &l.Confidence, &l.ESIClassification, &l.ResolutionStatus, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetRecentHistory returns the subject's latest symptom logs, newest first.
func (s *Store) GetRecentHistory(ctx context.Context, subjectID string, limit int) ([]models.SymptomLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+logColumns+` FROM symptom_logs
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, subjectID, limit)
	if err != nil {
		return nil, err
	}
	return scanLogs(rows)
}

// GetUnresolved returns the subject's open symptom logs filtered by
// resolution status, newest first.
func (s *Store) GetUnresolved(ctx context.Context, subjectID string, limit int, statuses []string) ([]models.SymptomLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 5
	}
	if len(statuses) == 0 {
		statuses = models.UnresolvedStatuses
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+logColumns+` FROM symptom_logs
		WHERE subject_id = $1 AND resolution_status = ANY($2)
		ORDER BY created_at DESC
		LIMIT $3
	`, subjectID, statuses, limit)
	if err != nil {
		return nil, err
	}
	return scanLogs(rows)
}

// FindRelated returns logs from the recency window whose symptom text shares
// at least one medical keyword with the given text. The keyword intersection
// runs app-side; the window query stays index-friendly.
func (s *Store) FindRelated(ctx context.Context, subjectID string, text string, daysBack int) ([]models.SymptomLog, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack)
	rows, err := s.Pool.Query(ctx, `
		SELECT `+logColumns+` FROM symptom_logs
		WHERE subject_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`, subjectID, cutoff)
	if err != nil {
		return nil, err
	}
	logs, err := scanLogs(rows)
	if err != nil {
		return nil, err
	}

	current := keywordSet(text)
	var related []models.SymptomLog
	for _, l := range logs {
		if overlaps(current, keywordSet(l.Symptoms)) {
			related = append(related, l)
		}
		if len(related) == 5 {
			break
		}
	}
	return related, nil
}

// SaveVerdict persists a completed assessment. The reasoning chain and next
// steps are stored as JSONB alongside the flat verdict columns.
func (s *Store) SaveVerdict(ctx context.Context, subjectID string, symptoms string, v models.TriageVerdict) error {
	reasoning, _ := json.Marshal(v.ReasoningChain)
	var nextSteps []byte
	if v.NextSteps != nil {
		nextSteps, _ = json.Marshal(v.NextSteps)
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO symptom_logs (subject_id, symptoms, urgency_level, explanation, confidence, esi_classification, resolution_status, reasoning, next_steps, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, subjectID, symptoms, string(v.UrgencyLevel), v.Explanation, v.Confidence, v.ESIClassification, models.ResolutionUnknown, reasoning, nextSteps, time.Now().UTC())
		return err
	})
}

// UpdateResolution sets the resolution status of a log owned by the subject.
func (s *Store) UpdateResolution(ctx context.Context, logID string, subjectID string, status string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		var owner string
		if err := tx.QueryRow(ctx, `SELECT subject_id FROM symptom_logs WHERE id = $1`, logID).Scan(&owner); err != nil {
			return err
		}
		if owner != subjectID {
			return pgx.ErrNoRows
		}
		_, err := tx.Exec(ctx, `
			UPDATE symptom_logs SET resolution_status = $1, updated_at = NOW() WHERE id = $2
		`, status, logID)
		return err
	})
}

// medicalKeywords is the vocabulary used for keyword-overlap relatedness.
var medicalKeywords = map[string]struct{}{
	"pain": {}, "ache": {}, "fever": {}, "headache": {}, "nausea": {},
	"vomiting": {}, "dizziness": {}, "weakness": {}, "fatigue": {}, "cough": {},
	"breathing": {}, "chest": {}, "stomach": {}, "abdominal": {}, "blood": {},
	"stool": {}, "urine": {}, "rash": {}, "swelling": {}, "joint": {},
	"muscle": {}, "back": {}, "neck": {}, "throat": {}, "ear": {},
	"eye": {}, "nose": {}, "mouth": {}, "heart": {}, "lung": {},
}

func keywordSet(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?")
		if _, ok := medicalKeywords[w]; ok {
			out[w] = struct{}{}
		}
	}
	return out
}

func overlaps(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
