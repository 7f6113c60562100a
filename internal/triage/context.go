package triage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mediconnect/backend/internal/models"
)

// ReasoningContext is the per-request bundle handed to the reasoning stage.
// It is built fresh for every assessment and never persisted.
type ReasoningContext struct {
	CurrentSymptoms string
	History         []models.SymptomLog
	Unresolved      []models.SymptomLog
	Related         []models.SymptomLog
	Guidelines      []models.RetrievalHit
	SimilarCases    []models.RetrievalHit
	Signals         Signals
}

const (
	historyLimit     = 10
	unresolvedLimit  = 5
	relatedDaysBack  = 30
	guidelineResults = 5
	similarCaseLimit = 3
)

// gatherContext issues the independent sub-fetches concurrently and waits for
// all of them. Each fetch fails in isolation: an error is logged and its
// slice stays empty, so partial context is always acceptable.
func (a *Agent) gatherContext(ctx context.Context, subjectID string, symptoms string) ReasoningContext {
	rc := ReasoningContext{
		CurrentSymptoms: symptoms,
		Signals:         Extract(symptoms),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		history, err := a.Store.GetRecentHistory(gctx, subjectID, historyLimit)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("recent history fetch failed")
			return nil
		}
		rc.History = history
		return nil
	})
	g.Go(func() error {
		unresolved, err := a.Store.GetUnresolved(gctx, subjectID, unresolvedLimit, models.UnresolvedStatuses)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("unresolved symptoms fetch failed")
			return nil
		}
		rc.Unresolved = unresolved
		return nil
	})
	g.Go(func() error {
		related, err := a.Store.FindRelated(gctx, subjectID, symptoms, relatedDaysBack)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("related symptoms fetch failed")
			return nil
		}
		rc.Related = related
		return nil
	})
	g.Go(func() error {
		guidelines, err := a.Index.SearchReference(gctx, symptoms, guidelineResults)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("clinical guideline search failed")
			return nil
		}
		rc.Guidelines = guidelines
		return nil
	})
	g.Go(func() error {
		similar, err := a.Index.SearchSimilarHistory(gctx, subjectID, symptoms, similarCaseLimit)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("similar case search failed")
			return nil
		}
		rc.SimilarCases = similar
		return nil
	})

	// goroutines only ever return nil; Wait is a join point
	_ = g.Wait()
	return rc
}
