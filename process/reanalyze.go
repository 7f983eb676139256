package process

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/sebkrier/alexandria-sub000/store"
)

// RegenerateSummary re-runs only the summarization step, leaving tags,
// categories, and status untouched.
func (s *Service) RegenerateSummary(ctx context.Context, userID, articleID uuid.UUID, providerID *uint) (*store.Article, error) {
	article, err := s.store.GetArticle(userID, articleID)
	if err != nil {
		return nil, err
	}

	provider, err := s.resolveProvider(userID, providerID)
	if err != nil {
		return nil, err
	}

	summary, err := provider.Summarize(ctx, article.ExtractedText, article.Title, article.SourceType)
	if err != nil {
		return nil, fmt.Errorf("regenerate summary: %w", err)
	}

	markdown := summary.Markdown
	article.Summary = &markdown
	article.SummaryModel = provider.Name() + ":" + provider.Model()
	if err := s.store.SaveArticle(article); err != nil {
		return nil, err
	}
	return article, nil
}

// BulkReanalyze re-queues every article the user owns, refusing any that
// is currently PROCESSING. It returns the ids actually re-queued (for the
// caller to dispatch) and the count skipped.
func (s *Service) BulkReanalyze(userID uuid.UUID) (queued []uuid.UUID, skipped int, err error) {
	ids, err := s.store.ListArticleIDs(userID)
	if err != nil {
		return nil, 0, err
	}

	for _, id := range ids {
		if err := s.store.RequeueArticle(userID, id); err != nil {
			if errors.Is(err, store.ErrAlreadyProcessing) {
				skipped++
				continue
			}
			return queued, skipped, err
		}
		queued = append(queued, id)
	}
	log.Printf("bulk re-analyze for user %s: %d queued, %d skipped", userID, len(queued), skipped)
	return queued, skipped, nil
}

// OptimizeTaxonomy atomically replaces the user's whole category tree
// with a proposed one. Partial replacement rolls back entirely.
func (s *Service) OptimizeTaxonomy(userID uuid.UUID, proposed []store.ProposedCategory) error {
	return s.store.ReplaceTaxonomy(userID, proposed)
}
