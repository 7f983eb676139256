// Package process is the AI processing orchestrator: it drives the
// summarize, tag, categorize, embed pipeline for one article and applies
// the results to the persistent taxonomy with idempotent semantics.
package process

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/sebkrier/alexandria-sub000/ai"
	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/embed"
	"github.com/sebkrier/alexandria-sub000/secrets"
	"github.com/sebkrier/alexandria-sub000/store"
	"github.com/sebkrier/alexandria-sub000/types"
)

// Service sequences provider calls and persists their effects on an
// Article. It is the only component that moves articles through the
// PENDING -> PROCESSING -> COMPLETED/FAILED state machine.
type Service struct {
	store    *store.Store
	cipher   *secrets.Cipher
	embedder embed.Provider // nil leaves embeddings null

	// newProvider is swapped in tests.
	newProvider func(providerType, apiKey, modelID string) (ai.Provider, error)
}

func NewService(st *store.Store, cipher *secrets.Cipher, embedder embed.Provider) *Service {
	return &Service{
		store:       st,
		cipher:      cipher,
		embedder:    embedder,
		newProvider: ai.New,
	}
}

// resolveProvider picks the provider row (explicit id, else default, else
// any active), decrypts its key, and builds the client. The decrypted key
// never leaves this call path.
func (s *Service) resolveProvider(userID uuid.UUID, providerID *uint) (ai.Provider, error) {
	row, err := s.store.ResolveProvider(userID, providerID)
	if err != nil {
		return nil, err
	}
	apiKey, err := s.cipher.Decrypt(row.EncryptedAPIKey)
	if err != nil {
		return nil, &types.ProviderConfigurationError{Reason: fmt.Sprintf("cannot decrypt key for provider %d", row.ID)}
	}
	return s.newProvider(row.ProviderType, apiKey, row.ModelID)
}

// ProviderFor resolves and builds the user's AI client for callers
// outside the pipeline (Q&A, provider health checks).
func (s *Service) ProviderFor(userID uuid.UUID, providerID *uint) (ai.Provider, error) {
	return s.resolveProvider(userID, providerID)
}

// ProcessArticle runs the full pipeline for one article. The PROCESSING
// status is committed before any provider call so concurrent readers see
// the in-flight state; on any pipeline error the FAILED status is written
// in a separate transaction after the attempt's transaction is abandoned,
// so it survives the rollback.
func (s *Service) ProcessArticle(ctx context.Context, userID, articleID uuid.UUID, providerID *uint) (*store.Article, error) {
	article, err := s.store.ClaimForProcessing(userID, articleID)
	if err != nil {
		return nil, err
	}

	if err := s.runPipeline(ctx, article, providerID); err != nil {
		log.Printf("processing failed for article %s: %v", articleID, err)
		if markErr := s.store.MarkFailed(userID, articleID, err.Error()); markErr != nil {
			log.Printf("could not record failure for article %s: %v", articleID, markErr)
		}
		return nil, err
	}
	return s.store.GetArticle(userID, articleID)
}

// runPipeline executes every step in one transaction: summary, tags,
// category, word count, and embedding land together or not at all.
func (s *Service) runPipeline(ctx context.Context, article *store.Article, providerID *uint) error {
	provider, err := s.resolveProvider(article.UserID, providerID)
	if err != nil {
		return err
	}

	summary, err := provider.Summarize(ctx, article.ExtractedText, article.Title, article.SourceType)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	// Prompt inputs are read before the transaction opens; only writes
	// happen inside it.
	existingTags, err := s.store.TagNames(article.UserID)
	if err != nil {
		return err
	}
	tree, err := s.store.CategoryTree(article.UserID)
	if err != nil {
		return err
	}

	return s.store.DB().Transaction(func(tx *gorm.DB) error {
		markdown := summary.Markdown
		article.Summary = &markdown
		article.SummaryModel = provider.Name() + ":" + provider.Model()

		// Tag and category failures skip their suggestion class without
		// failing the article; the summary still lands.
		if err := s.applyTags(ctx, tx, provider, article, summary.Abstract, existingTags); err != nil {
			log.Printf("tag suggestion skipped for article %s: %v", article.ID, err)
		}
		if err := s.applyCategory(ctx, tx, provider, article, summary.Abstract, tree); err != nil {
			log.Printf("category suggestion skipped for article %s: %v", article.ID, err)
		}

		article.WordCount = types.CountWords(article.ExtractedText)

		s.applyEmbedding(ctx, article, summary.Markdown)

		article.ProcessingStatus = types.StatusCompleted
		article.ProcessingError = nil
		if err := tx.Save(article).Error; err != nil {
			return fmt.Errorf("save processed article: %w", err)
		}
		return nil
	})
}

// applyTags accepts suggestions at or above the confidence threshold,
// capped, find-or-creating each tag and skipping silently when the
// association already exists so re-processing is idempotent.
func (s *Service) applyTags(ctx context.Context, tx *gorm.DB, provider ai.Provider, article *store.Article, abstract string, existing []string) error {
	suggestions, err := provider.SuggestTags(ctx, article.ExtractedText, abstract, existing)
	if err != nil {
		return err
	}

	applied := 0
	for _, suggestion := range suggestions {
		if suggestion.Confidence < config.TagConfidenceThreshold {
			continue
		}
		if applied >= config.MaxTagsPerArticle {
			break
		}

		tag, err := store.FindOrCreateTag(tx, article.UserID, suggestion.Name)
		if err != nil {
			return err
		}

		link := store.ArticleTag{ArticleID: article.ID, TagID: tag.ID, SuggestedByAI: true}
		var count int64
		if err := tx.Model(&store.ArticleTag{}).
			Where("article_id = ? AND tag_id = ?", article.ID, tag.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("link tag %q: %w", suggestion.Name, err)
			}
		}
		applied++
	}
	return nil
}

// applyCategory assigns the suggested two-level category when confident
// enough. Existing associations are deleted before the new one is
// inserted, which keeps re-categorization idempotent — but it also means
// manual category edits are overwritten, so the delete is gated on the
// existing links being AI-suggested.
func (s *Service) applyCategory(ctx context.Context, tx *gorm.DB, provider ai.Provider, article *store.Article, abstract string, tree []store.Category) error {
	suggestion, err := provider.SuggestCategory(ctx, article.ExtractedText, abstract, formatTree(tree))
	if err != nil {
		return err
	}
	if suggestion.Confidence < config.CategoryConfidenceThreshold {
		log.Printf("category confidence %.2f below threshold for article %s, skipping", suggestion.Confidence, article.ID)
		return nil
	}

	var manual int64
	if err := tx.Model(&store.ArticleCategory{}).
		Where("article_id = ? AND NOT suggested_by_ai", article.ID).
		Count(&manual).Error; err != nil {
		return err
	}
	if manual > 0 {
		log.Printf("article %s has manual category links, leaving them in place", article.ID)
		return nil
	}

	root, err := findOrCreateRef(tx, article.UserID, suggestion.Category, nil)
	if err != nil {
		return err
	}
	target := root
	if suggestion.Subcategory.Name != "" {
		target, err = findOrCreateRef(tx, article.UserID, suggestion.Subcategory, &root.ID)
		if err != nil {
			return err
		}
	}

	if err := tx.Where("article_id = ?", article.ID).Delete(&store.ArticleCategory{}).Error; err != nil {
		return fmt.Errorf("clear category links: %w", err)
	}
	link := store.ArticleCategory{ArticleID: article.ID, CategoryID: target.ID, IsPrimary: true, SuggestedByAI: true}
	if err := tx.Create(&link).Error; err != nil {
		return fmt.Errorf("link category %q: %w", target.Name, err)
	}
	return nil
}

// findOrCreateRef resolves one suggested node. A suggestion claiming
// is_new false for a name that does not exist is created anyway; failing
// on a hallucinated reference would lose the whole assignment.
func findOrCreateRef(tx *gorm.DB, userID uuid.UUID, ref types.CategoryRef, parentID *uint) (*store.Category, error) {
	if !ref.IsNew {
		q := tx.Model(&store.Category{}).Where("user_id = ? AND name = ?", userID, ref.Name)
		if parentID == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parentID)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			log.Printf("suggested category %q claims to exist but does not, creating it", ref.Name)
		}
	}
	return store.FindOrCreateCategory(tx, userID, ref.Name, parentID)
}

// applyEmbedding generates the document-mode vector from the full summary
// markdown, not the one-line abstract. Failure is logged and leaves the
// embedding null; it never fails the pipeline.
func (s *Service) applyEmbedding(ctx context.Context, article *store.Article, summaryText string) {
	if s.embedder == nil {
		return
	}

	input := embed.BuildDocumentInput(article.Title, summaryText, article.ExtractedText)
	vec, err := s.embedder.Embed(ctx, input, embed.ModeDocument)
	if err != nil {
		log.Printf("embedding failed for article %s: %v", article.ID, err)
		return
	}
	v := pgvector.NewVector(vec)
	article.Embedding = &v
}

// formatTree renders the two-level tree as prompt lines: roots bare,
// subcategories as "Root > Sub".
func formatTree(tree []store.Category) []string {
	var lines []string
	for _, root := range tree {
		lines = append(lines, root.Name)
		for _, child := range root.Children {
			lines = append(lines, root.Name+" > "+child.Name)
		}
	}
	return lines
}
