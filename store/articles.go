package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sebkrier/alexandria-sub000/types"
)

// ErrAlreadyProcessing is returned when a claim or re-queue hits an
// article that is mid-pipeline.
var ErrAlreadyProcessing = errors.New("article is already processing")

// CreateArticle persists a new article row. Extraction runs fully before
// this is called, so a failed extraction never leaves a partial row.
func (s *Store) CreateArticle(a *Article) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.ProcessingStatus == "" {
		a.ProcessingStatus = types.StatusPending
	}
	if err := s.db.Create(a).Error; err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// GetArticle fetches one article scoped to its owner.
func (s *Store) GetArticle(userID, articleID uuid.UUID) (*Article, error) {
	return getArticle(s.db, userID, articleID)
}

func getArticle(tx *gorm.DB, userID, articleID uuid.UUID) (*Article, error) {
	var a Article
	err := tx.Where("id = ? AND user_id = ?", articleID, userID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundError("article", articleID)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}

// SaveArticle writes back all mutated fields.
func (s *Store) SaveArticle(a *Article) error {
	if err := s.db.Save(a).Error; err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	return nil
}

// DeleteArticle removes an article and cascades to its associations and notes.
func (s *Store) DeleteArticle(userID, articleID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		a, err := getArticle(tx, userID, articleID)
		if err != nil {
			return err
		}
		for _, m := range []interface{}{&ArticleCategory{}, &ArticleTag{}} {
			if err := tx.Where("article_id = ?", a.ID).Delete(m).Error; err != nil {
				return fmt.Errorf("delete article associations: %w", err)
			}
		}
		if err := tx.Where("article_id = ? AND user_id = ?", a.ID, userID).Delete(&Note{}).Error; err != nil {
			return fmt.Errorf("delete article notes: %w", err)
		}
		return tx.Delete(a).Error
	})
}

// MarkFailed records a pipeline failure. It runs in its own transaction,
// opened after the failed attempt's session has been abandoned, so the
// status write survives even when everything else was rolled back.
func (s *Store) MarkFailed(userID, articleID uuid.UUID, cause string) error {
	res := s.db.Model(&Article{}).
		Where("id = ? AND user_id = ?", articleID, userID).
		Updates(map[string]interface{}{
			"processing_status": types.StatusFailed,
			"processing_error":  cause,
		})
	if res.Error != nil {
		return fmt.Errorf("mark failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NotFoundError("article", articleID)
	}
	return nil
}

// ClaimForProcessing flips PENDING/FAILED (or a re-queued article) into
// PROCESSING and commits immediately so concurrent readers see the
// in-flight state. It refuses to claim an article already PROCESSING;
// this status check is best-effort, not a mutex, and a race between two
// triggers is an accepted edge case.
func (s *Store) ClaimForProcessing(userID, articleID uuid.UUID) (*Article, error) {
	a, err := s.GetArticle(userID, articleID)
	if err != nil {
		return nil, err
	}
	if a.ProcessingStatus == types.StatusProcessing {
		return nil, fmt.Errorf("article %s: %w", articleID, ErrAlreadyProcessing)
	}
	a.ProcessingStatus = types.StatusProcessing
	a.ProcessingError = nil
	if err := s.SaveArticle(a); err != nil {
		return nil, err
	}
	return a, nil
}

// RequeueArticle returns an article to PENDING for a user-triggered
// re-analyze. PROCESSING articles are refused to avoid double-processing.
func (s *Store) RequeueArticle(userID, articleID uuid.UUID) error {
	a, err := s.GetArticle(userID, articleID)
	if err != nil {
		return err
	}
	if a.ProcessingStatus == types.StatusProcessing {
		return fmt.Errorf("article %s: %w", articleID, ErrAlreadyProcessing)
	}
	a.ProcessingStatus = types.StatusPending
	a.ProcessingError = nil
	return s.SaveArticle(a)
}

// RecoverStale flips a stuck PROCESSING article back to PENDING. Only the
// crash-recovery sweep calls this; user-triggered paths go through
// RequeueArticle, which refuses PROCESSING.
func (s *Store) RecoverStale(userID, articleID uuid.UUID) error {
	res := s.db.Model(&Article{}).
		Where("user_id = ? AND id = ? AND processing_status = ?", userID, articleID, types.StatusProcessing).
		Updates(map[string]any{"processing_status": types.StatusPending, "processing_error": nil})
	if res.Error != nil {
		return fmt.Errorf("recover stale article: %w", res.Error)
	}
	return nil
}

// ListArticleIDs returns all article ids owned by the user, newest first.
func (s *Store) ListArticleIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&Article{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list article ids: %w", err)
	}
	return ids, nil
}

// StaleProcessing returns articles stuck in PROCESSING longer than age,
// across all users. Used by the crash-recovery sweep.
func (s *Store) StaleProcessing(age time.Duration) ([]Article, error) {
	var stuck []Article
	cutoff := time.Now().Add(-age)
	err := s.db.Where("processing_status = ? AND updated_at < ?", types.StatusProcessing, cutoff).
		Find(&stuck).Error
	if err != nil {
		return nil, fmt.Errorf("find stale processing: %w", err)
	}
	return stuck, nil
}

// Providers

// GetProvider fetches one provider row scoped to its owner.
func (s *Store) GetProvider(userID uuid.UUID, providerID uint) (*AIProvider, error) {
	var p AIProvider
	err := s.db.Where("id = ? AND user_id = ?", providerID, userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundError("provider", providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return &p, nil
}

// ResolveProvider picks the provider for a pipeline run: the explicit id
// when given, else the user's default, else any active provider.
func (s *Store) ResolveProvider(userID uuid.UUID, providerID *uint) (*AIProvider, error) {
	if providerID != nil {
		return s.GetProvider(userID, *providerID)
	}

	var p AIProvider
	err := s.db.Where("user_id = ? AND is_default AND is_active", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolve default provider: %w", err)
	}

	err = s.db.Where("user_id = ? AND is_active", userID).Order("id").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &types.ProviderConfigurationError{Reason: "add a provider in settings"}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve provider: %w", err)
	}
	return &p, nil
}

// ListProviders returns the user's provider rows.
func (s *Store) ListProviders(userID uuid.UUID) ([]AIProvider, error) {
	var out []AIProvider
	if err := s.db.Where("user_id = ?", userID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return out, nil
}

// SaveProvider inserts or updates a provider row. Setting is_default
// unsets every other default for the same user in the same transaction.
func (s *Store) SaveProvider(p *AIProvider) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if p.IsDefault {
			if err := tx.Model(&AIProvider{}).
				Where("user_id = ? AND id <> ?", p.UserID, p.ID).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("unset previous default: %w", err)
			}
		}
		return tx.Save(p).Error
	})
}

// DeleteProvider removes a provider row scoped to its owner.
func (s *Store) DeleteProvider(userID uuid.UUID, providerID uint) error {
	res := s.db.Where("id = ? AND user_id = ?", providerID, userID).Delete(&AIProvider{})
	if res.Error != nil {
		return fmt.Errorf("delete provider: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NotFoundError("provider", providerID)
	}
	return nil
}

// EnsureUser finds or creates the user row for an email. Auth lives
// outside this service, so this is the whole account bootstrap.
func (s *Store) EnsureUser(email string) (uuid.UUID, error) {
	var u User
	err := s.db.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = User{ID: uuid.New(), Email: email}
		if err := s.db.Create(&u).Error; err != nil {
			return uuid.Nil, fmt.Errorf("create user: %w", err)
		}
		return u.ID, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find user: %w", err)
	}
	return u.ID, nil
}
