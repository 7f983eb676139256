// Package store owns persistence for the research library: gorm models,
// user-scoped lookups, taxonomy mutations, and the search queries behind
// hybrid retrieval. Every read and write carries a user id in its WHERE
// clause; cross-user access is impossible at the query level.
package store

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the database handle. One logical unit of work (an article's
// full pipeline, a taxonomy replace) uses one transaction scope.
type Store struct {
	db *gorm.DB
}

// New wraps an already-open gorm handle. Used by tests with sqlite.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and runs migrations.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle for transaction scopes.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) migrate() error {
	if err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}

	if err := s.db.AutoMigrate(
		&User{}, &Article{}, &Category{}, &Tag{},
		&ArticleCategory{}, &ArticleTag{}, &Note{}, &AIProvider{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// search_vector lives outside the gorm model: it is written only by
	// this trigger (title weight A, summary B, extracted_text C).
	stmts := []string{
		`ALTER TABLE articles ADD COLUMN IF NOT EXISTS search_vector tsvector`,
		`CREATE INDEX IF NOT EXISTS idx_articles_search_vector ON articles USING gin(search_vector)`,
		`CREATE OR REPLACE FUNCTION articles_search_vector_update() RETURNS trigger AS $$
		BEGIN
			NEW.search_vector :=
				setweight(to_tsvector('english', coalesce(NEW.title, '')), 'A') ||
				setweight(to_tsvector('english', coalesce(NEW.summary, '')), 'B') ||
				setweight(to_tsvector('english', coalesce(NEW.extracted_text, '')), 'C');
			RETURN NEW;
		END
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS trg_articles_search_vector ON articles`,
		`CREATE TRIGGER trg_articles_search_vector
			BEFORE INSERT OR UPDATE OF title, summary, extracted_text ON articles
			FOR EACH ROW EXECUTE FUNCTION articles_search_vector_update()`,
	}
	for _, stmt := range stmts {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("search vector migration: %w", err)
		}
	}

	log.Println("database migrations complete")
	return nil
}
