package store

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NameCount pairs a label with how many articles carry it.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// ArticlePreview is the compact listing shape used by metadata answers.
type ArticlePreview struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// CountArticles returns the user's total article row count.
func (s *Store) CountArticles(userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.Model(&Article{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// CountByCategory returns per-category article counts. A root's displayed
// count is the sum of its subcategories plus direct assignments, which
// falls out of counting each node then rolling children into parents.
func (s *Store) CountByCategory(userID uuid.UUID) ([]NameCount, error) {
	tree, err := s.CategoryTree(userID)
	if err != nil {
		return nil, err
	}

	perNode := map[uint]int64{}
	type row struct {
		CategoryID uint
		N          int64
	}
	var rows []row
	err = s.db.Model(&ArticleCategory{}).
		Select("article_categories.category_id AS category_id, count(*) AS n").
		Joins("JOIN articles ON articles.id = article_categories.article_id").
		Where("articles.user_id = ?", userID).
		Group("article_categories.category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	for _, r := range rows {
		perNode[r.CategoryID] = r.N
	}

	out := make([]NameCount, 0, len(tree))
	for _, root := range tree {
		total := perNode[root.ID]
		for _, child := range root.Children {
			total += perNode[child.ID]
		}
		out = append(out, NameCount{Name: root.Name, Count: total})
	}
	return out, nil
}

// CountByTag returns per-tag article counts, most used first.
func (s *Store) CountByTag(userID uuid.UUID) ([]NameCount, error) {
	var out []NameCount
	err := s.db.Model(&Tag{}).
		Select("tags.name AS name, count(article_tags.article_id) AS count").
		Joins("LEFT JOIN article_tags ON article_tags.tag_id = tags.id").
		Where("tags.user_id = ?", userID).
		Group("tags.id, tags.name").
		Order("count DESC, name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("count by tag: %w", err)
	}
	return out, nil
}

// CountByMediaType returns article counts grouped by source type.
func (s *Store) CountByMediaType(userID uuid.UUID) ([]NameCount, error) {
	var out []NameCount
	err := s.db.Model(&Article{}).
		Select("source_type AS name, count(*) AS count").
		Where("user_id = ?", userID).
		Group("source_type").
		Order("count DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("count by media type: %w", err)
	}
	return out, nil
}

// CountInDateRange counts articles created in [from, to] and previews the
// most recent few.
func (s *Store) CountInDateRange(userID uuid.UUID, from, to time.Time, previewLimit int) (int64, []ArticlePreview, error) {
	q := s.db.Model(&Article{}).Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, from, to)

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, nil, fmt.Errorf("date range count: %w", err)
	}

	var preview []ArticlePreview
	err := s.db.Model(&Article{}).
		Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, from, to).
		Order("created_at DESC").Limit(previewLimit).
		Scan(&preview).Error
	if err != nil {
		return 0, nil, fmt.Errorf("date range preview: %w", err)
	}
	return n, preview, nil
}

// RecentArticlePreviews lists the newest articles.
func (s *Store) RecentArticlePreviews(userID uuid.UUID, limit int) ([]ArticlePreview, error) {
	var out []ArticlePreview
	err := s.db.Model(&Article{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent articles: %w", err)
	}
	return out, nil
}

// TopDomains ranks source domains by URL hostname frequency. Hostnames are
// derived in Go rather than SQL so parsing rules stay in one place.
func (s *Store) TopDomains(userID uuid.UUID, limit int) ([]NameCount, error) {
	var urls []string
	err := s.db.Model(&Article{}).
		Where("user_id = ? AND original_url <> ''", userID).
		Pluck("original_url", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("load urls: %w", err)
	}

	counts := map[string]int64{}
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		counts[host]++
	}

	out := make([]NameCount, 0, len(counts))
	for host, n := range counts {
		out = append(out, NameCount{Name: host, Count: n})
	}
	sortNameCounts(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNameCounts(ncs []NameCount) {
	sort.Slice(ncs, func(i, j int) bool {
		if ncs[i].Count != ncs[j].Count {
			return ncs[i].Count > ncs[j].Count
		}
		return ncs[i].Name < ncs[j].Name
	})
}
