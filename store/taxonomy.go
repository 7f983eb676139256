package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sebkrier/alexandria-sub000/types"
)

// CategoryTree returns the user's full two-level tree: roots ordered by
// position, each with its children ordered by position.
func (s *Store) CategoryTree(userID uuid.UUID) ([]Category, error) {
	return categoryTree(s.db, userID)
}

func categoryTree(tx *gorm.DB, userID uuid.UUID) ([]Category, error) {
	var roots []Category
	err := tx.Where("user_id = ? AND parent_id IS NULL", userID).
		Order("position, id").Find(&roots).Error
	if err != nil {
		return nil, fmt.Errorf("load root categories: %w", err)
	}
	for i := range roots {
		err := tx.Where("user_id = ? AND parent_id = ?", userID, roots[i].ID).
			Order("position, id").Find(&roots[i].Children).Error
		if err != nil {
			return nil, fmt.Errorf("load subcategories of %q: %w", roots[i].Name, err)
		}
	}
	return roots, nil
}

// FindOrCreateCategory matches by exact name within the user's scope and
// parent level, creating the row when absent. New siblings get the next
// position.
func FindOrCreateCategory(tx *gorm.DB, userID uuid.UUID, name string, parentID *uint) (*Category, error) {
	q := tx.Where("user_id = ? AND name = ?", userID, name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	var cat Category
	err := q.First(&cat).Error
	if err == nil {
		return &cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find category %q: %w", name, err)
	}

	var position int64
	countQ := tx.Model(&Category{}).Where("user_id = ?", userID)
	if parentID == nil {
		countQ = countQ.Where("parent_id IS NULL")
	} else {
		countQ = countQ.Where("parent_id = ?", *parentID)
	}
	if err := countQ.Count(&position).Error; err != nil {
		return nil, fmt.Errorf("count siblings: %w", err)
	}

	cat = Category{UserID: userID, Name: name, ParentID: parentID, Position: int(position)}
	if err := tx.Create(&cat).Error; err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}
	return &cat, nil
}

// FindOrCreateTag matches by exact name within the user's scope.
func FindOrCreateTag(tx *gorm.DB, userID uuid.UUID, name string) (*Tag, error) {
	var tag Tag
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find tag %q: %w", name, err)
	}

	tag = Tag{UserID: userID, Name: name}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("create tag %q: %w", name, err)
	}
	return &tag, nil
}

// TagNames returns the user's existing tag names, for reuse preference in
// tag suggestion prompts.
func (s *Store) TagNames(userID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.Model(&Tag{}).Where("user_id = ?", userID).
		Order("name").Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list tag names: %w", err)
	}
	return names, nil
}

// DeleteCategory removes one category and reparents its children to the
// deleted node's parent (nil makes them roots). Article associations move
// with nothing; links to the deleted node are dropped.
func (s *Store) DeleteCategory(userID uuid.UUID, categoryID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var cat Category
		err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&cat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFoundError("category", categoryID)
		}
		if err != nil {
			return fmt.Errorf("get category: %w", err)
		}

		if err := tx.Model(&Category{}).
			Where("user_id = ? AND parent_id = ?", userID, cat.ID).
			Update("parent_id", cat.ParentID).Error; err != nil {
			return fmt.Errorf("reparent children: %w", err)
		}
		if err := tx.Where("category_id = ?", cat.ID).Delete(&ArticleCategory{}).Error; err != nil {
			return fmt.Errorf("drop category links: %w", err)
		}
		return tx.Delete(&cat).Error
	})
}

// ProposedCategory is one root with subcategories in a proposed taxonomy,
// carrying the article ids to re-link per node.
type ProposedCategory struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	ArticleIDs  []uuid.UUID         `json:"article_ids,omitempty"`
	Children    []ProposedCategory  `json:"children,omitempty"`
}

// ReplaceTaxonomy atomically swaps the user's whole category tree for the
// proposed one: associations first, then categories children-before-parents
// to respect the FK, then rebuild and re-link. Any failure rolls back the
// entire replacement; a partial taxonomy is worse than no replacement.
func (s *Store) ReplaceTaxonomy(userID uuid.UUID, proposed []ProposedCategory) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"article_id IN (?)",
			tx.Model(&Article{}).Select("id").Where("user_id = ?", userID),
		).Delete(&ArticleCategory{}).Error; err != nil {
			return fmt.Errorf("clear category associations: %w", err)
		}

		if err := tx.Where("user_id = ? AND parent_id IS NOT NULL", userID).Delete(&Category{}).Error; err != nil {
			return fmt.Errorf("delete subcategories: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&Category{}).Error; err != nil {
			return fmt.Errorf("delete root categories: %w", err)
		}

		for rootPos, root := range proposed {
			rootRow := Category{
				UserID:      userID,
				Name:        root.Name,
				Description: root.Description,
				Position:    rootPos,
			}
			if err := tx.Create(&rootRow).Error; err != nil {
				return fmt.Errorf("create root %q: %w", root.Name, err)
			}
			if err := linkArticles(tx, userID, rootRow.ID, root.ArticleIDs); err != nil {
				return err
			}

			for childPos, child := range root.Children {
				childRow := Category{
					UserID:      userID,
					Name:        child.Name,
					Description: child.Description,
					ParentID:    &rootRow.ID,
					Position:    childPos,
				}
				if err := tx.Create(&childRow).Error; err != nil {
					return fmt.Errorf("create subcategory %q: %w", child.Name, err)
				}
				if err := linkArticles(tx, userID, childRow.ID, child.ArticleIDs); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func linkArticles(tx *gorm.DB, userID uuid.UUID, categoryID uint, articleIDs []uuid.UUID) error {
	for _, id := range articleIDs {
		// Ownership check before linking; a foreign id aborts the whole replace.
		if _, err := getArticle(tx, userID, id); err != nil {
			return err
		}
		link := ArticleCategory{ArticleID: id, CategoryID: categoryID, IsPrimary: true, SuggestedByAI: true}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("link article %s: %w", id, err)
		}
	}
	return nil
}
