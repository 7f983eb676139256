package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sebkrier/alexandria-sub000/store"
)

func (s *Server) handleGetTaxonomy(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	tree, err := s.store.CategoryTree(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

type replaceTaxonomyRequest struct {
	Categories []store.ProposedCategory `json:"categories" binding:"required"`
}

// handleReplaceTaxonomy swaps the whole tree atomically. Articles are
// re-linked from the ids each proposed node carries; anything not listed
// is left uncategorized, never deleted.
func (s *Server) handleReplaceTaxonomy(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req replaceTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.processor.OptimizeTaxonomy(userID, req.Categories); err != nil {
		respondError(c, err)
		return
	}

	tree, err := s.store.CategoryTree(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}
