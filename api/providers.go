package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sebkrier/alexandria-sub000/store"
)

// providerView is the outward shape of a provider row. The key never
// appears, encrypted or otherwise.
type providerView struct {
	ID           uint   `json:"id"`
	ProviderType string `json:"provider_type"`
	Name         string `json:"name"`
	ModelID      string `json:"model_id,omitempty"`
	IsDefault    bool   `json:"is_default"`
	IsActive     bool   `json:"is_active"`
}

func viewOf(p *store.AIProvider) providerView {
	return providerView{
		ID:           p.ID,
		ProviderType: p.ProviderType,
		Name:         p.Name,
		ModelID:      p.ModelID,
		IsDefault:    p.IsDefault,
		IsActive:     p.IsActive,
	}
}

func (s *Server) handleListProviders(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	rows, err := s.store.ListProviders(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]providerView, 0, len(rows))
	for i := range rows {
		out = append(out, viewOf(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

type createProviderRequest struct {
	ProviderType string `json:"provider_type" binding:"required"`
	Name         string `json:"name"`
	ModelID      string `json:"model_id"`
	APIKey       string `json:"api_key" binding:"required"`
	IsDefault    bool   `json:"is_default"`
}

func (s *Server) handleCreateProvider(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req createProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	encrypted, err := s.cipher.Encrypt(req.APIKey)
	if err != nil {
		respondError(c, err)
		return
	}

	row := &store.AIProvider{
		UserID:          userID,
		ProviderType:    req.ProviderType,
		Name:            req.Name,
		ModelID:         req.ModelID,
		EncryptedAPIKey: encrypted,
		IsDefault:       req.IsDefault,
		IsActive:        true,
	}
	if err := s.store.SaveProvider(row); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(row))
}

// handleTestProvider builds the real client and runs a minimal completion
// so a bad key fails here instead of mid-pipeline.
func (s *Server) handleTestProvider(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	providerID, ok := parseProviderID(c)
	if !ok {
		return
	}

	provider, err := s.processor.ProviderFor(userID, &providerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := provider.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "provider": provider.Name(), "model": provider.Model()})
}

func (s *Server) handleDeleteProvider(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	providerID, ok := parseProviderID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteProvider(userID, providerID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseProviderID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid provider id"})
		return 0, false
	}
	return uint(n), true
}
