package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sebkrier/alexandria-sub000/store"
)

type askRequest struct {
	Question   string `json:"question" binding:"required"`
	ProviderID *uint  `json:"provider_id"`
	Stream     bool   `json:"stream"`
}

type askSource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// handleAsk answers a question over the user's library. With stream=true
// the response is SSE: one "sources" event, then "token" events, then
// "done". Without it, a single JSON body.
func (s *Server) handleAsk(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider, err := s.processor.ProviderFor(userID, req.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if !req.Stream {
		answer, sources, err := s.querySvc.Answer(ctx, userID, req.Question, provider)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"answer":  answer,
			"sources": sourceList(sources),
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flush := func() {
		if f, ok := c.Writer.(http.Flusher); ok {
			f.Flush()
		}
	}

	streamErr := s.querySvc.StreamAnswer(ctx, userID, req.Question, provider,
		func(sources []store.Article) error {
			c.SSEvent("sources", sourceList(sources))
			flush()
			return nil
		},
		func(token string) error {
			c.SSEvent("token", token)
			flush()
			return nil
		})
	if streamErr != nil {
		c.SSEvent("error", streamErr.Error())
		flush()
		return
	}
	c.SSEvent("done", "")
	flush()
}

func sourceList(articles []store.Article) []askSource {
	out := make([]askSource, 0, len(articles))
	for _, a := range articles {
		out = append(out, askSource{ID: a.ID.String(), Title: a.Title, URL: a.OriginalURL})
	}
	return out
}
