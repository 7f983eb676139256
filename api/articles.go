package api

import (
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sebkrier/alexandria-sub000/queue"
	"github.com/sebkrier/alexandria-sub000/storage"
	"github.com/sebkrier/alexandria-sub000/store"
	"github.com/sebkrier/alexandria-sub000/types"
)

type ingestRequest struct {
	URL        string `json:"url"`
	ProviderID *uint  `json:"provider_id"`
}

// handleIngestArticle accepts either a JSON body with a URL or a
// multipart upload with a "file" PDF. Extraction runs synchronously so a
// dead link fails the request immediately; AI processing is queued.
func (s *Server) handleIngestArticle(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	if file, err := c.FormFile("file"); err == nil {
		s.ingestPDF(c, userID, file)
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	content, err := s.extractor.ExtractURL(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	article, err := s.createAndEnqueue(c, userID, content, req.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, articleStatusBody(article))
}

// ingestPDF spools the upload to disk (go-fitz needs a file path and the
// title fallback needs the original filename), extracts, then moves the
// bytes into blob storage keyed by the new article id.
func (s *Server) ingestPDF(c *gin.Context, userID uuid.UUID, header *multipart.FileHeader) {
	var providerID *uint
	if raw := c.PostForm("provider_id"); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
			id := uint(n)
			providerID = &id
		}
	}

	dir, err := os.MkdirTemp("", "pdf-ingest-")
	if err != nil {
		respondError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	localPath := filepath.Join(dir, filepath.Base(header.Filename))
	if err := c.SaveUploadedFile(header, localPath); err != nil {
		respondError(c, err)
		return
	}

	content, err := s.extractor.ExtractFile(c.Request.Context(), localPath)
	if err != nil {
		respondError(c, err)
		return
	}

	articleID := uuid.New()
	if s.blobs != nil {
		f, err := os.Open(localPath)
		if err != nil {
			respondError(c, err)
			return
		}
		key := storage.PDFKey(userID, articleID)
		err = s.blobs.Put(c.Request.Context(), key, f, "application/pdf")
		f.Close()
		if err != nil {
			respondError(c, err)
			return
		}
		content.FilePath = key
	} else {
		content.FilePath = ""
	}

	article, err := s.createArticle(c, userID, articleID, content, providerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, articleStatusBody(article))
}

func (s *Server) createAndEnqueue(c *gin.Context, userID uuid.UUID, content *types.ExtractedContent, providerID *uint) (*store.Article, error) {
	return s.createArticle(c, userID, uuid.New(), content, providerID)
}

func (s *Server) createArticle(c *gin.Context, userID, articleID uuid.UUID, content *types.ExtractedContent, providerID *uint) (*store.Article, error) {
	article := &store.Article{
		ID:               articleID,
		UserID:           userID,
		SourceType:       content.SourceType,
		OriginalURL:      content.OriginalURL,
		FilePath:         content.FilePath,
		Title:            content.Title,
		PublicationDate:  content.PublicationDate,
		ExtractedText:    content.Text,
		WordCount:        content.WordCount(),
		ProcessingStatus: types.StatusPending,
	}
	article.SetAuthors(content.Authors)
	if len(content.Metadata) > 0 {
		if b, err := json.Marshal(content.Metadata); err == nil {
			article.ArticleMetadata = b
		}
	}

	if err := s.store.CreateArticle(article); err != nil {
		return nil, err
	}

	job := queue.Job{UserID: userID, ArticleID: article.ID, ProviderID: providerID}
	if err := s.queue.Enqueue(c.Request.Context(), job); err != nil {
		// The row exists and the stale sweep will never see PENDING, so
		// surface the queue failure instead of silently stranding it.
		log.Printf("enqueue failed for article %s: %v", article.ID, err)
		return nil, err
	}
	return article, nil
}

func articleStatusBody(a *store.Article) gin.H {
	body := gin.H{
		"id":                a.ID,
		"title":             a.Title,
		"processing_status": a.ProcessingStatus,
	}
	if a.ProcessingError != nil {
		body["processing_error"] = *a.ProcessingError
	}
	return body
}

func (s *Server) handleGetArticle(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	article, err := s.store.GetArticle(userID, articleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleArticleStatus(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	article, err := s.store.GetArticle(userID, articleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleStatusBody(article))
}

type reanalyzeRequest struct {
	ProviderID *uint `json:"provider_id"`
}

func (s *Server) handleReanalyzeArticle(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	var req reanalyzeRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	if err := s.store.RequeueArticle(userID, articleID); err != nil {
		respondError(c, err)
		return
	}
	job := queue.Job{UserID: userID, ArticleID: articleID, ProviderID: req.ProviderID}
	if err := s.queue.Enqueue(c.Request.Context(), job); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": articleID, "processing_status": types.StatusPending})
}

func (s *Server) handleBulkReanalyze(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req reanalyzeRequest
	_ = c.ShouldBindJSON(&req)

	queued, skipped, err := s.processor.BulkReanalyze(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	enqueued := 0
	for _, id := range queued {
		job := queue.Job{UserID: userID, ArticleID: id, ProviderID: req.ProviderID}
		if err := s.queue.Enqueue(c.Request.Context(), job); err != nil {
			log.Printf("bulk enqueue failed for article %s: %v", id, err)
			continue
		}
		enqueued++
	}
	c.JSON(http.StatusAccepted, gin.H{
		"queued":  enqueued,
		"skipped": skipped,
	})
}

func (s *Server) handleRegenerateSummary(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	var req reanalyzeRequest
	_ = c.ShouldBindJSON(&req)

	article, err := s.processor.RegenerateSummary(c.Request.Context(), userID, articleID, req.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

