package process

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sebkrier/alexandria-sub000/ai"
	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/embed"
	"github.com/sebkrier/alexandria-sub000/secrets"
	"github.com/sebkrier/alexandria-sub000/store"
	"github.com/sebkrier/alexandria-sub000/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&store.User{}, &store.Article{}, &store.Category{}, &store.Tag{},
		&store.ArticleCategory{}, &store.ArticleTag{}, &store.Note{}, &store.AIProvider{},
	))
	return store.New(db)
}

// fakeProvider satisfies ai.Provider with canned responses.
type fakeProvider struct {
	summary     string
	tags        []types.TagSuggestion
	category    *types.CategorySuggestion
	summaryErr  error
	tagsErr     error
	categoryErr error
}

func (f *fakeProvider) Summarize(context.Context, string, string, types.SourceType) (*types.Summary, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return ai.BuildSummary(f.summary), nil
}

func (f *fakeProvider) SuggestTags(context.Context, string, string, []string) ([]types.TagSuggestion, error) {
	return f.tags, f.tagsErr
}

func (f *fakeProvider) SuggestCategory(context.Context, string, string, []string) (*types.CategorySuggestion, error) {
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	return f.category, nil
}

func (f *fakeProvider) AnswerQuestion(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeProvider) StreamAnswer(context.Context, string, string, func(string) error) error {
	return nil
}

func (f *fakeProvider) HealthCheck(context.Context) error { return nil }
func (f *fakeProvider) Name() string                      { return "fake" }
func (f *fakeProvider) Model() string                     { return "fake-1" }

type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string, mode embed.Mode) ([]float32, error) {
	if f.fail {
		return nil, errors.New("embedding backend down")
	}
	vec := make([]float32, config.EmbeddingDimensions)
	vec[0] = 1
	return vec, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type fixture struct {
	store    *store.Store
	service  *Service
	provider *fakeProvider
	userID   uuid.UUID
	article  *store.Article
}

func newFixture(t *testing.T, provider *fakeProvider) *fixture {
	t.Helper()
	st := newTestStore(t)

	cipher, err := secrets.NewCipher("test-server-secret")
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, st.DB().Create(&store.User{ID: userID, Email: "reader@example.com"}).Error)

	encrypted, err := cipher.Encrypt("sk-live-key")
	require.NoError(t, err)
	require.NoError(t, st.SaveProvider(&store.AIProvider{
		UserID: userID, ProviderType: "anthropic", ModelID: "claude-test",
		EncryptedAPIKey: encrypted, IsDefault: true, IsActive: true,
	}))

	article := &store.Article{
		UserID:        userID,
		SourceType:    types.SourceURL,
		Title:         "On Testing",
		ExtractedText: "some body text with exactly eight words here",
	}
	require.NoError(t, st.CreateArticle(article))

	svc := NewService(st, cipher, &fakeEmbedder{})
	svc.newProvider = func(providerType, apiKey, modelID string) (ai.Provider, error) {
		require.Equal(t, "anthropic", providerType)
		require.Equal(t, "sk-live-key", apiKey)
		return provider, nil
	}

	return &fixture{store: st, service: svc, provider: provider, userID: userID, article: article}
}

func defaultProvider() *fakeProvider {
	return &fakeProvider{
		summary: "## One-line summary\nA compact statement of the article's single core claim.\n\n## Details\nBody.",
		tags: []types.TagSuggestion{
			{Name: "testing", Confidence: 0.9},
			{Name: "golang", Confidence: 0.8},
			{Name: "maybe", Confidence: 0.5},
		},
		category: &types.CategorySuggestion{
			Category:    types.CategoryRef{Name: "Engineering"},
			Subcategory: types.CategoryRef{Name: "Testing", IsNew: true},
			Confidence:  0.8,
		},
	}
}

func TestProcessArticleHappyPath(t *testing.T) {
	fx := newFixture(t, defaultProvider())

	got, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, got.ProcessingStatus)
	require.NotNil(t, got.Summary)
	assert.Contains(t, *got.Summary, "core claim")
	assert.Equal(t, "fake:fake-1", got.SummaryModel)
	assert.Equal(t, 8, got.WordCount)
	require.NotNil(t, got.Embedding)

	// Tags below the confidence threshold are dropped.
	var tagLinks []store.ArticleTag
	require.NoError(t, fx.store.DB().Where("article_id = ?", got.ID).Find(&tagLinks).Error)
	assert.Len(t, tagLinks, 2)
	for _, link := range tagLinks {
		assert.True(t, link.SuggestedByAI)
	}

	var catLinks []store.ArticleCategory
	require.NoError(t, fx.store.DB().Where("article_id = ?", got.ID).Find(&catLinks).Error)
	require.Len(t, catLinks, 1)
	assert.True(t, catLinks[0].IsPrimary)
	assert.True(t, catLinks[0].SuggestedByAI)

	// The two-level tree exists: Engineering root with Testing child.
	tree, err := fx.store.CategoryTree(fx.userID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "Engineering", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Testing", tree[0].Children[0].Name)
}

// Running the pipeline twice must not duplicate tag links or accumulate
// category links.
func TestProcessArticleIdempotent(t *testing.T) {
	fx := newFixture(t, defaultProvider())
	ctx := context.Background()

	_, err := fx.service.ProcessArticle(ctx, fx.userID, fx.article.ID, nil)
	require.NoError(t, err)

	require.NoError(t, fx.store.RequeueArticle(fx.userID, fx.article.ID))
	_, err = fx.service.ProcessArticle(ctx, fx.userID, fx.article.ID, nil)
	require.NoError(t, err)

	var tagCount, catCount int64
	require.NoError(t, fx.store.DB().Model(&store.ArticleTag{}).Where("article_id = ?", fx.article.ID).Count(&tagCount).Error)
	require.NoError(t, fx.store.DB().Model(&store.ArticleCategory{}).Where("article_id = ?", fx.article.ID).Count(&catCount).Error)
	assert.EqualValues(t, 2, tagCount)
	assert.EqualValues(t, 1, catCount)

	// find-or-create matched the existing rows instead of duplicating them
	var tagRows int64
	require.NoError(t, fx.store.DB().Model(&store.Tag{}).Where("user_id = ?", fx.userID).Count(&tagRows).Error)
	assert.EqualValues(t, 2, tagRows)
}

func TestProcessArticleTagCap(t *testing.T) {
	provider := defaultProvider()
	provider.tags = nil
	for i := 0; i < 12; i++ {
		provider.tags = append(provider.tags, types.TagSuggestion{
			Name:       string(rune('a' + i)),
			Confidence: 0.9,
		})
	}
	fx := newFixture(t, provider)

	_, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.NoError(t, err)

	var count int64
	require.NoError(t, fx.store.DB().Model(&store.ArticleTag{}).Where("article_id = ?", fx.article.ID).Count(&count).Error)
	assert.EqualValues(t, config.MaxTagsPerArticle, count)
}

func TestProcessArticleSummarizeFailureMarksFailed(t *testing.T) {
	provider := defaultProvider()
	provider.summaryErr = &types.ProviderCallError{Provider: "fake", Message: "rate limited"}
	fx := newFixture(t, provider)

	_, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.Error(t, err)

	got, err := fx.store.GetArticle(fx.userID, fx.article.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.ProcessingStatus)
	require.NotNil(t, got.ProcessingError)
	assert.Contains(t, *got.ProcessingError, "rate limited")
	assert.Nil(t, got.Summary)
}

// Tag and category failures skip their class without failing the article.
func TestProcessArticleSuggestionFailuresAreNonFatal(t *testing.T) {
	provider := defaultProvider()
	provider.tagsErr = &types.ParseError{Detail: "no JSON"}
	provider.categoryErr = &types.ParseError{Detail: "no JSON"}
	fx := newFixture(t, provider)

	got, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.ProcessingStatus)
	require.NotNil(t, got.Summary)

	var tagCount int64
	require.NoError(t, fx.store.DB().Model(&store.ArticleTag{}).Where("article_id = ?", got.ID).Count(&tagCount).Error)
	assert.Zero(t, tagCount)
}

// The thresholds are inclusive: exactly 0.7 applies a tag and exactly
// 0.5 applies a category, while a hair under either is rejected.
func TestProcessArticleConfidenceBoundaries(t *testing.T) {
	provider := defaultProvider()
	provider.tags = []types.TagSuggestion{
		{Name: "at-threshold", Confidence: 0.7},
		{Name: "just-under", Confidence: 0.69},
	}
	provider.category.Confidence = 0.5
	fx := newFixture(t, provider)

	got, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.NoError(t, err)

	var tagLinks []store.ArticleTag
	require.NoError(t, fx.store.DB().Where("article_id = ?", got.ID).Find(&tagLinks).Error)
	require.Len(t, tagLinks, 1)
	var tag store.Tag
	require.NoError(t, fx.store.DB().First(&tag, "id = ?", tagLinks[0].TagID).Error)
	assert.Equal(t, "at-threshold", tag.Name)

	var catCount int64
	require.NoError(t, fx.store.DB().Model(&store.ArticleCategory{}).Where("article_id = ?", got.ID).Count(&catCount).Error)
	assert.EqualValues(t, 1, catCount)

	// A hair under the category threshold never links at all.
	fx.provider.category.Confidence = 0.49
	second := &store.Article{UserID: fx.userID, SourceType: types.SourceURL, Title: "Second", ExtractedText: "text"}
	require.NoError(t, fx.store.CreateArticle(second))
	_, err = fx.service.ProcessArticle(context.Background(), fx.userID, second.ID, nil)
	require.NoError(t, err)

	require.NoError(t, fx.store.DB().Model(&store.ArticleCategory{}).Where("article_id = ?", second.ID).Count(&catCount).Error)
	assert.Zero(t, catCount)
}

func TestProcessArticleLowCategoryConfidenceSkips(t *testing.T) {
	provider := defaultProvider()
	provider.category.Confidence = 0.3
	fx := newFixture(t, provider)

	got, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.ProcessingStatus)

	var catCount int64
	require.NoError(t, fx.store.DB().Model(&store.ArticleCategory{}).Where("article_id = ?", got.ID).Count(&catCount).Error)
	assert.Zero(t, catCount)
}

// Manual (non-AI) category links survive re-processing untouched.
func TestProcessArticlePreservesManualCategories(t *testing.T) {
	fx := newFixture(t, defaultProvider())

	manual := store.Category{UserID: fx.userID, Name: "Hand Filed"}
	require.NoError(t, fx.store.DB().Create(&manual).Error)
	require.NoError(t, fx.store.DB().Create(&store.ArticleCategory{
		ArticleID: fx.article.ID, CategoryID: manual.ID, IsPrimary: true,
	}).Error)

	_, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.NoError(t, err)

	var links []store.ArticleCategory
	require.NoError(t, fx.store.DB().Where("article_id = ?", fx.article.ID).Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, manual.ID, links[0].CategoryID)
	assert.False(t, links[0].SuggestedByAI)
}

func TestProcessArticleRefusesDoubleProcessing(t *testing.T) {
	fx := newFixture(t, defaultProvider())

	_, err := fx.store.ClaimForProcessing(fx.userID, fx.article.ID)
	require.NoError(t, err)

	_, err = fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	assert.ErrorIs(t, err, store.ErrAlreadyProcessing)
}

func TestProcessArticleEmbeddingFailureIsNonFatal(t *testing.T) {
	fx := newFixture(t, defaultProvider())
	fx.service.embedder = &fakeEmbedder{fail: true}

	got, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.ProcessingStatus)
	assert.Nil(t, got.Embedding)
}

func TestProcessArticleNoProviderConfigured(t *testing.T) {
	fx := newFixture(t, defaultProvider())
	require.NoError(t, fx.store.DB().Where("user_id = ?", fx.userID).Delete(&store.AIProvider{}).Error)

	_, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	var cfgErr *types.ProviderConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	got, err := fx.store.GetArticle(fx.userID, fx.article.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.ProcessingStatus)
}

func TestRegenerateSummaryLeavesTaxonomyAlone(t *testing.T) {
	fx := newFixture(t, defaultProvider())
	ctx := context.Background()

	_, err := fx.service.ProcessArticle(ctx, fx.userID, fx.article.ID, nil)
	require.NoError(t, err)

	fx.provider.summary = "## One-line summary\nA freshly regenerated statement of the core claim."
	got, err := fx.service.RegenerateSummary(ctx, fx.userID, fx.article.ID, nil)
	require.NoError(t, err)
	assert.Contains(t, *got.Summary, "freshly regenerated")
	assert.Equal(t, types.StatusCompleted, got.ProcessingStatus)

	var tagCount int64
	require.NoError(t, fx.store.DB().Model(&store.ArticleTag{}).Where("article_id = ?", got.ID).Count(&tagCount).Error)
	assert.EqualValues(t, 2, tagCount)
}

func TestBulkReanalyzeSkipsProcessing(t *testing.T) {
	fx := newFixture(t, defaultProvider())

	second := &store.Article{UserID: fx.userID, SourceType: types.SourceURL, Title: "Second", ExtractedText: "text"}
	require.NoError(t, fx.store.CreateArticle(second))
	_, err := fx.store.ClaimForProcessing(fx.userID, second.ID)
	require.NoError(t, err)

	queued, skipped, err := fx.service.BulkReanalyze(fx.userID)
	require.NoError(t, err)
	assert.Len(t, queued, 1)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, fx.article.ID, queued[0])
}

func TestOptimizeTaxonomyRebuildsTree(t *testing.T) {
	fx := newFixture(t, defaultProvider())
	_, err := fx.service.ProcessArticle(context.Background(), fx.userID, fx.article.ID, nil)
	require.NoError(t, err)

	proposed := []store.ProposedCategory{{
		Name: "Research",
		Children: []store.ProposedCategory{
			{Name: "Methods", ArticleIDs: []uuid.UUID{fx.article.ID}},
		},
	}}
	require.NoError(t, fx.service.OptimizeTaxonomy(fx.userID, proposed))

	tree, err := fx.store.CategoryTree(fx.userID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "Research", tree[0].Name)
	require.Len(t, tree[0].Children, 1)

	var links []store.ArticleCategory
	require.NoError(t, fx.store.DB().Where("article_id = ?", fx.article.ID).Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, tree[0].Children[0].ID, links[0].CategoryID)
}
