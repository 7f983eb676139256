package query

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/sebkrier/alexandria-sub000/ai"
	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/embed"
	"github.com/sebkrier/alexandria-sub000/store"
	"github.com/sebkrier/alexandria-sub000/types"
)

// Service answers questions over one user's library.
type Service struct {
	store    *store.Store
	embedder embed.Provider // nil degrades retrieval to keyword-only
}

func NewService(st *store.Store, embedder embed.Provider) *Service {
	return &Service{store: st, embedder: embedder}
}

// Answer routes the question and returns the full answer plus the source
// articles that fed the context (empty for metadata answers).
func (s *Service) Answer(ctx context.Context, userID uuid.UUID, question string, provider ai.Provider) (string, []store.Article, error) {
	if Classify(question) == types.QueryMetadata {
		answer, err := s.answerMetadata(ctx, userID, question, provider)
		return answer, nil, err
	}
	return s.AnswerContentQuestion(ctx, userID, question, provider)
}

// StreamAnswer is Answer with token-by-token delivery. onSources fires
// once, before the first token, so callers can render the source articles
// while the answer is still generating; metadata answers report no
// sources. Either callback may be nil.
func (s *Service) StreamAnswer(ctx context.Context, userID uuid.UUID, question string, provider ai.Provider, onSources func(sources []store.Article) error, emit func(token string) error) error {
	if Classify(question) == types.QueryMetadata {
		op := DetectMetadataOperation(question)
		result, err := ExecuteMetadataQuery(s.store, userID, op, question)
		if err != nil {
			return err
		}
		if onSources != nil {
			if err := onSources(nil); err != nil {
				return err
			}
		}
		return provider.StreamAnswer(ctx, question, FormatMetadataForLLM(result), emit)
	}

	sources, contextBlock, err := s.retrieve(ctx, userID, question)
	if err != nil {
		return err
	}
	if onSources != nil {
		if err := onSources(sources); err != nil {
			return err
		}
	}
	return provider.StreamAnswer(ctx, question, contextBlock, emit)
}

func (s *Service) answerMetadata(ctx context.Context, userID uuid.UUID, question string, provider ai.Provider) (string, error) {
	op := DetectMetadataOperation(question)
	result, err := ExecuteMetadataQuery(s.store, userID, op, question)
	if err != nil {
		return "", err
	}
	return provider.AnswerQuestion(ctx, question, FormatMetadataForLLM(result))
}

// AnswerContentQuestion runs the retrieval path directly, bypassing
// classification. Callers that already know the question is about content
// (or that want to force retrieval) use this.
func (s *Service) AnswerContentQuestion(ctx context.Context, userID uuid.UUID, question string, provider ai.Provider) (string, []store.Article, error) {
	sources, contextBlock, err := s.retrieve(ctx, userID, question)
	if err != nil {
		return "", nil, err
	}
	answer, err := provider.AnswerQuestion(ctx, question, contextBlock)
	return answer, sources, err
}

// retrieve runs the hybrid search and builds the prompt context.
func (s *Service) retrieve(ctx context.Context, userID uuid.UUID, question string) ([]store.Article, string, error) {
	var semantic []store.SemanticHit
	if s.embedder != nil {
		queryVec, err := s.embedder.Embed(ctx, question, embed.ModeQuery)
		if err != nil {
			log.Printf("query embedding failed, continuing keyword-only: %v", err)
		} else if semantic, err = s.store.SemanticSearch(userID, queryVec, config.SearchCandidates); err != nil {
			return nil, "", err
		}
	}

	keyword, err := s.store.KeywordSearch(userID, question, config.SearchCandidates)
	if err != nil {
		return nil, "", err
	}

	ranked := MergeHits(semantic, keyword, config.RetrievalResultLimit)

	var articles []store.Article
	if len(ranked) > 0 {
		ids := make([]uuid.UUID, len(ranked))
		for i, r := range ranked {
			ids[i] = r.ArticleID
		}
		loaded, err := s.store.ArticlesByIDs(userID, ids)
		if err != nil {
			return nil, "", err
		}
		articles = orderByRank(loaded, ranked)
	} else {
		// Nothing matched either way: recent articles beat no context.
		articles, err = s.store.RecentCompleted(userID, config.RecentFallbackLimit)
		if err != nil {
			return nil, "", err
		}
	}
	return articles, buildContext(articles), nil
}

// RankedHit is one article with its merged hybrid score.
type RankedHit struct {
	ArticleID uuid.UUID
	Score     float64
}

// MergeHits sums normalized per-method scores per article: semantic
// contributes max(0, 1-distance), keyword contributes rank/maxRank. An
// article found by both methods accumulates both, biasing the ranking
// toward items confirmed by both signals.
func MergeHits(semantic []store.SemanticHit, keyword []store.KeywordHit, limit int) []RankedHit {
	scores := make(map[uuid.UUID]float64)

	for _, hit := range semantic {
		score := 1 - hit.Distance
		if score < 0 {
			score = 0
		}
		scores[hit.ArticleID] += score
	}

	var maxRank float64
	for _, hit := range keyword {
		if hit.Rank > maxRank {
			maxRank = hit.Rank
		}
	}
	if maxRank > 0 {
		for _, hit := range keyword {
			scores[hit.ArticleID] += hit.Rank / maxRank
		}
	}

	ranked := make([]RankedHit, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, RankedHit{ArticleID: id, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ArticleID.String() < ranked[j].ArticleID.String()
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func orderByRank(articles []store.Article, ranked []RankedHit) []store.Article {
	byID := make(map[uuid.UUID]store.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	out := make([]store.Article, 0, len(ranked))
	for _, r := range ranked {
		if a, ok := byID[r.ArticleID]; ok {
			out = append(out, a)
		}
	}
	return out
}

const contextSeparator = "\n\n---\n\n"

// buildContext renders title + summary + a bounded excerpt per article.
func buildContext(articles []store.Article) string {
	sections := make([]string, 0, len(articles))
	for _, a := range articles {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Article: %s\n", a.Title)
		if a.Summary != nil && *a.Summary != "" {
			fmt.Fprintf(&sb, "Summary: %s\n", *a.Summary)
		}
		excerpt := a.ExtractedText
		if len(excerpt) > config.ContextExcerptLength {
			excerpt = excerpt[:config.ContextExcerptLength]
		}
		sb.WriteString("Excerpt: " + excerpt)
		sections = append(sections, sb.String())
	}
	return strings.Join(sections, contextSeparator)
}
