package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sebkrier/alexandria-sub000/queue"
	"github.com/sebkrier/alexandria-sub000/store"
	"github.com/sebkrier/alexandria-sub000/types"
)

type captureQueue struct {
	jobs []queue.Job
}

func (c *captureQueue) Enqueue(_ context.Context, job queue.Job) error {
	c.jobs = append(c.jobs, job)
	return nil
}

func (c *captureQueue) Close() error { return nil }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&store.User{}, &store.Article{}))
	return store.New(db)
}

func seedArticle(t *testing.T, st *store.Store, userID uuid.UUID, status types.ProcessingStatus, age time.Duration) uuid.UUID {
	t.Helper()
	a := store.Article{
		ID: uuid.New(), UserID: userID, SourceType: types.SourceURL,
		Title: "Stuck", ProcessingStatus: status,
	}
	require.NoError(t, st.DB().Create(&a).Error)
	require.NoError(t, st.DB().Model(&store.Article{}).
		Where("id = ?", a.ID).
		Update("updated_at", time.Now().Add(-age)).Error)
	return a.ID
}

func TestSweepOnceRecoversStaleArticles(t *testing.T) {
	st := newTestStore(t)
	userID := uuid.New()
	require.NoError(t, st.DB().Create(&store.User{ID: userID, Email: "reader@example.com"}).Error)

	stale := seedArticle(t, st, userID, types.StatusProcessing, 2*time.Hour)
	fresh := seedArticle(t, st, userID, types.StatusProcessing, time.Minute)
	completed := seedArticle(t, st, userID, types.StatusCompleted, 2*time.Hour)

	q := &captureQueue{}
	sweeper := NewSweeper(st, q)
	require.NoError(t, sweeper.SweepOnce(context.Background()))

	require.Len(t, q.jobs, 1)
	assert.Equal(t, stale, q.jobs[0].ArticleID)
	assert.Equal(t, userID, q.jobs[0].UserID)

	recovered, err := st.GetArticle(userID, stale)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, recovered.ProcessingStatus)

	untouched, err := st.GetArticle(userID, fresh)
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, untouched.ProcessingStatus)

	done, err := st.GetArticle(userID, completed)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, done.ProcessingStatus)
}

func TestSweepOnceNoStaleIsQuiet(t *testing.T) {
	st := newTestStore(t)
	q := &captureQueue{}
	require.NoError(t, NewSweeper(st, q).SweepOnce(context.Background()))
	assert.Empty(t, q.jobs)
}
