package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder is a gorm logger that keeps every statement it traces
type sqlRecorder struct {
	mu   sync.Mutex
	stmt []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface      { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmt = append(r.stmt, sql)
}

func (r *sqlRecorder) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.stmt)
	return r.stmt[len(r.stmt)-1]
}

// dryRunDB builds statements against the Postgres dialect without a server
func dryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=events dbname=events sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 rec,
	})
	require.NoError(t, err)
	return db, rec
}

func TestSavePendingReturnsStoredRow(t *testing.T) {
	db, rec := dryRunDB(t)
	repo := NewBookingRepository(db)

	_, err := repo.SavePending(context.Background(), "user1", "evt1", "9800000000")
	require.NoError(t, err)

	sql := rec.last(t)
	assert.Contains(t, sql, `ON CONFLICT ("user_id","event_id") DO UPDATE SET "checkout_phone"="excluded"."checkout_phone"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(sql), "RETURNING *"), sql)
}

func TestSaveEmbeddingWritesFloatArray(t *testing.T) {
	db, rec := dryRunDB(t)
	repo := NewEventRepository(db)

	// wider than any fixed-dimension vector column allows
	vector := make([]float64, 20000)
	vector[0] = 0.125
	require.NoError(t, repo.SaveEmbedding(context.Background(), "evt1", vector, "gen1"))

	sql := rec.last(t)
	assert.Contains(t, sql, `"embedding"='{0.125,0,`)
	assert.Contains(t, sql, `"embedding_snapshot"='gen1'`)

	require.NoError(t, repo.SaveEmbedding(context.Background(), "evt1", nil, ""))
	assert.Contains(t, rec.last(t), `"embedding"=NULL`)
}
