package main

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/celestiaorg/trustgig/config"
	"github.com/celestiaorg/trustgig/internal/audit"
	"github.com/celestiaorg/trustgig/internal/db"
	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/internal/events"
	"github.com/celestiaorg/trustgig/pkg/api/v1/client"
	"github.com/celestiaorg/trustgig/pkg/api/v1/handlers"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "server.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{WalletFaucet: true}
	cfg.Lock.Backend = config.LockBackendMemory
	cfg.Watcher.Interval = 20 * time.Millisecond
	cfg.Watcher.Batch = 10
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Audit.Dir = t.TempDir()
	return cfg
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := testConfig(t)
	gdb := newTestDB(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, gdb, ln)
	}()

	api, err := client.NewClient(&client.Options{BaseURL: "http://" + ln.Addr().String(), Caller: "0xalice"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		resp, err := api.HealthCheck(ctx)
		return err == nil && resp["status"] == "healthy"
	}, 5*time.Second, 20*time.Millisecond, "server never started serving")

	_, err = api.Fund(ctx, "", 500)
	require.NoError(t, err)
	id, err := api.PostJob(ctx, handlers.JobPostParams{Description: "Landing page", DurationDays: 7, Payment: 100})
	require.NoError(t, err)

	job, err := api.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOpen, job.Status)

	require.Eventually(t, func() bool {
		files, err := audit.Files(cfg.Audit.Dir)
		return err == nil && len(files) > 0
	}, 5*time.Second, 20*time.Millisecond, "posted job never reached the audit log")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}

	files, err := audit.Files(cfg.Audit.Dir)
	require.NoError(t, err)
	records, err := audit.Read(files[0])
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, events.EventJobPosted, records[0].Event.Type)
	assert.Equal(t, id, records[0].Event.JobID)
}

func TestRunFailsWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Lock.Backend = config.LockBackendRedis
	cfg.Redis.Addr = "127.0.0.1:1"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = run(context.Background(), cfg, newTestDB(t), ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
