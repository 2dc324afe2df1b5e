// Package testutils 提供整合測試用的容器環境
//
// 以 testcontainers 啟動 PostgreSQL 與 Redis，並用內嵌的遷移檔建立 schema。
// 所有容器都會在測試結束時自動清理。需要 Docker，使用 -short 時應跳過。
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // database/sql 驅動，供 golang-migrate 使用
	"github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/koopa0/artshop/internal/migrations"
)

// artshopTables 清理順序（先關聯表再主表）
var artshopTables = []string{"art_artists", "arts", "artists", "classifications"}

// TestEnvironment 封裝測試環境
type TestEnvironment struct {
	RedisClient    *redis.Client
	PostgresPool   *pgxpool.Pool
	RedisContainer tc.Container
	PgContainer    tc.Container
	RedisAddr      string
	PostgresDSN    string
	Logger         *slog.Logger
	ctx            context.Context
}

// SetupPostgres 只啟動 PostgreSQL 並執行遷移
func SetupPostgres(t testing.TB) *TestEnvironment {
	t.Helper()

	env := newEnvironment()
	env.setupPostgreSQL(t)
	t.Cleanup(env.Cleanup)
	return env
}

// SetupRedis 只啟動 Redis
func SetupRedis(t testing.TB) *TestEnvironment {
	t.Helper()

	env := newEnvironment()
	env.setupRedis(t)
	t.Cleanup(env.Cleanup)
	return env
}

// SetupTestEnvironment 同時啟動 Redis 與 PostgreSQL
//
// 使用範例：
//
//	func TestSomething(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("skipping integration test")
//	    }
//	    env := testutils.SetupTestEnvironment(t)
//	    store := storage.NewPostgres(env.PostgresPool)
//	}
func SetupTestEnvironment(t testing.TB) *TestEnvironment {
	t.Helper()

	env := newEnvironment()
	env.setupRedis(t)
	env.setupPostgreSQL(t)
	t.Cleanup(env.Cleanup)
	return env
}

func newEnvironment() *TestEnvironment {
	return &TestEnvironment{
		ctx: context.Background(),
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelWarn, // 測試時減少日誌噪音
		})),
	}
}

// setupRedis 啟動 Redis 測試容器
func (env *TestEnvironment) setupRedis(t testing.TB) {
	t.Helper()

	redisContainer, err := tcredis.Run(env.ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	env.RedisContainer = redisContainer

	endpoint, err := redisContainer.Endpoint(env.ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}
	env.RedisAddr = endpoint

	env.RedisClient = redis.NewClient(&redis.Options{
		Addr:         endpoint,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(env.ctx, 5*time.Second)
	defer cancel()
	if err := env.RedisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}
}

// setupPostgreSQL 啟動 PostgreSQL 測試容器並執行遷移
func (env *TestEnvironment) setupPostgreSQL(t testing.TB) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(env.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("artshop_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		tcpostgres.WithSQLDriver("pgx"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	env.PgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(env.ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}
	env.PostgresDSN = dsn

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("failed to parse postgres config: %v", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	env.PostgresPool, err = pgxpool.NewWithConfig(env.ctx, config)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}
	if err := env.PostgresPool.Ping(env.ctx); err != nil {
		t.Fatalf("failed to ping postgres: %v", err)
	}

	env.runMigrations(t)
}

// runMigrations 以 database/sql 連線執行內嵌遷移
func (env *TestEnvironment) runMigrations(t testing.TB) {
	t.Helper()

	db, err := sql.Open("postgres", env.PostgresDSN)
	if err != nil {
		t.Fatalf("failed to open sql connection for migration: %v", err)
	}
	defer db.Close()

	m, err := migrations.NewWithDB(db, env.Logger)
	if err != nil {
		t.Fatalf("failed to create migrator: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
}

// TruncatePostgresTables 清空 artshop 的所有表並重置序號
func (env *TestEnvironment) TruncatePostgresTables(t testing.TB) {
	t.Helper()

	for _, table := range artshopTables {
		query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)
		if _, err := env.PostgresPool.Exec(env.ctx, query); err != nil {
			t.Fatalf("failed to truncate table %s: %v", table, err)
		}
	}
}

// FlushRedis 清空 Redis
func (env *TestEnvironment) FlushRedis(t testing.TB) {
	t.Helper()

	if err := env.RedisClient.FlushAll(env.ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// Cleanup 關閉連線並終止容器
func (env *TestEnvironment) Cleanup() {
	if env.RedisClient != nil {
		_ = env.RedisClient.Close()
	}
	if env.PostgresPool != nil {
		env.PostgresPool.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.RedisContainer != nil {
		if err := env.RedisContainer.Terminate(ctx); err != nil {
			env.Logger.Error("failed to terminate redis container", "error", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			env.Logger.Error("failed to terminate postgres container", "error", err)
		}
	}
}
