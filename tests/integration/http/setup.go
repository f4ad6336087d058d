//go:build integration

package http

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/cache/redis"
	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/ctrl"
	hdl "github.com/JMURv/device-auth/internal/hdl/http"
	"github.com/JMURv/device-auth/internal/repo/db"
	"github.com/JMURv/device-auth/internal/smtp"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const getTables = `
SELECT tablename 
FROM pg_tables 
WHERE schemaname = 'public' AND tablename <> 'schema_migrations';
`

const (
	adminUsername = "admin"
	adminPassword = "admin-password"
	pgUser        = "app_owner"
	pgPassword    = "app_password"
	pgDatabase    = "device_auth"
)

var rootDir = filepath.Join("..", "..", "..")

func getRedis(t *testing.T) (testcontainers.Container, string) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	endpoint, err := redisC.Endpoint(ctx, "")
	require.NoError(t, err)

	zap.L().Info("Redis container is ready", zap.String("addr", endpoint))
	return redisC, endpoint
}

func getPostgres(t *testing.T) (testcontainers.Container, string, int) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:17.4-alpine",
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
		Env: map[string]string{
			"POSTGRES_DB":       pgDatabase,
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
		},
	}

	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := pgC.Host(ctx)
	require.NoError(t, err)

	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return pgC, host, port.Int()
}

func testConfig(redisAddr, pgHost string, pgPort int) config.Config {
	return config.Config{
		ServiceName: "device-auth-test",
		Server:      config.ServerConfig{Mode: "dev", LoginRPS: 1000, LoginBurst: 1000},
		Auth: config.AuthConfig{
			JWT: config.JWTConfig{
				Secret: "integration-secret",
				Issuer: "device-auth",
				TTL:    config.TokenDuration,
			},
			Admin:            config.AdminConfig{Username: adminUsername, Password: adminPassword, Quota: 999},
			BcryptCost:       4,
			RecheckOnResolve: true,
		},
		Storage: config.StorageConfig{Driver: config.StoragePostgres},
		DB: config.DBConfig{
			Host:     pgHost,
			Port:     pgPort,
			User:     pgUser,
			Password: pgPassword,
			Database: pgDatabase,
		},
		Redis: config.RedisConfig{Addr: redisAddr},
	}
}

func setupTestServer(t *testing.T) *httptest.Server {
	zap.ReplaceGlobals(zap.Must(zap.NewDevelopment()))

	t.Setenv("MIGRATIONS_PATH", filepath.ToSlash(
		filepath.Join(rootDir, "internal", "repo", "db", "migration"),
	))

	redisC, redisAddr := getRedis(t)
	pgC, pgHost, pgPort := getPostgres(t)
	conf := testConfig(redisAddr, pgHost, pgPort)

	cache := redis.New(conf)
	repo := db.New(conf)
	svc := ctrl.New(auth.New(conf), repo, cache, smtp.New(conf))
	require.NoError(t, svc.EnsureAdmin(context.Background(), adminUsername, adminPassword, conf.Auth.Admin.Quota))

	h := hdl.New(svc, conf.Server)
	ts := httptest.NewServer(h.Router)

	t.Cleanup(func() {
		ts.Close()
		truncateTables(t, conf)
		_ = cache.Close()
		_ = repo.Close(context.Background())
		testcontainers.CleanupContainer(t, redisC)
		testcontainers.CleanupContainer(t, pgC)
	})

	return ts
}

func truncateTables(t *testing.T, conf config.Config) {
	conn, err := sql.Open(
		"pgx", fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=disable",
			conf.DB.User,
			conf.DB.Password,
			conf.DB.Host,
			conf.DB.Port,
			conf.DB.Database,
		),
	)
	if err != nil {
		t.Logf("failed to connect to the database: %v", err)
		return
	}
	defer conn.Close()

	rows, err := conn.Query(getTables)
	if err != nil {
		t.Logf("failed to fetch table names: %v", err)
		return
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Logf("failed to scan table name: %v", err)
			return
		}
		tables = append(tables, name)
	}

	if len(tables) == 0 {
		return
	}

	if _, err = conn.Exec(fmt.Sprintf("TRUNCATE TABLE %v CASCADE;", strings.Join(tables, ", "))); err != nil {
		t.Logf("failed to truncate tables: %v", err)
	}
}
