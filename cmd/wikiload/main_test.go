package main

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/wiki-recent-changes/internal/testutil"
	"github.com/Sternrassler/wiki-recent-changes/pkg/loader"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configFromArgs(t *testing.T, args ...string) (config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("wikiload", pflag.ContinueOnError)
	registerFlags(fs)
	require.NoError(t, fs.Parse(args))

	v, err := newViper(fs)
	require.NoError(t, err)
	return loadConfig(v)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := configFromArgs(t)
	require.NoError(t, err)

	assert.Equal(t, "wiki_recent_changes.db", cfg.DB)
	assert.Equal(t, "recent_changes_raw", cfg.Table)
	assert.Equal(t, "2024-10-31T00:00:00Z", cfg.Start)
	assert.Equal(t, "2024-10-31T23:59:59Z", cfg.End)
	assert.Equal(t, loader.EngineDuckDB, cfg.Engine)
	assert.Equal(t, "https://en.wikipedia.org/w/api.php", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("WIKILOAD_TABLE", "from_env")
	t.Setenv("WIKILOAD_MAX_ATTEMPTS", "4")
	t.Setenv("WIKILOAD_CACHE_TTL", "90m")
	t.Setenv("WIKILOAD_ENGINE", "sqlite")

	cfg, err := configFromArgs(t)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Table)
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, loader.EngineSQLite, cfg.Engine)
}

func TestLoadConfig_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("WIKILOAD_TABLE", "from_env")

	cfg, err := configFromArgs(t, "--table=from_flag")
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.Table)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikiload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"engine: sqlite\nstart: \"2024-11-01T00:00:00Z\"\ncache-ttl: 1h\nlog-pretty: true\n",
	), 0o600))

	cfg, err := configFromArgs(t, "--config", path, "--end=2024-11-01T12:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, loader.EngineSQLite, cfg.Engine)
	assert.Equal(t, "2024-11-01T00:00:00Z", cfg.Start)
	assert.Equal(t, "2024-11-01T12:00:00Z", cfg.End)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.LogPretty)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := configFromArgs(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown engine", []string{"--engine=postgres"}},
		{"empty table", []string{"--table="}},
		{"empty start", []string{"--start="}},
		{"zero attempts", []string{"--max-attempts=0"}},
		{"zero timeout", []string{"--timeout=0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := configFromArgs(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func twoPageMock() *testutil.MockWikiAPI {
	return testutil.NewMockWikiAPI(
		testutil.RecentChangesPage(
			[]map[string]any{{"title": "A", "user": "U1", "rcid": 1}},
			map[string]string{"rccontinue": "20241031000000|1", "continue": "-||"},
		),
		testutil.RecentChangesPage([]map[string]any{{"title": "B", "user": "U2", "rcid": 2, "minor": ""}}, nil),
	)
}

func TestRun_EndToEnd(t *testing.T) {
	for _, engine := range loader.Engines {
		t.Run(engine, func(t *testing.T) {
			mock := twoPageMock()
			defer mock.Close()

			var pushes atomic.Int32
			gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				pushes.Add(1)
				w.WriteHeader(http.StatusOK)
			}))
			defer gateway.Close()

			cfg, err := configFromArgs(t,
				"--engine="+engine,
				"--db="+filepath.Join(t.TempDir(), "wiki.db"),
				"--api-url="+mock.URL(),
				"--pushgateway-url="+gateway.URL,
				"--log-level=error",
			)
			require.NoError(t, err)

			result, err := run(context.Background(), cfg)
			require.NoError(t, err)

			assert.Equal(t, 2, result.Records)
			assert.Equal(t, 2, result.RowsWritten)
			assert.Equal(t, []string{"minor", "rcid", "title", "user"}, result.Columns)
			assert.Equal(t, 2, mock.RequestCount())
			assert.Equal(t, int32(1), pushes.Load())

			eng, err := loader.EngineByName(engine)
			require.NoError(t, err)
			db, err := eng.Open(context.Background(), cfg.DB)
			require.NoError(t, err)
			defer db.Close()

			var count int
			require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "recent_changes_raw"`).Scan(&count))
			assert.Equal(t, 2, count)

			var minor sql.NullString
			require.NoError(t, db.QueryRow(`SELECT "minor" FROM "recent_changes_raw" WHERE "title" = 'A'`).Scan(&minor))
			assert.False(t, minor.Valid, "missing key should load as NULL")
		})
	}
}

func TestRun_EmptyWindowLeavesDatabaseAlone(t *testing.T) {
	mock := testutil.NewMockWikiAPI(testutil.RecentChangesPage(nil, nil))
	defer mock.Close()

	dbPath := filepath.Join(t.TempDir(), "wiki.db")
	cfg, err := configFromArgs(t, "--engine=sqlite", "--db="+dbPath, "--api-url="+mock.URL(), "--log-level=error")
	require.NoError(t, err)

	result, err := run(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "database file should not be created")
}

func TestRun_PushFailureDoesNotFailRun(t *testing.T) {
	mock := twoPageMock()
	defer mock.Close()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer gateway.Close()

	cfg, err := configFromArgs(t,
		"--engine=sqlite",
		"--db="+filepath.Join(t.TempDir(), "wiki.db"),
		"--api-url="+mock.URL(),
		"--pushgateway-url="+gateway.URL,
		"--log-level=error",
	)
	require.NoError(t, err)

	_, err = run(context.Background(), cfg)
	assert.NoError(t, err)
}

func TestRun_BadRedisURL(t *testing.T) {
	cfg, err := configFromArgs(t, "--redis-url=not a url", "--log-level=error")
	require.NoError(t, err)

	_, err = run(context.Background(), cfg)
	assert.ErrorContains(t, err, "redis")
}

func TestRootCmd_Execute(t *testing.T) {
	mock := twoPageMock()
	defer mock.Close()

	dbPath := filepath.Join(t.TempDir(), "wiki.db")
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--engine", "sqlite",
		"--db", dbPath,
		"--table", "main.changes",
		"--api-url", mock.URL(),
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	db, err := loader.SQLite{}.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "main"."changes"`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(&nopWriter{})
	cmd.SetErr(&nopWriter{})
	assert.Error(t, cmd.Execute())
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }
