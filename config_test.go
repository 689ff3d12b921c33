package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/spyboard/games/codenames"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, false},
		{"cert and key", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, true},
		{"port zero", func(c *Config) { c.port = 0 }, false},
		{"port too high", func(c *Config) { c.port = 70000 }, false},
		{"zero rate limit", func(c *Config) { c.rateLimit = 0 }, false},
		{"zero burst", func(c *Config) { c.rateBurst = 0 }, false},
		{"postgres store", func(c *Config) { c.store = "postgres://user@localhost/spyboard" }, true},
		{"postgresql store", func(c *Config) { c.store = "postgresql://localhost/spyboard" }, true},
		{"sqlite store", func(c *Config) { c.store = "sqlite:///var/lib/spyboard.db" }, true},
		{"sqlite without path", func(c *Config) { c.store = "sqlite://" }, false},
		{"unknown store", func(c *Config) { c.store = "redis://localhost" }, false},
		{"debug log level", func(c *Config) { c.logLevel = "debug" }, true},
		{"unknown log level", func(c *Config) { c.logLevel = "loud" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.port = 8080
			tt.modify(cfg)

			err := cfg.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("SPYBOARD_PORT", "9090")
	t.Setenv("SPYBOARD_STRICT_CLUES", "false")
	t.Setenv("SPYBOARD_STORE", "sqlite://rooms.db")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NotNil(t, cmd)

	assert.Equal(t, 9090, cfg.port)
	assert.False(t, cfg.strictClues)
	assert.True(t, cfg.cluePenalty)
	assert.Equal(t, "sqlite://rooms.db", cfg.store)
	assert.Equal(t, "0.0.0.0", cfg.bind)
}

func TestScheme(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func TestLoggerLevel(t *testing.T) {
	tests := []struct {
		verbose bool
		level   string
		want    zerolog.Level
	}{
		{false, "", zerolog.WarnLevel},
		{true, "", zerolog.InfoLevel},
		{false, "debug", zerolog.DebugLevel},
		{true, "error", zerolog.ErrorLevel},
		{false, "TRACE", zerolog.TraceLevel},
	}

	for _, tt := range tests {
		cfg := &Config{verbose: tt.verbose, logLevel: tt.level}
		assert.Equal(t, tt.want, newLogger(cfg, &bytes.Buffer{}).GetLevel(), "verbose=%v level=%q", tt.verbose, tt.level)
	}
}

func TestDebugLevelShowsRoomActivity(t *testing.T) {
	run := func(cfg *Config) string {
		var buf bytes.Buffer

		svc := codenames.NewService(codenames.NewMemoryStore(), codenames.WithLogger(newLogger(cfg, &buf)))

		room, err := svc.CreateRoom(context.Background())
		require.NoError(t, err)
		_, err = svc.JoinRoom(context.Background(), room.Code, "tv", codenames.RoleNone)
		require.NoError(t, err)

		return buf.String()
	}

	out := run(&Config{logLevel: "debug"})
	assert.Contains(t, out, "room created")
	assert.Contains(t, out, "intent applied")
	assert.Contains(t, out, "op=join_room")

	assert.Empty(t, run(&Config{verbose: true}))
}

func TestLoadEnv(t *testing.T) {
	assert.NoError(t, loadEnv(filepath.Join(t.TempDir(), "missing.env")))

	// A directory opens fine but cannot be read as a file.
	assert.Error(t, loadEnv(t.TempDir()))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SPYBOARD_RATE_BURST=33\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SPYBOARD_RATE_BURST") })

	require.NoError(t, loadEnv(path))

	cfg := &Config{}
	newCmd(cfg)
	assert.Equal(t, 33, cfg.rateBurst)
}

func TestSetupReportsEnvFailure(t *testing.T) {
	var buf bytes.Buffer

	cfg := testConfig()
	cfg.port = 8080
	cfg.envErr = errors.New("unexpected character")

	require.NoError(t, cfg.setup(&buf))
	assert.Contains(t, buf.String(), "Failed to load .env")
	assert.Contains(t, buf.String(), "unexpected character")

	cfg = testConfig()
	cfg.port = 0
	assert.Error(t, cfg.setup(&buf))
}
