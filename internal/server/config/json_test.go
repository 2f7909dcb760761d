package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                 "www.example:9000",
		"database_dsn":              "postgres://db",
		"secret_key":                "my_secret_key",
		"session_validity_duration": "2h",
		"site_url":                  "https://apply.example.org",
		"smtp_host":                 "mail",
		"smtp_port":                 587,
		"round_name":                "2010",
		"deadline":                  "2010-03-31",
		"s3_bucket":                 "bucket",
		"rate_limit_rps":            2.5,
		"rate_limit_burst":          10,
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 2*time.Hour, cfg.SessionValidityDuration)
		assert.Equal(t, "https://apply.example.org", cfg.SiteURL)
		assert.Equal(t, "mail", cfg.SMTPHost)
		assert.Equal(t, 587, cfg.SMTPPort)
		assert.Equal(t, "2010", cfg.RoundName)
		assert.Equal(t, "2010-03-31", cfg.Deadline)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, 2.5, cfg.RateLimitRPS)
		assert.Equal(t, 10, cfg.RateLimitBurst)
	})

	t.Run("partial json keeps existing values", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathFlag}

		cfg := &Config{MailFrom: "hr@example.org", S3Region: "eu-north-1"}
		parseJson(cfg)

		assert.Equal(t, "hr@example.org", cfg.MailFrom)
		assert.Equal(t, "eu-north-1", cfg.S3Region)
		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			HTTPAddr:                "defaults:1234",
			DatabaseDSN:             "dsn",
			SecretKey:               "key",
			SessionValidityDuration: 2 * time.Minute,
			S3Bucket:                "s3bucket",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, "dsn", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.SessionValidityDuration)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
