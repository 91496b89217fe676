package migration

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, "migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"00001_create_users.sql",
		"00002_create_alerts.sql",
		"00003_create_sos_requests.sql",
		"00004_create_base_camps_and_donations.sql",
	}, names)

	for _, name := range names {
		raw, err := fs.ReadFile(embeddedMigrations, "migrations/"+name)
		require.NoError(t, err)
		sql := string(raw)
		assert.True(t, strings.Contains(sql, "-- +goose Up"), name)
		assert.True(t, strings.Contains(sql, "-- +goose Down"), name)
	}
}

func TestGooseAdapterLogsThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewGooseAdapter(zerolog.New(&buf))

	adapter.Printf("OK   %s (%s)", "00002_create_alerts.sql", "12ms")

	out := buf.String()
	assert.Contains(t, out, `"component":"goose"`)
	assert.Contains(t, out, "OK   00002_create_alerts.sql (12ms)")
	assert.Contains(t, out, `"level":"info"`)
}
