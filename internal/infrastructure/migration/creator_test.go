package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create write offs table", "create_write_offs_table"},
		{"Create-Write-Offs", "create_write_offs"},
		{"CREATE_WRITE_OFFS", "create_write_offs"},
		{"add__balance__check", "add_balance_check"},
		{"Add Index 001", "add_index_001"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "create write offs", "Append-only write-off ledger")
	require.NoError(t, err)
	require.NotNil(t, mf)

	// Version is a YYYYMMDDHHMMSS timestamp
	assert.Len(t, mf.Version, 14)

	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)
	assert.True(t, strings.HasSuffix(upBase, "_create_write_offs"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: create write offs")
	assert.Contains(t, string(up), "Append-only write-off ledger")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("empty for missing directory", func(t *testing.T) {
		list, err := ListMigrations(filepath.Join(tmpDir, "nope"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("lists up migrations once", func(t *testing.T) {
		_, err := CreateMigration(tmpDir, "first", "")
		require.NoError(t, err)

		list, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, strings.HasSuffix(list[0], "_first"))
	})
}
