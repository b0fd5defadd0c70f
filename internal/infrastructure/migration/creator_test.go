package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/orderdesk/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add orders table", "add_orders_table"},
		{"Add-Orders-Table", "add_orders_table"},
		{"ADD__ORDERS", "add_orders"},
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
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add label archive", "Track archived labels")
	require.NoError(t, err)
	assert.Len(t, mf.Version, 14)
	assert.Equal(t, "add_label_archive", mf.Name)

	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_label_archive\n")
	assert.Contains(t, string(up), "-- Description: Track archived labels")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")

	names, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{upBase}, names)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations_Sorted(t *testing.T) {
	fsys := fstest.MapFS{
		"20260102000000_b.up.sql":   {},
		"20260102000000_b.down.sql": {},
		"20260101000000_a.up.sql":   {},
		"20260101000000_a.down.sql": {},
		"README.md":                 {},
	}
	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_a", "20260102000000_b"}, names)
}

func TestVerifyPairs(t *testing.T) {
	assert.NoError(t, VerifyPairs(migrations.FS))

	err := VerifyPairs(fstest.MapFS{
		"1_a.up.sql":   {},
		"1_a.down.sql": {},
		"2_b.up.sql":   {},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2_b")
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.True(t, strings.HasSuffix(names[0], "_create_orders"))

	src, name, err := openSource("")
	require.NoError(t, err)
	assert.Equal(t, "iofs", name)
	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(20261019090000), first)
	require.NoError(t, src.Close())
}
