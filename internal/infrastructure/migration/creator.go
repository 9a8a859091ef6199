package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const upHeader = `-- Migration: %s
-- Created: %s
-- Description: %s

-- Write your UP migration SQL here

`

const downHeader = `-- Migration: %s (Rollback)
-- Created: %s
-- Description: Rollback for %s

-- Write your DOWN migration SQL here

`

// MigrationFile describes a generated up/down migration pair
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down migration pair into dir. The
// version prefix is the current timestamp so files sort in creation order.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	created := now.Format(time.RFC3339)

	base := fmt.Sprintf("%s_%s", version, sanitizeName(name))
	mf := &MigrationFile{
		Version:  version,
		Name:     name,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	up := fmt.Sprintf(upHeader, name, created, description)
	if err := os.WriteFile(mf.UpPath, []byte(up), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}

	down := fmt.Sprintf(downHeader, name, created, description)
	if err := os.WriteFile(mf.DownPath, []byte(down), 0o644); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return mf, nil
}

// sanitizeName lowercases a migration name and collapses separators so it
// is safe as a file name segment.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			s := b.String()
			if len(s) > 0 && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of all migration pairs in dir
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}
	return migrations, nil
}
