package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

// SQLite returns the migration files for the SQLite storage layer.
func SQLite() fs.FS {
	sub, _ := fs.Sub(sqliteFS, "sqlite")
	return sub
}

// Postgres returns the migration files for the Postgres storage layer.
func Postgres() fs.FS {
	sub, _ := fs.Sub(postgresFS, "postgres")
	return sub
}

// Migration is a single versioned SQL script.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Load reads every "NNN_name.sql" file at the root of fsys, ordered by
// version. Files that do not follow the naming scheme are skipped.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, err := ParseVersion(e.Name())
		if err != nil {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: e.Name(), SQL: string(data)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// ParseVersion extracts the version number from a migration filename like "001_initial.sql".
func ParseVersion(name string) (int, error) {
	parts := strings.SplitN(name, "_", 2)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid migration filename: %s", name)
	}
	var version int
	if _, err := fmt.Sscanf(parts[0], "%d", &version); err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return version, nil
}
