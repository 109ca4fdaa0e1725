package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"trade-promo-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies every embedded postgres/*.sql file. Glob
// returns paths in lexical order, which is why the files carry numeric
// prefixes. The SQL uses IF NOT EXISTS throughout so reruns are safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := fs.Glob(PostgresFS, "postgres/*.sql")
	if err != nil {
		return fmt.Errorf("glob embedded postgres migrations: %w", err)
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", path.Base(file), err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			continue
		}
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", path.Base(file), err)
		}
	}
	return nil
}
