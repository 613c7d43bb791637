// Package migrations holds the database schema. Every statement is idempotent.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
)

//go:embed *.sql
var files embed.FS

// Apply runs every .sql file in name order.
func Apply(ctx context.Context, db *database.DB) error {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		slog.Info("Migration applied", "file", name)
	}
	return nil
}
