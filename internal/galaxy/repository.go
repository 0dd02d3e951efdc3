package galaxy

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"starconquest-server/internal/shared/database"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

type storedMap struct {
	Entry    CatalogEntry
	Document string
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing galaxy catalog repository")
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *Repository) Exists(ctx context.Context, name string, tx *database.Tx) (bool, error) {
	exec := r.getExecutor(tx)

	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM galaxy_maps WHERE name = $1`)
	if err := exec.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check galaxy map: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, entry CatalogEntry, document string, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "galaxy_repository",
		"operation", "create",
		"name", entry.Name,
		"stars", entry.StarCount,
	)
	logger.Debug("Storing galaxy map")

	query := r.db.Rebind(`
		INSERT INTO galaxy_maps (name, document, star_count, connection_count, created_at)
		VALUES ($1, $2, $3, $4, $5)`)

	_, err := exec.ExecContext(ctx, query,
		entry.Name,
		document,
		entry.StarCount,
		entry.ConnectionCount,
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		logger.Error("Failed to store galaxy map", "error", err)
		return fmt.Errorf("failed to store galaxy map: %w", err)
	}

	logger.Info("Galaxy map stored")
	return nil
}

// GetByName returns nil when no map has that name.
func (r *Repository) GetByName(ctx context.Context, name string) (*storedMap, error) {
	logger := r.logger.With("component", "galaxy_repository", "operation", "get_by_name", "name", name)
	logger.Debug("Getting galaxy map")

	query := r.db.Rebind(`
		SELECT name, document, star_count, connection_count, created_at
		FROM galaxy_maps
		WHERE name = $1`)

	var stored storedMap
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&stored.Entry.Name,
		&stored.Document,
		&stored.Entry.StarCount,
		&stored.Entry.ConnectionCount,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("Galaxy map not found")
			return nil, nil
		}
		logger.Error("Database error getting galaxy map", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	stored.Entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &stored, nil
}

func (r *Repository) List(ctx context.Context) ([]CatalogEntry, error) {
	logger := r.logger.With("component", "galaxy_repository", "operation", "list")

	query := `
		SELECT name, star_count, connection_count, created_at
		FROM galaxy_maps
		ORDER BY created_at DESC, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("Failed to list galaxy maps", "error", err)
		return nil, fmt.Errorf("failed to list galaxy maps: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	entries := []CatalogEntry{}
	for rows.Next() {
		var entry CatalogEntry
		var createdAt int64
		if err := rows.Scan(&entry.Name, &entry.StarCount, &entry.ConnectionCount, &createdAt); err != nil {
			logger.Error("Failed to scan galaxy map", "error", err)
			return nil, fmt.Errorf("failed to scan galaxy map: %w", err)
		}
		entry.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating galaxy maps: %w", err)
	}

	logger.Debug("Galaxy maps listed", "count", len(entries))
	return entries, nil
}

func (r *Repository) BeginTx(ctx context.Context) (*database.Tx, error) {
	return r.db.BeginTxContext(ctx)
}
