package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptofolio/api/internal/apperr"
	"github.com/cryptofolio/api/internal/models"

	"github.com/jackc/pgx/v5"
)

// CreateWatchlistEntry inserts a watched asset for a user.
//
// A crypto name already present anywhere in the table is rejected, no matter
// which user owns it. The rule is table-wide rather than per-user; it is kept
// as the observed contract of this service. The unique constraint on
// crypto_name backs the same rule, so a concurrent duplicate insert still
// comes back as a BadRequest.
func (db *DB) CreateWatchlistEntry(ctx context.Context, entry *models.WatchlistEntry) (*models.WatchlistEntry, error) {
	var existing int
	err := db.Pool.QueryRow(ctx,
		"SELECT id FROM watchlists WHERE crypto_name = $1", entry.CryptoName).Scan(&existing)
	if err == nil {
		return nil, apperr.BadRequestf("duplicate cryptocurrency in watchlist: %s", entry.CryptoName)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check watchlist duplicate: %w", err)
	}

	created := &models.WatchlistEntry{}
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO watchlists (user_id, crypto_name)
		 VALUES ($1, $2)
		 RETURNING id, user_id, crypto_name`,
		entry.UserID, entry.CryptoName).Scan(&created.ID, &created.UserID, &created.CryptoName)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.BadRequestf("duplicate cryptocurrency in watchlist: %s", entry.CryptoName)
		}
		return nil, fmt.Errorf("failed to create watchlist entry: %w", err)
	}
	return created, nil
}

// FindWatchlistEntries retrieves all watched assets for a user, ordered by
// crypto name. An empty user id is a BadRequest rather than an empty result.
func (db *DB) FindWatchlistEntries(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	if userID == "" {
		return nil, apperr.New(apperr.BadRequest, "missing user id")
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, crypto_name
		 FROM watchlists
		 WHERE user_id = $1
		 ORDER BY crypto_name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist entries: %w", err)
	}
	defer rows.Close()

	entries := []models.WatchlistEntry{}
	for rows.Next() {
		var entry models.WatchlistEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.CryptoName); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read watchlist entries: %w", err)
	}
	return entries, nil
}

// GetWatchlistEntry retrieves one watched asset by id.
func (db *DB) GetWatchlistEntry(ctx context.Context, id int) (*models.WatchlistEntry, error) {
	entry := &models.WatchlistEntry{}
	err := db.Pool.QueryRow(ctx,
		"SELECT id, user_id, crypto_name FROM watchlists WHERE id = $1",
		id).Scan(&entry.ID, &entry.UserID, &entry.CryptoName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("no watchlist entry: %d", id)
		}
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}
	return entry, nil
}

// RemoveWatchlistEntry deletes a watched asset by id.
func (db *DB) RemoveWatchlistEntry(ctx context.Context, id int) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM watchlists WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("no watchlist entry: %d", id)
	}
	return nil
}
