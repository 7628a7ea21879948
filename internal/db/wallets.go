package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptofolio/api/internal/apperr"
	"github.com/cryptofolio/api/internal/models"

	"github.com/jackc/pgx/v5"
)

// Only the amount of a holding may change after creation.
var walletColumns = map[string]string{
	"currencyAmount": "currency_amount",
}

// CreateWallet inserts a new holding for a user.
func (db *DB) CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	created := &models.Wallet{}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO wallets (user_id, currency_name, currency_amount, currency_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, currency_name, currency_amount, currency_type`,
		wallet.UserID, wallet.CurrencyName, wallet.CurrencyAmount, wallet.CurrencyType).Scan(
		&created.ID, &created.UserID, &created.CurrencyName, &created.CurrencyAmount, &created.CurrencyType)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return created, nil
}

// FindWallets retrieves all holdings for a user, in insertion order. A user
// with no holdings gets an empty slice, not an error.
func (db *DB) FindWallets(ctx context.Context, userID string) ([]models.Wallet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, currency_name, currency_amount, currency_type
		 FROM wallets
		 WHERE user_id = $1
		 ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}
	defer rows.Close()

	wallets := []models.Wallet{}
	for rows.Next() {
		var wallet models.Wallet
		if err := rows.Scan(&wallet.ID, &wallet.UserID, &wallet.CurrencyName, &wallet.CurrencyAmount, &wallet.CurrencyType); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wallets: %w", err)
	}
	return wallets, nil
}

// GetWallet retrieves one holding by id.
func (db *DB) GetWallet(ctx context.Context, id int) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, currency_name, currency_amount, currency_type
		 FROM wallets
		 WHERE id = $1`,
		id).Scan(&wallet.ID, &wallet.UserID, &wallet.CurrencyName, &wallet.CurrencyAmount, &wallet.CurrencyType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("no wallet: %d", id)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// UpdateWallet applies a sparse update to a holding.
func (db *DB) UpdateWallet(ctx context.Context, id int, updates map[string]any) (*models.Wallet, error) {
	setClause, args, err := partialUpdate(updates, walletColumns)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`UPDATE wallets SET %s WHERE id = $%d
		 RETURNING id, user_id, currency_name, currency_amount, currency_type`,
		setClause, len(args)+1)
	args = append(args, id)

	wallet := &models.Wallet{}
	err = db.Pool.QueryRow(ctx, query, args...).Scan(
		&wallet.ID, &wallet.UserID, &wallet.CurrencyName, &wallet.CurrencyAmount, &wallet.CurrencyType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("no wallet: %d", id)
		}
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	return wallet, nil
}

// RemoveWallet deletes a holding by id.
func (db *DB) RemoveWallet(ctx context.Context, id int) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM wallets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("no wallet: %d", id)
	}
	return nil
}
