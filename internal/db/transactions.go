package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptofolio/api/internal/apperr"
	"github.com/cryptofolio/api/internal/models"

	"github.com/jackc/pgx/v5"
)

// The transactions table is a permanent ledger: rows are inserted and read,
// never updated or deleted. No update or remove method exists on purpose.

// CreateTransaction appends a ledger entry.
func (db *DB) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	created := &models.Transaction{}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO transactions (user_id, transaction_type,
		                           start_currency_name, start_currency_amount, start_currency_type,
		                           end_currency_name, end_currency_amount, end_currency_type,
		                           timestamp_utc)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, user_id, transaction_type,
		           start_currency_name, start_currency_amount, start_currency_type,
		           end_currency_name, end_currency_amount, end_currency_type,
		           timestamp_utc`,
		tx.UserID, tx.TransactionType,
		tx.StartCurrencyName, tx.StartCurrencyAmount, tx.StartCurrencyType,
		tx.EndCurrencyName, tx.EndCurrencyAmount, tx.EndCurrencyType,
		tx.TimestampUTC).Scan(
		&created.ID, &created.UserID, &created.TransactionType,
		&created.StartCurrencyName, &created.StartCurrencyAmount, &created.StartCurrencyType,
		&created.EndCurrencyName, &created.EndCurrencyAmount, &created.EndCurrencyType,
		&created.TimestampUTC)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return created, nil
}

// FindTransactions retrieves a user's ledger in insertion order.
func (db *DB) FindTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, transaction_type,
		        start_currency_name, start_currency_amount, start_currency_type,
		        end_currency_name, end_currency_amount, end_currency_type,
		        timestamp_utc
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.TransactionType,
			&tx.StartCurrencyName, &tx.StartCurrencyAmount, &tx.StartCurrencyType,
			&tx.EndCurrencyName, &tx.EndCurrencyAmount, &tx.EndCurrencyType,
			&tx.TimestampUTC); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return transactions, nil
}

// GetTransaction retrieves one ledger entry by id.
func (db *DB) GetTransaction(ctx context.Context, id int) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, transaction_type,
		        start_currency_name, start_currency_amount, start_currency_type,
		        end_currency_name, end_currency_amount, end_currency_type,
		        timestamp_utc
		 FROM transactions
		 WHERE id = $1`,
		id).Scan(
		&tx.ID, &tx.UserID, &tx.TransactionType,
		&tx.StartCurrencyName, &tx.StartCurrencyAmount, &tx.StartCurrencyType,
		&tx.EndCurrencyName, &tx.EndCurrencyAmount, &tx.EndCurrencyType,
		&tx.TimestampUTC)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("no transaction: %d", id)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}
