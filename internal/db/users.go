package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptofolio/api/internal/apperr"
	"github.com/cryptofolio/api/internal/models"

	"github.com/jackc/pgx/v5"
)

// Updatable user fields and their storage columns. The password field maps to
// the hash column; callers pass an already-hashed value.
var userColumns = map[string]string{
	"password":           "password_hash",
	"email":              "email",
	"nativeFiatCurrency": "native_fiat_currency",
}

// CreateUser inserts a new user. The password hash must already be computed.
// A username or email already in the table is a BadRequest.
func (db *DB) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	created := &models.User{}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, email, native_fiat_currency)
		 VALUES ($1, $2, $3, $4)
		 RETURNING username, password_hash, email, native_fiat_currency`,
		user.Username, user.PasswordHash, user.Email, user.NativeFiatCurrency).Scan(
		&created.Username, &created.PasswordHash, &created.Email, &created.NativeFiatCurrency)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.BadRequestf("duplicate user: %s", user.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// FindAllUsers retrieves every user, ordered by username.
func (db *DB) FindAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT username, password_hash, email, native_fiat_currency
		 FROM users
		 ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.Username, &user.PasswordHash, &user.Email, &user.NativeFiatCurrency); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user by username.
func (db *DB) GetUser(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		`SELECT username, password_hash, email, native_fiat_currency
		 FROM users
		 WHERE username = $1`,
		username).Scan(&user.Username, &user.PasswordHash, &user.Email, &user.NativeFiatCurrency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("no user: %s", username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUser applies a sparse update to a user. updates may carry any subset
// of the allow-listed fields; "password" must already be hashed.
func (db *DB) UpdateUser(ctx context.Context, username string, updates map[string]any) (*models.User, error) {
	setClause, args, err := partialUpdate(updates, userColumns)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE username = $%d
		 RETURNING username, password_hash, email, native_fiat_currency`,
		setClause, len(args)+1)
	args = append(args, username)

	user := &models.User{}
	err = db.Pool.QueryRow(ctx, query, args...).Scan(
		&user.Username, &user.PasswordHash, &user.Email, &user.NativeFiatCurrency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("no user: %s", username)
		}
		if isUniqueViolation(err) {
			return nil, apperr.BadRequestf("duplicate user: %s", username)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// RemoveUser deletes a user. Dependent wallets, watchlist entries, and
// transactions go with it via ON DELETE CASCADE.
func (db *DB) RemoveUser(ctx context.Context, username string) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("no user: %s", username)
	}
	return nil
}
