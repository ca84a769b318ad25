package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/auxd/internal/models"
	"github.com/desertthunder/auxd/internal/shared"
)

// AccountRepository implements the credential store: one [models.Account]
// per host, read by the upstream client factory and written by the initial
// OAuth grant and by token refreshes.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, sequence, host_id, display_name, access_token, token_type, refresh_token, scope, expires_at, created_at, updated_at, deleted_at`

// Create inserts a new account into the database with generated ID and sequence
func (r *AccountRepository) Create(account *models.Account) error {
	sequence, err := NextSequence(r.db, "accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	account.SetID(id)

	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO accounts (id, sequence, host_id, display_name, access_token, token_type, refresh_token, scope, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, account.HostID(), account.DisplayName(),
		account.AccessToken(), account.TokenType(), account.RefreshToken(), account.Scope(),
		nullableTime(account.ExpiresAt()), account.CreatedAt(), account.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// Get retrieves an account by ID, excluding soft-deleted accounts
func (r *AccountRepository) Get(id string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ? AND deleted_at IS NULL
	`
	account, err := r.scanOne(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account not found: %s", id)
	}
	return account, err
}

// Find retrieves the credential record for a host id. Returns
// [shared.ErrCredentialMissing] when no record exists.
func (r *AccountRepository) Find(hostID string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE host_id = ? AND deleted_at IS NULL
	`
	account, err := r.scanOne(r.db.QueryRow(query, hostID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", shared.ErrCredentialMissing, hostID)
		}
		return nil, err
	}
	return account, nil
}

// UpdateToken persists refreshed token fields for a host. An empty refresh
// token keeps the stored one; the upstream only rotates it sometimes.
func (r *AccountRepository) UpdateToken(hostID, accessToken, tokenType, refreshToken, scope string, expiresAt time.Time) error {
	now := time.Now()

	query := `
		UPDATE accounts
		SET access_token = ?, token_type = ?, scope = ?, expires_at = ?,
		    refresh_token = CASE WHEN ? != '' THEN ? ELSE refresh_token END,
		    updated_at = ?
		WHERE host_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, accessToken, tokenType, scope, expiresAt,
		refreshToken, refreshToken, now, hostID)
	if err != nil {
		return fmt.Errorf("failed to update account token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCredentialMissing, hostID)
	}

	return nil
}

// Update modifies an existing account in the database
func (r *AccountRepository) Update(account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	account.SetUpdatedAt(now)

	query := `
		UPDATE accounts
		SET display_name = ?, access_token = ?, token_type = ?, refresh_token = ?, scope = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, account.DisplayName(), account.AccessToken(), account.TokenType(),
		account.RefreshToken(), account.Scope(), nullableTime(account.ExpiresAt()), now, account.ID())
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found or already deleted: %s", account.ID())
	}

	return nil
}

// Delete soft-deletes an account by ID
func (r *AccountRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE accounts
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all accounts matching the given criteria, excluding soft-deleted accounts
func (r *AccountRepository) List(criteria map[string]any) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if hostID, ok := criteria["host_id"].(string); ok && hostID != "" {
		query += " AND host_id = ?"
		args = append(args, hostID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AccountRepository) scanOne(row rowScanner) (*models.Account, error) {
	var (
		id           string
		sequence     int
		hostID       string
		displayName  string
		accessToken  sql.NullString
		tokenType    sql.NullString
		refreshToken sql.NullString
		scope        sql.NullString
		expiresAt    sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &hostID, &displayName, &accessToken, &tokenType,
		&refreshToken, &scope, &expiresAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account := models.NewAccount(sequence, hostID, displayName)
	account.SetID(id)
	account.SetUpdatedAt(updatedAt)
	account.SetToken(accessToken.String, tokenType.String, refreshToken.String, scope.String, expiresAt.Time)
	if deletedAt.Valid {
		account.SetDeletedAt(&deletedAt.Time)
	}

	return account, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
