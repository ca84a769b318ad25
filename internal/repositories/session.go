package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/desertthunder/auxd/internal/models"
	"github.com/desertthunder/auxd/internal/shared"
)

// SessionRepository implements [models.Repository] for [models.Session] persistence.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, sequence, host_id, code, name, password, market,
	permission_add_to_queue, permission_play_pause, permission_skip, permission_skip_queue,
	created_at, updated_at, deleted_at`

// Create inserts a new session into the database with generated ID and sequence
func (r *SessionRepository) Create(session *models.Session) error {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	session.SetID(id)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	perms := session.Permissions()
	query := `
		INSERT INTO sessions (id, sequence, host_id, code, name, password, market,
			permission_add_to_queue, permission_play_pause, permission_skip, permission_skip_queue,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, session.HostID(), session.Code(), session.Name(),
		session.Password(), session.Market(), perms.AddToQueue, perms.PlayPause, perms.Skip,
		perms.SkipQueue, session.CreatedAt(), session.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID, excluding soft-deleted sessions
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = ? AND deleted_at IS NULL
	`
	session, err := r.scanOne(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return session, err
}

// FindByCodeAndPassword resolves a session from the code+password pair
// guests present. Returns [shared.ErrSessionNotFound] when either is wrong,
// without distinguishing which.
func (r *SessionRepository) FindByCodeAndPassword(code, password string) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE code = ? AND password = ? AND deleted_at IS NULL
	`
	session, err := r.scanOne(r.db.QueryRow(query, code, password))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, code)
	}
	return session, err
}

// CountByHost returns the number of live sessions owned by a host.
func (r *SessionRepository) CountByHost(hostID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE host_id = ? AND deleted_at IS NULL`, hostID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Update modifies an existing session in the database
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	perms := session.Permissions()
	query := `
		UPDATE sessions
		SET name = ?, password = ?, market = ?,
			permission_add_to_queue = ?, permission_play_pause = ?, permission_skip = ?, permission_skip_queue = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, session.Name(), session.Password(), session.Market(),
		perms.AddToQueue, perms.PlayPause, perms.Skip, perms.SkipQueue, now, session.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already deleted: %s", session.ID())
	}

	return nil
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE sessions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all sessions matching the given criteria, excluding soft-deleted sessions
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
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
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// GenerateCode picks a four-digit session code not used by any live
// session. Random probing first, then a linear sweep of the code space.
func (r *SessionRepository) GenerateCode() (string, error) {
	used, err := r.usedCodes()
	if err != nil {
		return "", err
	}

	for i := 0; i < 100; i++ {
		code := fmt.Sprintf("%04d", rand.Intn(10000))
		if !used[code] {
			return code, nil
		}
	}

	for i := 0; i < 10000; i++ {
		code := fmt.Sprintf("%04d", i)
		if !used[code] {
			return code, nil
		}
	}

	return "", shared.ErrCodeExhausted
}

func (r *SessionRepository) usedCodes() (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT code FROM sessions WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query session codes: %w", err)
	}
	defer rows.Close()

	used := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan session code: %w", err)
		}
		used[code] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return used, nil
}

func (r *SessionRepository) scanOne(row rowScanner) (*models.Session, error) {
	var (
		id        string
		sequence  int
		hostID    string
		code      string
		name      string
		password  string
		market    string
		perms     models.Permissions
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &hostID, &code, &name, &password, &market,
		&perms.AddToQueue, &perms.PlayPause, &perms.Skip, &perms.SkipQueue,
		&createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	session := models.NewSession(sequence, hostID, code, name, password, market, perms)
	session.SetID(id)
	session.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		session.SetDeletedAt(&deletedAt.Time)
	}

	return session, nil
}
