package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolcare/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists refresh-token sessions for all four identity
// domains in one table. Every query is scoped by domain; there is no path
// that reads another domain's rows.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `
	id, domain, principal_id, refresh_token_hash, ip_address, user_agent, created_at, last_seen_at, expires_at
`

func (r *SessionRepository) Create(ctx context.Context, session models.AuthSession) error {
	const query = `
		INSERT INTO auth_sessions (
			id, domain, principal_id, refresh_token_hash, ip_address, user_agent, created_at, last_seen_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW(), $7
		)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.Domain,
		session.PrincipalID,
		session.RefreshTokenHash,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
	)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, domain models.AuthDomain, id string) (models.AuthSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM auth_sessions
		WHERE domain = $1 AND id = $2
	`
	return scanSession(r.pool.QueryRow(ctx, query, domain, id))
}

func (r *SessionRepository) FindByRefreshHash(ctx context.Context, domain models.AuthDomain, refreshHash []byte) (models.AuthSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM auth_sessions
		WHERE domain = $1 AND refresh_token_hash = $2
	`
	return scanSession(r.pool.QueryRow(ctx, query, domain, refreshHash))
}

// UpdateRefresh swaps the stored refresh hash and extends expiry; used by
// domains that rotate the refresh token on refresh.
func (r *SessionRepository) UpdateRefresh(ctx context.Context, id string, refreshHash []byte, expiresAt time.Time) error {
	const query = `
		UPDATE auth_sessions
		SET refresh_token_hash = $2, expires_at = $3, last_seen_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, refreshHash, expiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) Touch(ctx context.Context, id string, ip string, userAgent string) error {
	const query = `
		UPDATE auth_sessions
		SET last_seen_at = NOW(),
		    ip_address = COALESCE(NULLIF($2, ''), ip_address),
		    user_agent = COALESCE(NULLIF($3, ''), user_agent)
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, ip, userAgent)
	return err
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM auth_sessions WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteByRefreshHash(ctx context.Context, domain models.AuthDomain, refreshHash []byte) error {
	const query = `DELETE FROM auth_sessions WHERE domain = $1 AND refresh_token_hash = $2`
	_, err := r.pool.Exec(ctx, query, domain, refreshHash)
	return err
}

func (r *SessionRepository) CountByPrincipal(ctx context.Context, domain models.AuthDomain, principalID string) (int, error) {
	const query = `SELECT COUNT(*) FROM auth_sessions WHERE domain = $1 AND principal_id = $2`
	row := r.pool.QueryRow(ctx, query, domain, principalID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SessionRepository) DeleteOldest(ctx context.Context, domain models.AuthDomain, principalID string, keepLatest int) error {
	const query = `
		DELETE FROM auth_sessions
		WHERE id IN (
			SELECT id FROM auth_sessions
			WHERE domain = $1 AND principal_id = $2
			ORDER BY last_seen_at DESC
			OFFSET $3
		)
	`
	_, err := r.pool.Exec(ctx, query, domain, principalID, keepLatest)
	return err
}

// DeleteExpired removes dead sessions across all domains; run from the job
// scheduler.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM auth_sessions WHERE expires_at < NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanSession(row pgx.Row) (models.AuthSession, error) {
	var session models.AuthSession
	if err := row.Scan(
		&session.ID,
		&session.Domain,
		&session.PrincipalID,
		&session.RefreshTokenHash,
		&session.IPAddress,
		&session.UserAgent,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AuthSession{}, ErrSessionNotFound
		}
		return models.AuthSession{}, err
	}
	return session, nil
}
