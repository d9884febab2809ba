package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"market/internal/market"
)

const uniqueViolation = "23505"

type MemberRepo struct{ DB *pgxpool.Pool }

func (r *MemberRepo) Create(ctx context.Context, m market.Member) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO members(id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.Username, m.PasswordHash, m.Role, m.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return market.ErrUsernameTaken
	}
	return err
}

func (r *MemberRepo) GetByUsername(ctx context.Context, username string) (market.Member, error) {
	var m market.Member
	err := r.DB.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM members WHERE username=$1`, username).
		Scan(&m.ID, &m.Username, &m.PasswordHash, &m.Role, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Member{}, market.ErrMemberNotFound
	}
	return m, err
}

func (r *MemberRepo) GetByID(ctx context.Context, id string) (market.Member, error) {
	var m market.Member
	err := r.DB.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM members WHERE id=$1`, id).
		Scan(&m.ID, &m.Username, &m.PasswordHash, &m.Role, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Member{}, market.ErrMemberNotFound
	}
	return m, err
}
