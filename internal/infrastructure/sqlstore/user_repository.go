package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"txaudit/internal/domain/user"
)

type UserRepository struct {
	db  *DB
	now func() time.Time
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	d := r.db.dialect
	createdAt := r.now().UTC()
	query := `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES (` + placeholders(d, 4) + `)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		params.Username, params.PasswordHash, string(params.Role), d.timeArg(createdAt),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user.User{
		ID:           id,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    createdAt,
	}, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE id = ` + r.db.dialect.placeholder(1)
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE username = ` + r.db.dialect.placeholder(1)
	return r.getOne(ctx, query, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	var role string
	var createdAt timeValue

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Role = user.Role(role)
	u.CreatedAt = createdAt.Time
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, password_hash, role, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		var u user.User
		var role string
		var createdAt timeValue
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = user.Role(role)
		u.CreatedAt = createdAt.Time
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
