package database

import (
	"context"
	"database/sql"
	"fmt"
)

var _ UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser stores a user with an already hashed password.
func (r *UserRepo) CreateUser(ctx context.Context, username, hashedPassword string) (*User, error) {
	user := User{Username: username, HashedPassword: hashedPassword}
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO users (username, hashed_password)
		VALUES (?, ?)
		RETURNING id
	`), username, hashedPassword).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create user %s: %w", username, ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername returns nil when no such user exists
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, username, hashed_password
		FROM users
		WHERE username = ?
	`), username).Scan(&user.ID, &user.Username, &user.HashedPassword)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) GetUserCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get user count: %w", err)
	}
	return count, nil
}
