// Package users handles registration and login. Quota accounting for orders
// lives with the order store so it shares the workflow transaction.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ariefcatur/go-flash-sale/internal/fault"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	minNameLen     = 3
	minPasswordLen = 6
)

// ErrBadCredentials keeps login failures indistinguishable between unknown
// email and wrong password.
var ErrBadCredentials = errors.New("incorrect email or password")

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	TotalOrdered int       `json:"total_ordered"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

func validate(name, email, password string) error {
	if len(strings.TrimSpace(name)) < minNameLen {
		return fmt.Errorf("name must be %d letters or more: %w", minNameLen, fault.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email: %w", fault.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be %d letters or more: %w", minPasswordLen, fault.ErrInvalidInput)
	}
	return nil
}

// Register creates a user with a bcrypt-hashed password. A duplicate email
// surfaces as fault.ErrConflict.
func (r *Repo) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate(name, email, password); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, total_ordered, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $6)`,
		u.ID, u.Name, u.Email, string(hash), u.Role, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, fmt.Errorf("email %s already registered: %w", email, fault.ErrConflict)
		}
		return User{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}
	return u, nil
}

// Authenticate checks email/password and returns the user on success.
func (r *Repo) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u User
	var hash string
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, role, total_ordered, password_hash, created_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.TotalOrdered, &hash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// ByID loads a user's public profile.
func (r *Repo) ByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, role, total_ordered, created_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.TotalOrdered, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user %s: %w", id, fault.ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}
	return u, nil
}
