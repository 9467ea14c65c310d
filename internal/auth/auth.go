// Package auth provides the authentication collaborator: sign-up,
// sign-in, sign-out, current-identity lookup, and the team roster. The
// core treats "no identity" as "show a login surface, do nothing else";
// there is no permission model beyond being signed in.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNoSession          = errors.New("no active session")
	ErrNameRequired       = errors.New("name must not be empty")
)

// Default identity attributes for new users.
const (
	defaultColor  = "#facc15"
	defaultRole   = "Team Member"
	avatarBaseURL = "https://api.dicebear.com/7.x/pixel-art/svg?seed="
)

// Session is a signed-in identity plus its opaque token.
type Session struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Authenticator is the narrow interface the rest of the system sees.
type Authenticator interface {
	SignUp(ctx context.Context, name, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (types.User, error)
	Team(ctx context.Context) ([]types.User, error)
}

// Service is the database-backed Authenticator. It shares the SQLite
// database with the story backend; the users and sessions tables are
// part of the same schema.
type Service struct {
	db *sql.DB
}

// NewService creates a database-backed Authenticator.
func NewService(db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("auth: %w: no database", types.ErrConfigurationMissing)
	}
	return &Service{db: db}, nil
}

// SignUp registers a new user and opens a session for them.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return Session{}, ErrNameRequired
	}
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	salt, err := randomHex(16)
	if err != nil {
		return Session{}, fmt.Errorf("generate salt: %w", err)
	}

	user := types.User{
		ID:     types.NewID(),
		Name:   name,
		Avatar: avatarBaseURL + name,
		Color:  defaultColor,
		Role:   defaultRole,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, salt, avatar, color, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, email, hashPassword(password, salt), salt,
		user.Avatar, user.Color, user.Role, time.Now().UnixMilli())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("insert user: %w", err)
	}

	return s.openSession(ctx, user)
}

// SignIn verifies credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		user types.User
		hash string
		salt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, avatar, color, role, password_hash, salt
		FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Name, &user.Avatar, &user.Color, &user.Role, &hash, &salt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("look up user: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(hash), []byte(hashPassword(password, salt))) != 1 {
		return Session{}, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// SignOut revokes the session token. Revoking an unknown token succeeds.
func (s *Service) SignOut(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Current resolves a session token to its user.
func (s *Service) Current(ctx context.Context, token string) (types.User, error) {
	if token == "" {
		return types.User{}, ErrNoSession
	}
	var user types.User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.avatar, u.color, u.role
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token).
		Scan(&user.ID, &user.Name, &user.Avatar, &user.Color, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, ErrNoSession
	}
	if err != nil {
		return types.User{}, fmt.Errorf("look up session: %w", err)
	}
	return user, nil
}

// Team returns every registered user as the assignable roster.
func (s *Service) Team(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, avatar, color, role FROM users
		ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetch team: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Avatar, &u.Color, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Service) openSession(ctx context.Context, user types.User) (Session, error) {
	token, err := randomHex(32)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, user.ID, time.Now().UnixMilli())
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

func hashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
