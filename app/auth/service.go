package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lysyi3m/news-comb/app/database"
)

const (
	maxUsernameLength = 50
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidInput       = errors.New("invalid username or password")
)

type UserStore interface {
	CreateUser(ctx context.Context, username, hashedPassword string) (*database.User, error)
	GetUserByUsername(ctx context.Context, username string) (*database.User, error)
}

// Service ties password hashing and tokens to the user store.
type Service struct {
	users  UserStore
	tokens *TokenManager
}

func NewService(users UserStore, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register stores a new user. A taken username fails with database.ErrDuplicateUsername.
func (s *Service) Register(ctx context.Context, username, password string) (*database.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: username longer than %d characters", ErrInvalidInput, maxUsernameLength)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password longer than %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.users.CreateUser(ctx, username, hash)
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	if user == nil || !CheckPassword(user.HashedPassword, password) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Username)
}

// Authenticate resolves the user a token was issued to. A valid token for a user
// that no longer exists is rejected like an invalid one.
func (s *Service) Authenticate(ctx context.Context, token string) (*database.User, error) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
	}

	return user, nil
}
