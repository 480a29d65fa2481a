package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civicdesk/grievance-server/internal/middleware"
	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL bounds how long a login stays valid.
const tokenTTL = 24 * time.Hour

// AuthService handles registration, login, and token issuance.
type AuthService struct {
	db        *pgxpool.Pool
	jwtSecret string
	logger    *zap.SugaredLogger
}

// NewAuthService creates a new auth service
func NewAuthService(db *pgxpool.Pool, jwtSecret string, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{db: db, jwtSecret: jwtSecret, logger: logger}
}

// Register creates a citizen account. Staff roles are provisioned out of
// band, never through self-registration.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Role:     models.RoleCitizen,
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO users (id, username, email, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		u.ID, u.Username, u.Email, u.Role, string(hash),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Infow("User registered", "username", username)
	return u, nil
}

// Authenticate verifies credentials and returns the user plus a signed
// bearer token.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, string, error) {
	var u models.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, role, department_id, password_hash, created_at
		FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.DepartmentID, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("fetch user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(&u)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

// GetUser fetches a user by id.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, role, department_id, created_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.DepartmentID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return &u, nil
}

func (s *AuthService) issueToken(u *models.User) (string, error) {
	claims := &middleware.Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	if u.DepartmentID != nil {
		claims.DepartmentID = u.DepartmentID.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
