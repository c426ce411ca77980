package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

const MinPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// TokenPair bundles the short-lived access token with its refresh token.
// ExpiresAt refers to the access token.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthService issues and verifies the JWT pairs that gate the API.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtSecret  []byte
	accessExp  time.Duration
	refreshExp time.Duration
}

// NewAuthService creates a new AuthService signing with the given secret.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtSecret string,
	accessExp time.Duration,
	refreshExp time.Duration,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		accessExp:  accessExp,
		refreshExp: refreshExp,
	}
}

func validateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func validatePassword(password string) bool {
	return len(password) >= MinPasswordLength
}

// Register creates an account and signs the user in immediately.
func (s *authService) Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, *TokenPair, error) {
	if !validateEmail(email) {
		return nil, nil, ErrInvalidEmail
	}
	if !validatePassword(password) {
		return nil, nil, ErrWeakPassword
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrUserAlreadyExists
	}

	user, err := models.NewUser(email, password, firstName, lastName)
	if err != nil {
		return nil, nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login checks the credentials and returns a fresh token pair. Unknown
// email and wrong password yield the same error.
func (s *authService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshTokens trades a valid refresh token for a new pair. The subject
// must still exist.
func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.subjectOf(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	return s.issueTokens(userID)
}

// ValidateToken parses a token and verifies its HMAC signature.
func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
}

// GetUserFromToken resolves an access token to its user record.
func (s *authService) GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := s.subjectOf(tokenString, "access")
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// subjectOf verifies the token, checks its "type" claim, and returns the
// subject user id.
func (s *authService) subjectOf(tokenString, wantType string) (uuid.UUID, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	if typ, ok := claims["type"].(string); !ok || typ != wantType {
		return uuid.Nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

func (s *authService) issueTokens(userID uuid.UUID) (*TokenPair, error) {
	now := time.Now()
	accessExpiry := now.Add(s.accessExp)

	access, err := s.sign(userID, "access", now, accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, "refresh", now, now.Add(s.refreshExp))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExpiry,
	}, nil
}

func (s *authService) sign(userID uuid.UUID, typ string, issuedAt, expiry time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"exp":  expiry.Unix(),
		"iat":  issuedAt.Unix(),
		"type": typ,
	})
	return token.SignedString(s.jwtSecret)
}
