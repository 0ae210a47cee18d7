package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"moviecatalog/internal/repository"
	"moviecatalog/pkg/model"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrNameNotUnique is returned when registering a username that is taken.
var ErrNameNotUnique = errors.New("username is already used")

// ErrUnknownUser is returned when no user with the given name exists.
var ErrUnknownUser = errors.New("unknown user")

// ErrAuthenticationFailed is returned when the password does not match.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrInvalidCredentials is returned when a registration request fails
// policy validation.
var ErrInvalidCredentials = errors.New("invalid credentials")

// SecretProvider defines a provider of secrets for token signing.
type SecretProvider func() []byte

type userRepository interface {
	AddUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, username string) (*model.User, error)
}

type credentials struct {
	Username string `validate:"required,min=3"`
	Password string `validate:"required,min=7,password"`
}

// Controller defines an authentication service controller.
type Controller struct {
	repo           userRepository
	secretProvider SecretProvider
	tokenTTL       time.Duration
	validate       *validator.Validate
}

// New creates an authentication service controller.
func New(repo userRepository, secretProvider SecretProvider, tokenTTL time.Duration) *Controller {
	v := validator.New()
	// Registration cannot fail for a func with a non-empty tag.
	_ = v.RegisterValidation("password", validPassword)
	return &Controller{
		repo:           repo,
		secretProvider: secretProvider,
		tokenTTL:       tokenTTL,
		validate:       v,
	}
}

// validPassword requires an upper case letter, a lower case letter and a
// digit. Length is checked by the min tag.
func validPassword(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// Register creates a new user with a bcrypt-hashed password. The username
// is stored trimmed and lower-cased.
func (c *Controller) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = normalizeUsername(username)
	if err := c.validate.Struct(credentials{Username: username, Password: password}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if _, err := c.repo.GetUser(ctx, username); err == nil {
		return nil, ErrNameNotUnique
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := model.NewUser(username, string(hash))
	if err := c.repo.AddUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrNameNotUnique
		}
		return nil, err
	}
	return user, nil
}

// GetUser returns the user with the given name or ErrUnknownUser.
func (c *Controller) GetUser(ctx context.Context, username string) (*model.User, error) {
	user, err := c.repo.GetUser(ctx, normalizeUsername(username))
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownUser
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the given credentials and returns a signed session
// token. A wrong password yields ErrAuthenticationFailed, a missing user
// ErrUnknownUser.
func (c *Controller) Authenticate(ctx context.Context, username, password string) (string, error) {
	user, err := c.GetUser(ctx, username)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrAuthenticationFailed
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(c.tokenTTL).Unix(),
	})
	return token.SignedString(c.secretProvider())
}

// ValidateToken verifies a session token and returns the username it was
// issued for.
func (c *Controller) ValidateToken(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secretProvider(), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrAuthenticationFailed
	}
	var username string
	if v, ok := claims["username"]; ok {
		if v, ok := v.(string); ok {
			username = v
		}
	}
	if username == "" {
		return "", ErrAuthenticationFailed
	}
	return username, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
