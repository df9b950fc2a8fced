package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kreaker/cnc-backend/internal/apierr"
	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/repos"
	"github.com/kreaker/cnc-backend/internal/types"
)

// AuthService is deliberately small: it looks up a user record, checks a
// hashed password and issues a short-lived access token.
type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) error
	LoginUser(ctx context.Context, username, password string) (string, *types.User, error)
	ValidateToken(ctx context.Context, tokenString string) (string, error)
	GetAccessTTL() time.Duration
	SeedUser(ctx context.Context, username, email, password, displayName string) error
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
	if user == nil {
		return apierr.Invalid("invalid_registration", "user is required")
	}
	user.Username = strings.TrimSpace(strings.ToLower(user.Username))
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))

	if user.Username == "" {
		return apierr.Invalid("invalid_registration", "a username is required to register")
	}
	if user.Email == "" {
		return apierr.Invalid("invalid_registration", "an email is required to register")
	}
	if user.Password == "" {
		return apierr.Invalid("invalid_registration", "a password is required to register")
	}

	usernameExists, err := as.userRepo.UsernameExists(ctx, nil, user.Username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if usernameExists {
		return apierr.Conflict("username_taken", "username is already in use")
	}
	emailExists, err := as.userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if emailExists {
		return apierr.Conflict("email_taken", "email is already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hashed)
	user.Enabled = true

	if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	as.log.Info("Registered user", "username", user.Username)
	return nil
}

func (as *authService) LoginUser(ctx context.Context, username, password string) (string, *types.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return "", nil, apierr.Invalid("invalid_login", "username and password are required")
	}

	user, err := as.userRepo.GetByUsername(ctx, nil, username)
	if err != nil {
		return "", nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil || !user.Enabled {
		return "", nil, apierr.New(401, "invalid_credentials", fmt.Errorf("invalid username or password"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apierr.New(401, "invalid_credentials", fmt.Errorf("invalid username or password"))
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (as *authService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return "", apierr.New(401, "invalid_token", fmt.Errorf("invalid or expired token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apierr.New(401, "invalid_token", fmt.Errorf("invalid token claims"))
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return "", apierr.New(401, "invalid_token", fmt.Errorf("token missing subject"))
	}
	return username, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

// SeedUser creates the given account if it does not exist yet; used at
// boot so a fresh deployment always has one operator login.
func (as *authService) SeedUser(ctx context.Context, username, email, password, displayName string) error {
	exists, err := as.userRepo.UsernameExists(ctx, nil, strings.TrimSpace(strings.ToLower(username)))
	if err != nil {
		return fmt.Errorf("check seed user: %w", err)
	}
	if exists {
		as.log.Info("Seed user already exists, skipping", "username", username)
		return nil
	}

	user := &types.User{
		Username:    username,
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}
	if err := as.RegisterUser(ctx, user); err != nil {
		return err
	}
	as.log.Info("Seed user created", "username", username)
	return nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.Username,
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
