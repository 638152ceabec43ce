package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"gamified-learning/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string, role domain.Role) (string, error)
}

// Registration is the self-service sign-up payload.
type Registration struct {
	Username string
	Email    string
	Password string
	FullName string
}

// Session is what a successful register or login hands back.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// AuthService owns accounts and credentials.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	cost   int
	log    *zap.Logger
	now    func() time.Time
}

// NewAuthService uses bcrypt.DefaultCost when cost is out of range.
func NewAuthService(users UserRepository, tokens TokenIssuer, cost int, log *zap.Logger) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, cost: cost, log: log, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, reg Registration) (Session, error) {
	user, err := s.CreateUser(ctx, reg, domain.RoleUser)
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// CreateUser stores a new account with the given role without issuing a token.
func (s *AuthService) CreateUser(ctx context.Context, reg Registration, role domain.Role) (domain.User, error) {
	username := strings.TrimSpace(reg.Username)
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if len(username) < 3 || email == "" || len(reg.Password) < 6 {
		return domain.User{}, domain.NewValidationError("username (min 3), email and password (min 6) are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return domain.User{}, err
	}
	now := s.now().UTC()
	user := domain.User{
		ID:                  uuid.NewString(),
		Username:            username,
		Email:               email,
		FullName:            strings.TrimSpace(reg.FullName),
		PasswordHash:        string(hash),
		Role:                role,
		Badges:              []string{},
		CompletedChallenges: []domain.Completion{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("user registered", zap.String("userId", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login accepts either the username or the email as login.
func (s *AuthService) Login(ctx context.Context, login, password string) (Session, error) {
	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	update.FullName = strings.TrimSpace(update.FullName)
	update.Email = strings.ToLower(strings.TrimSpace(update.Email))
	return s.users.UpdateProfile(ctx, userID, update)
}

func (s *AuthService) session(user domain.User) (Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}
