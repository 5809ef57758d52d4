package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"sportsbuddy/internal/domain"
)

const (
	minPasswordLen = 6
	minNameLen     = 2
	maxNameLen     = 50
	minUsernameLen = 3
	maxUsernameLen = 20
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo     domain.UserRepository
	hasher       domain.PasswordHasher
	tokenIssuer  domain.TokenIssuer
	tokenExpiry  time.Duration
	emailService domain.EmailService
	logger       *slog.Logger
}

// NewAuthService creates an AuthService with the given repository and auth ports.
// emailService may be nil, in which case no welcome mail is sent.
func NewAuthService(userRepo domain.UserRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry time.Duration, emailService domain.EmailService, logger *slog.Logger) domain.AuthService {
	return &authService{
		userRepo:     userRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		tokenExpiry:  tokenExpiry,
		emailService: emailService,
		logger:       logger,
	}
}

func validateSignUp(in domain.SignUpInput) error {
	var fields []domain.FieldError
	add := func(field, msg string) {
		fields = append(fields, domain.FieldError{Field: field, Message: msg})
	}
	switch n := len([]rune(in.Name)); {
	case n < minNameLen:
		add("name", fmt.Sprintf("name must be at least %d characters", minNameLen))
	case n > maxNameLen:
		add("name", fmt.Sprintf("name cannot exceed %d characters", maxNameLen))
	}
	switch n := len(in.Username); {
	case n < minUsernameLen:
		add("username", fmt.Sprintf("username must be at least %d characters", minUsernameLen))
	case n > maxUsernameLen:
		add("username", fmt.Sprintf("username cannot exceed %d characters", maxUsernameLen))
	}
	if !emailRegexp.MatchString(in.Email) {
		add("email", "invalid email format")
	}
	if len(in.Password) < minPasswordLen {
		add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if _, ok := domain.ParseRole(string(in.Role)); !ok {
		add("role", `role must be "user" or "organizer"`)
	} else if in.Role == domain.RoleAdmin {
		add("role", "admin role cannot be requested at sign-up")
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

func (s *authService) SignUp(ctx context.Context, in domain.SignUpInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.emailService != nil {
		data := &domain.WelcomeMessageEmailData{Email: user.Email, Name: user.Name, Username: user.Username}
		if err := s.emailService.SendWelcomeMessage(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "welcome email failed", "user_id", user.ID, "err", err)
		}
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, user.Role, s.tokenExpiry)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Promote sets the role of the user registered with email. It is used by the
// operator CLI, which is the only way to grant the admin role.
func (s *authService) Promote(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = role
	return user, nil
}
