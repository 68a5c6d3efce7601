package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/cetiassist/asesoria_backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
	Subjects []string
}

type UserService struct {
	users  repository.UserStore
	logger *zap.Logger

	// allowedDomain restricts registration to institutional accounts,
	// e.g. "@ceti.mx". Empty disables the check.
	allowedDomain string
}

func NewUserService(users repository.UserStore, allowedDomain string, logger *zap.Logger) *UserService {
	return &UserService{
		users:         users,
		logger:        logger,
		allowedDomain: allowedDomain,
	}
}

// Register validates and creates a new user profile.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !emailPattern.MatchString(email) {
		return nil, model.NewValidationError("email", "not a valid email address")
	}
	if s.allowedDomain != "" && !strings.HasSuffix(email, s.allowedDomain) {
		return nil, model.NewValidationError("email", fmt.Sprintf("must end in %s", s.allowedDomain))
	}
	if len(input.Password) < minPasswordLength {
		return nil, model.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError("name", "must not be empty")
	}
	if !input.Role.IsValid() {
		return nil, model.NewValidationError("role", "must be student or professor")
	}
	if input.Role == model.RoleStudent && len(input.Subjects) > 0 {
		return nil, model.NewValidationError("subjects", "only professors publish subjects")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
		Subjects:     input.Subjects,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// Authenticate verifies credentials and returns the profile.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetProfile resolves a user id to its profile, role and subjects
// included.
func (s *UserService) GetProfile(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}
