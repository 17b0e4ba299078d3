package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/logger"
	"libraryhub/internal/pkg/pagination"
	"libraryhub/internal/pkg/password"
)

// UserService handles user management business logic
type UserService struct {
	userRepo repositories.UserRepository
	notifier AccountNotifier
}

// NewUserService creates a new user service. notifier may be nil.
func NewUserService(userRepo repositories.UserRepository, notifier AccountNotifier) *UserService {
	return &UserService{
		userRepo: userRepo,
		notifier: notifier,
	}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page   int
	Limit  int
	Search string
	Role   string
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users []*models.UserResponse `json:"users"`
	Meta  *pagination.Meta       `json:"meta"`
}

// CreateUserInput represents create user input (for admin)
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Dob      *time.Time
	Phone    string
	PhotoURL string
	Role     string
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Name     *string
	Email    *string
	Dob      *time.Time
	Phone    *string
	PhotoURL *string
	Role     *string
	IsActive *bool
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ListUsers lists users with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	params := pagination.New(input.Page, input.Limit)

	filter := repositories.UserFilter{Search: strings.TrimSpace(input.Search)}
	if input.Role != "" {
		role, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, domain.ErrInvalidRole
		}
		filter.Role = string(role)
	}

	users, total, err := s.userRepo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	return &ListUsersOutput{
		Users: lo.Map(users, func(u *models.User, _ int) *models.UserResponse { return u.ToResponse() }),
		Meta:  pagination.GetMeta(params, total),
	}, nil
}

// ListMembers returns every account with the MEMBER role, unpaginated
func (s *UserService) ListMembers(ctx context.Context) ([]*models.UserResponse, error) {
	users, _, err := s.userRepo.List(ctx, repositories.UserFilter{Role: string(domain.RoleMember)}, 0, 0)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u *models.User, _ int) *models.UserResponse { return u.ToResponse() }), nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// CreateUser creates an account on behalf of an admin. Without a password
// a random one is generated; either way the user gets a welcome mail.
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.UserResponse, error) {
	role := domain.RoleMember
	if input.Role != "" {
		r, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, domain.ErrInvalidRole
		}
		role = r
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	plain := input.Password
	if plain == "" {
		if plain, err = password.GenerateRandom(8); err != nil {
			return nil, err
		}
	}
	if !password.ValidatePassword(plain) {
		return nil, domain.ErrInvalidPassword
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: hashed,
		Dob:      input.Dob,
		Phone:    input.Phone,
		PhotoURL: input.PhotoURL,
		Role:     string(role),
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, err
	}

	log := logger.GetLogger(ctx).WithField("user_id", user.ID)
	log.Infof("✅ User created: %s (%s)", user.Email, user.Role)

	if s.notifier != nil {
		if err := s.notifier.NotifyWelcome(ctx, user, plain); err != nil {
			log.WithError(err).Warn("⚠️ Failed to queue welcome mail")
		}
	}

	return user.ToResponse(), nil
}

// UpdateUserByAdmin updates a user by admin
func (s *UserService) UpdateUserByAdmin(ctx context.Context, id uint, adminID uint, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if id == adminID && input.Role != nil && !strings.EqualFold(*input.Role, user.Role) {
		return nil, domain.ErrCannotDemoteSelf
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			exists, err := s.userRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, domain.ErrEmailAlreadyExists
			}
			user.Email = email
		}
	}
	if input.Role != nil {
		role, ok := domain.ParseRole(*input.Role)
		if !ok {
			return nil, domain.ErrInvalidRole
		}
		user.Role = string(role)
	}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Dob != nil {
		user.Dob = input.Dob
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.PhotoURL != nil {
		user.PhotoURL = *input.PhotoURL
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, err
	}

	return user.ToResponse(), nil
}

// DeleteUser deletes a user (soft delete)
func (s *UserService) DeleteUser(ctx context.Context, id uint, adminID uint) error {
	if id == adminID {
		return domain.ErrCannotDeleteSelf
	}

	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	return s.userRepo.Delete(ctx, id)
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return domain.ErrWrongOldPassword
	}
	if !password.ValidatePassword(input.NewPassword) {
		return domain.ErrInvalidPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}
