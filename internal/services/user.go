package services

import (
	"context"
	"errors"
	"strings"

	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/store"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, id primitive.ObjectID, update types.UserUpdate) (types.User, error)
	List(ctx context.Context, filter types.UserFilter, page types.PageRequest) ([]types.User, int64, error)
}

// Registration is the input for creating an account.
type Registration struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a reader account. Role and status are never taken from
// the caller.
func (s *UserService) Register(ctx context.Context, reg Registration) (types.User, error) {
	return s.create(ctx, reg, types.RoleUser)
}

// CreateAdmin bootstraps an admin account from the command line.
func (s *UserService) CreateAdmin(ctx context.Context, reg Registration) (types.User, error) {
	return s.create(ctx, reg, types.RoleAdmin)
}

func (s *UserService) create(ctx context.Context, reg Registration, role string) (types.User, error) {
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return types.User{}, ErrMissingFields
	}
	if err := ValidateEmail(reg.Email); err != nil {
		return types.User{}, err
	}
	if err := ValidatePassword(reg.Password); err != nil {
		return types.User{}, err
	}

	if _, err := s.repo.GetByEmail(ctx, reg.Email); err == nil {
		return types.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        normalizeEmail(reg.Email),
		PasswordHash: hash,
		Mobile:       strings.TrimSpace(reg.Mobile),
		Status:       types.UserStatusActive,
		Role:         role,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return types.User{}, ErrEmailTaken
	}
	return user, err
}

// Authenticate checks credentials and that the account may sign in.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, err
	}
	if err := checkPassword(user, password); err != nil {
		return types.User{}, err
	}
	if user.Status != types.UserStatusActive {
		return types.User{}, ErrAccountDisabled
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) (types.User, error) {
	if current == "" || next == "" {
		return types.User{}, ErrMissingFields
	}
	if err := ValidatePassword(next); err != nil {
		return types.User{}, err
	}
	if err := s.verifyCurrent(ctx, id, current); err != nil {
		return types.User{}, err
	}
	return s.setPassword(ctx, id, next)
}

func (s *UserService) ChangeName(ctx context.Context, id primitive.ObjectID, password, name string) (types.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return types.User{}, ErrMissingFields
	}
	if err := s.verifyCurrent(ctx, id, password); err != nil {
		return types.User{}, err
	}
	return s.repo.Update(ctx, id, types.UserUpdate{Name: &name})
}

func (s *UserService) UpdateAvatarURL(ctx context.Context, id primitive.ObjectID, password, avatarURL string) (types.User, error) {
	if password == "" {
		return types.User{}, ErrMissingFields
	}
	if err := s.verifyCurrent(ctx, id, password); err != nil {
		return types.User{}, err
	}
	return s.SetAvatar(ctx, id, strings.TrimSpace(avatarURL))
}

// SetAvatar stores an avatar link that was produced by an upload.
func (s *UserService) SetAvatar(ctx context.Context, id primitive.ObjectID, avatarURL string) (types.User, error) {
	return s.repo.Update(ctx, id, types.UserUpdate{AvatarURL: &avatarURL})
}

// UpdateStatus is the admin override; it needs no password.
func (s *UserService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (types.User, error) {
	if !types.ValidUserStatus(status) {
		return types.User{}, ErrInvalidStatus
	}
	return s.repo.Update(ctx, id, types.UserUpdate{Status: &status})
}

// Activate moves a pending account to active. Accounts in any other state
// are left alone so an admin's deactivation is never undone.
func (s *UserService) Activate(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Status != types.UserStatusPending {
		return nil
	}
	active := types.UserStatusActive
	_, err = s.repo.Update(ctx, id, types.UserUpdate{Status: &active})
	return err
}

// ActivateHex is Activate for ids carried as strings, e.g. in queued mail.
func (s *UserService) ActivateHex(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	return s.Activate(ctx, oid)
}

// List pages through users, optionally restricted to one role.
func (s *UserService) List(ctx context.Context, role string, page types.PageRequest) (types.Page[types.User], error) {
	page, err := normalizePage(page)
	if err != nil {
		return types.Page[types.User]{}, err
	}
	if role != "" && !types.ValidRole(role) {
		return types.Page[types.User]{}, ErrInvalidUserType
	}
	users, total, err := s.repo.List(ctx, types.UserFilter{Role: role}, page)
	if err != nil {
		return types.Page[types.User]{}, err
	}
	return types.NewPage(users, total, page), nil
}

// Search matches query against name, email, mobile, status and role within
// one user type.
func (s *UserService) Search(ctx context.Context, query, userType string, page types.PageRequest) (types.Page[types.User], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.Page[types.User]{}, ErrEmptyQuery
	}
	if userType != types.RoleUser && userType != types.RoleReporter {
		return types.Page[types.User]{}, ErrInvalidUserType
	}
	page, err := normalizePage(page)
	if err != nil {
		return types.Page[types.User]{}, err
	}
	users, total, err := s.repo.List(ctx, types.UserFilter{Role: userType, Text: query}, page)
	if err != nil {
		return types.Page[types.User]{}, err
	}
	return types.NewPage(users, total, page), nil
}

func (s *UserService) verifyCurrent(ctx context.Context, id primitive.ObjectID, password string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return checkPassword(user, password)
}

func (s *UserService) setPassword(ctx context.Context, id primitive.ObjectID, password string) (types.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, err
	}
	return s.repo.Update(ctx, id, types.UserUpdate{PasswordHash: &hash})
}

func checkPassword(user types.User, password string) error {
	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIncorrectPassword
	}
	return nil
}
