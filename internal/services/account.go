package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/newsroom-api/server/config"
	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/mail"
	"github.com/newsroom-api/server/internal/store"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	linkTokenTTL      = 20 * time.Minute
	linkTokenTTLText  = "20 minutes"
	invitePasswordLen = 8
)

// Session is the result of a successful login or refresh.
type Session struct {
	User         types.User
	AccessToken  string
	RefreshToken string
}

// AccountService runs the token- and mail-based account flows: login,
// refresh, password reset and reporter invites.
type AccountService struct {
	users  *UserService
	repo   UserRepository
	tokens *auth.Tokens
	mailer mail.Sender
	cfg    config.Config
	logger *slog.Logger
}

func NewAccountService(users *UserService, repo UserRepository, tokens *auth.Tokens, mailer mail.Sender, cfg config.Config, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:  users,
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, ErrMissingFields
	}
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(user)
}

// Refresh trades a refresh token for a new session. The user is reloaded so
// role and status changes take effect.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tokens.VerifyPurpose(refreshToken, auth.RefreshToken, auth.PurposeRefresh)
	if err != nil {
		return Session{}, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	if user.Status != types.UserStatusActive {
		return Session{}, ErrAccountDisabled
	}
	return s.issueSession(user)
}

func (s *AccountService) issueSession(user types.User) (Session, error) {
	base := auth.Claims{UserID: user.ID.Hex(), Role: user.Role}

	access := base
	access.Purpose = auth.PurposeSession
	accessToken, err := s.tokens.Issue(access, s.cfg.JWT.AccessTTL, auth.AccessToken)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh := base
	refresh.Purpose = auth.PurposeRefresh
	refreshToken, err := s.tokens.Issue(refresh, s.cfg.JWT.RefreshTTL, auth.RefreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return Session{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ForgotPassword mails a short-lived reset link.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(auth.Claims{
		UserID:  user.ID.Hex(),
		Email:   user.Email,
		Purpose: auth.PurposePasswordReset,
	}, linkTokenTTL, auth.AccessToken)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	q := url.Values{}
	q.Set("user", user.ID.Hex())
	q.Set("token", token)
	link := s.cfg.Frontend("create-new-password") + "?" + q.Encode()

	msg, err := mail.PasswordReset(user.Email, link, linkTokenTTLText)
	if err != nil {
		return err
	}
	return s.send(ctx, msg, "password reset", "user", user.ID.Hex())
}

// ResetPassword sets a new password for userID when token is a valid reset
// token issued for that user.
func (s *AccountService) ResetPassword(ctx context.Context, userID, token, password, confirm string) error {
	if password == "" || confirm == "" {
		return ErrMissingFields
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	claims, err := s.tokens.VerifyPurpose(token, auth.AccessToken, auth.PurposePasswordReset)
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return auth.ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return store.ErrNotFound
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	_, err = s.users.setPassword(ctx, id, password)
	return err
}

// InviteReporter mails an invitation link. Pending accounts may be invited
// again; any other existing account blocks the invite.
func (s *AccountService) InviteReporter(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	email = normalizeEmail(email)

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Status != types.UserStatusPending:
		return ErrEmailTaken
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}

	token, err := s.tokens.Issue(auth.Claims{
		Email:   email,
		Purpose: auth.PurposeReporterInvite,
	}, linkTokenTTL, auth.AccessToken)
	if err != nil {
		return fmt.Errorf("issue invite token: %w", err)
	}

	link := s.cfg.Frontend("accept-invite-reporter") + "?token=" + url.QueryEscape(token)
	msg, err := mail.ReporterInvite(email, link, linkTokenTTLText)
	if err != nil {
		return err
	}
	return s.send(ctx, msg, "reporter invite", "email", email)
}

// AcceptInvite creates the invited reporter in two phases. The account is
// stored as pending with a generated password, the credentials are mailed,
// and the account becomes active only once the mail has gone out. When the
// mail is queued the worker activates it after delivery. A failed send
// leaves the account pending; accepting the invite again issues a new
// password.
func (s *AccountService) AcceptInvite(ctx context.Context, token string) (types.User, error) {
	claims, err := s.tokens.VerifyPurpose(token, auth.AccessToken, auth.PurposeReporterInvite)
	if err != nil {
		return types.User{}, err
	}
	email := normalizeEmail(claims.Email)
	if err := ValidateEmail(email); err != nil {
		return types.User{}, auth.ErrInvalidToken
	}

	password, err := auth.GeneratePassword(invitePasswordLen)
	if err != nil {
		return types.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.pendingReporter(ctx, email, hash)
	if err != nil {
		return types.User{}, err
	}

	msg, err := mail.ReporterCredentials(user.Email, password, s.cfg.Frontend("login"), user.ID.Hex())
	if err != nil {
		return types.User{}, err
	}
	receipt, err := s.mailer.Send(ctx, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "reporter credentials not delivered; account left pending",
			"user", user.ID.Hex(),
			"email", user.Email,
			"err", err,
		)
		return types.User{}, ErrDeliveryFailed
	}
	if receipt.Queued {
		return user, nil
	}

	if err := s.users.Activate(ctx, user.ID); err != nil {
		return types.User{}, fmt.Errorf("activate reporter: %w", err)
	}
	user.Status = types.UserStatusActive
	return user, nil
}

// pendingReporter creates the invited account, or resets the password of
// one left pending by an earlier failed acceptance.
func (s *AccountService) pendingReporter(ctx context.Context, email, hash string) (types.User, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Status == types.UserStatusPending:
		return s.repo.Update(ctx, existing.ID, types.UserUpdate{PasswordHash: &hash})
	case err == nil:
		return types.User{}, ErrEmailTaken
	case !errors.Is(err, store.ErrNotFound):
		return types.User{}, err
	}

	name, _, _ := strings.Cut(email, "@")
	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       types.UserStatusPending,
		Role:         types.RoleReporter,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return types.User{}, ErrEmailTaken
	}
	return user, err
}

func (s *AccountService) send(ctx context.Context, msg mail.Message, kind string, attrs ...any) error {
	if _, err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, kind+" mail not delivered", append(attrs, "err", err)...)
		return ErrDeliveryFailed
	}
	return nil
}
