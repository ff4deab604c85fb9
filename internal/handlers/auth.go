package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/internal/store"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Authenticator resolves bearer tokens to users and gates operations by
// role.
type Authenticator struct {
	tokens *auth.Tokens
	users  *services.UserService
	policy *auth.Policy
}

func NewAuthenticator(tokens *auth.Tokens, users *services.UserService, policy *auth.Policy) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, policy: policy}
}

// RequireAuth rejects requests without a valid session token. When the
// token's user no longer exists or is not active the request continues
// without an identity, so role-gated handlers fail closed.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			respondError(w, r, errUnauthorized)
			return
		}
		user, err := a.identify(r, tokenString)
		if err != nil {
			respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// OptionalAuth attaches the caller when a valid token is present and
// otherwise serves the request anonymously.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.identify(r, tokenString)
		if errors.Is(err, errUnauthorized) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireIdentity rejects requests that carry no resolved user.
func (a *Authenticator) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) == nil {
			respondError(w, r, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authorize allows the request only when the caller's role may perform op.
func (a *Authenticator) Authorize(op auth.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := userFromContext(r.Context())
			if user == nil {
				respondError(w, r, errUnauthorized)
				return
			}
			if !a.policy.Allowed(user.Role, op) {
				respondError(w, r, services.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// identify returns errUnauthorized for bad tokens and a nil user for
// tokens whose subject is gone or disabled.
func (a *Authenticator) identify(r *http.Request, tokenString string) (*types.User, error) {
	claims, err := a.tokens.VerifyPurpose(tokenString, auth.AccessToken, auth.PurposeSession)
	if err != nil {
		return nil, errUnauthorized
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, errUnauthorized
	}

	user, err := a.users.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Status != types.UserStatusActive {
		return nil, nil
	}
	return &user, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// AuthHandler provides account endpoints.
type AuthHandler struct {
	accounts *services.AccountService
	users    *services.UserService
	media    *services.MediaService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(accounts *services.AccountService, users *services.UserService, media *services.MediaService) *AuthHandler {
	return &AuthHandler{accounts: accounts, users: users, media: media}
}

// AuthRouter registers auth routes on the given router. Credential
// endpoints are throttled per client by limiter.
func AuthRouter(
	r chi.Router,
	accounts *services.AccountService,
	users *services.UserService,
	media *services.MediaService,
	authn *Authenticator,
	limiter *RateLimiter,
) {
	handler := NewAuthHandler(accounts, users, media)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/refresh", handler.Refresh)
		r.Post("/forget", handler.ForgotPassword)
		r.Post("/verifypassword", handler.ResetPassword)
		r.Post("/accept-invite-reporter/{token}", handler.AcceptInvite)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.RequireAuth, authn.RequireIdentity)
		r.Get("/me", handler.Me)
		r.Post("/changePassword", handler.ChangePassword)
		r.Post("/changeName", handler.ChangeName)
		r.Post("/update-avatar-url", handler.UpdateAvatarURL)
		r.With(authn.Authorize(auth.OpAvatarUpload)).Post("/upload-avatar", handler.UploadAvatar)
	})
}

// Register creates a user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), services.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Mobile:   req.Mobile,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{Message: "User Registration Successful", User: user})
}

// Login verifies credentials and returns a session. The access token is
// also echoed in the authorization response header.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("authorization", session.AccessToken)
	writeJSON(w, http.StatusOK, newLoginResponse("Login Successful", session))
}

// Refresh exchanges a refresh token for a new session.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	session, err := h.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("authorization", session.AccessToken)
	writeJSON(w, http.StatusOK, newLoginResponse("Session refreshed", session))
}

// ForgotPassword mails a reset link.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Reset link sent to your e-mail"})
}

// ResetPassword completes a reset from the mailed link. The user id and
// token come from the query string.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	query := r.URL.Query()
	err := h.accounts.ResetPassword(r.Context(), query.Get("userId"), query.Get("token"), req.Password, req.ConfirmPassword)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

// AcceptInvite turns an invite token into a reporter account.
func (h *AuthHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.AcceptInvite(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		Message: "Account created successfully. Please check your email for login details.",
		User:    user,
	})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	caller := userFromContext(r.Context())
	user, err := h.users.ChangePassword(r.Context(), caller.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "User Password Updated Successfully", User: user})
}

func (h *AuthHandler) ChangeName(w http.ResponseWriter, r *http.Request) {
	var req ChangeNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	caller := userFromContext(r.Context())
	user, err := h.users.ChangeName(r.Context(), caller.ID, req.Password, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "User Name Updated Successfully", User: user})
}

func (h *AuthHandler) UpdateAvatarURL(w http.ResponseWriter, r *http.Request) {
	var req UpdateAvatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	caller := userFromContext(r.Context())
	user, err := h.users.UpdateAvatarURL(r.Context(), caller.ID, req.Password, req.AvatarURL)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "Avatar Updated Successfully", User: user})
}

// UploadAvatar stores the multipart "image" file as the caller's avatar.
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if !h.media.Enabled() {
		respondError(w, r, services.ErrUploadsDisabled)
		return
	}
	file, err := formImage(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	caller := userFromContext(r.Context())
	user, err := h.media.UploadAvatar(r.Context(), caller.ID, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "Avatar Updated Successfully", User: user})
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type ChangeNameRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl"`
	Password  string `json:"password"`
}

// LoginResponse flattens the session for clients of the login endpoint.
type LoginResponse struct {
	Message      string             `json:"message"`
	Token        string             `json:"token"`
	RefreshToken string             `json:"refreshToken"`
	UserID       primitive.ObjectID `json:"userId"`
	Role         string             `json:"role"`
	UserName     string             `json:"userName"`
	Email        string             `json:"email"`
	Status       string             `json:"status"`
	AvatarURL    *string            `json:"avatarUrl"`
}

type UserResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

func newLoginResponse(message string, s services.Session) LoginResponse {
	resp := LoginResponse{
		Message:      message,
		Token:        s.AccessToken,
		RefreshToken: s.RefreshToken,
		UserID:       s.User.ID,
		Role:         s.User.Role,
		UserName:     s.User.Name,
		Email:        s.User.Email,
		Status:       s.User.Status,
	}
	if s.User.AvatarURL != "" {
		resp.AvatarURL = &s.User.AvatarURL
	}
	return resp
}
