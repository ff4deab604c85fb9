package services

import "errors"

// Validation errors. Their messages are safe to show to API callers.
var (
	ErrInvalidEmail      = errors.New("email is invalid")
	ErrWeakPassword      = errors.New("password should have one uppercase letter, one number, and minimum 6 characters")
	ErrPasswordMismatch  = errors.New("password and confirm password should match")
	ErrMissingFields     = errors.New("required fields are missing")
	ErrInvalidPagination = errors.New("page and limit must be positive integers")
	ErrEmptyQuery        = errors.New("search query is required")
	ErrInvalidUserType   = errors.New("userType must be user or reporter")
	ErrInvalidStatus     = errors.New("status is invalid")
	ErrNoChanges         = errors.New("no fields to update")
	ErrInvalidImage      = errors.New("file must be a jpeg, png, gif or webp image")
	ErrImageTooLarge     = errors.New("image exceeds the upload size limit")
)

// Conflict and state errors.
var (
	ErrEmailTaken         = errors.New("user already exists, please login")
	ErrNotReporter        = errors.New("author must be a reporter or admin")
	ErrArticleNotAccepted = errors.New("comments are only allowed on accepted articles")
)

// Credential and permission errors.
var (
	ErrIncorrectPassword = errors.New("email or password is incorrect")
	ErrAccountDisabled   = errors.New("account is not active")
	ErrForbidden         = errors.New("you are not allowed to perform this action")
)

// Collaborator errors.
var (
	ErrDeliveryFailed  = errors.New("email could not be delivered")
	ErrUploadsDisabled = errors.New("uploads are not configured")
)
