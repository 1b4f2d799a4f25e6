package domain

import "errors"

var (
	ErrMissingField       = errors.New("missing required field")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid session token")

	ErrNoFile          = errors.New("no file selected")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrModelNotLoaded  = errors.New("model not loaded")
	ErrAudioProcessing = errors.New("failed to process audio file")

	ErrNotFound  = errors.New("analysis not found")
	ErrForbidden = errors.New("access denied")
)
