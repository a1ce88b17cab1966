package domain

import "errors"

var (
	// ErrNameRequired is returned when a login request carries no display name.
	ErrNameRequired = errors.New("name is required")
	// ErrNameTaken indicates a registration raced with another one for the same name.
	ErrNameTaken = errors.New("name already registered")
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuizNotFound is returned when no quiz exists for the requested date.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizExists indicates a quiz is already stored for the requested date.
	ErrQuizExists = errors.New("quiz already exists for date")
	// ErrInvalidQuiz is returned when a quiz is missing its date, question or answer.
	ErrInvalidQuiz = errors.New("quiz requires date, question and answer")
	// ErrInvalidDate is returned when a quiz date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("quiz date must be YYYY-MM-DD")
	// ErrAlreadySolved is returned when a user re-submits an answer for a quiz
	// they already attempted.
	ErrAlreadySolved = errors.New("quiz already solved by user")
	// ErrBadCredentials is returned on any admin login mismatch, without
	// distinguishing unknown id, wrong password or non-admin account.
	ErrBadCredentials = errors.New("invalid admin credentials")
	// ErrSessionExpired is returned when an admin token is unknown or past its TTL.
	ErrSessionExpired = errors.New("admin session expired")
)
