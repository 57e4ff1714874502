package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")

	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrBundleNotFound = errors.New("bundle not found")
	ErrCohortNotFound = errors.New("cohort not found")

	// ErrQuizRequired signals the lesson-completion precondition: the
	// lesson's required quiz has no passing attempt yet.
	ErrQuizRequired = errors.New("required quiz has not been passed")
	ErrQuizNotFound = errors.New("no quiz is configured for this lesson")

	ErrGiftNotFound        = errors.New("gift token not found")
	ErrGiftAlreadyRedeemed = errors.New("gift has already been redeemed")

	ErrInvalidSelection = errors.New("invalid course selection for bundle")
)
