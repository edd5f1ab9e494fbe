package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRating is returned when a rating falls outside {1,2,3,4}.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidCardState is returned when a card lifecycle state is not valid.
	ErrInvalidCardState = errors.New("invalid card state")

	// ErrSessionNotActive is returned when mutating a session that has
	// already been completed or abandoned.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrSessionAlreadyCompleted is returned when completing a session
	// for a second time.
	ErrSessionAlreadyCompleted = errors.New("session already completed")

	// ErrCardNotInSession is returned when a response references a card
	// outside the session's queue.
	ErrCardNotInSession = errors.New("card is not part of this session")
)

// Card-specific validation errors.
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardStudentIDEmpty is returned when a card's student ID is empty or nil.
	ErrCardStudentIDEmpty = errors.New("card student ID cannot be empty")

	// ErrCardCourseIDEmpty is returned when a card's course ID is empty or nil.
	ErrCardCourseIDEmpty = errors.New("card course ID cannot be empty")

	// ErrCardContentRefEmpty is returned when a card's content reference is empty or nil.
	ErrCardContentRefEmpty = errors.New("card content reference cannot be empty")

	// ErrCardTopicEmpty is returned when a card's topic is empty.
	ErrCardTopicEmpty = errors.New("card topic cannot be empty")
)
