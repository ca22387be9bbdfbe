package models

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotSignedIn          = errors.New("no signed-in user")
	ErrNoProject            = errors.New("no open project")
	ErrNotFound             = errors.New("not found")
	ErrGeneration           = errors.New("content generation failed")
	ErrBatchRunning         = errors.New("batch generation is running")
	ErrGenerationInFlight   = errors.New("image generation in progress")
	ErrConfirmationRequired = errors.New("confirmation required")
)
