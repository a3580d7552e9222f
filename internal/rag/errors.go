package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrCaseNotFound is returned when the selected case has no PDF in the case directory.
	ErrCaseNotFound = errors.New("case not found")
	// ErrStoreNotLoaded is returned when the general store is missing or unreadable.
	ErrStoreNotLoaded = errors.New("general store not loaded")
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)

// Stage names the step of a turn that failed.
type Stage string

const (
	StageRoute    Stage = "route"
	StageCondense Stage = "condense"
	StageRetrieve Stage = "retrieve"
	StageGenerate Stage = "generate"
)

// TurnError is a failed conversation turn. The turn was not logged and the session is unchanged.
type TurnError struct {
	Stage Stage
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("error generating response (%s): %v", e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}
