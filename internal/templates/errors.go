package templates

import (
	"errors"
	"fmt"

	"templatecheck/internal/model"
)

var (
	// ErrTemplateNotFound matches every *TemplateNotFoundError.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrReferenceLoad matches every *ReferenceLoadError.
	ErrReferenceLoad = errors.New("reference template load failed")

	errNoSource = errors.New("no reference asset source configured")
)

// TemplateNotFoundError the id is not in the registry
type TemplateNotFoundError struct {
	ID model.TemplateID
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("unknown template type: %s", e.ID)
}

// Is lets errors.Is(err, ErrTemplateNotFound) match.
func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// ReferenceLoadError a registered master file could not be fetched or parsed
type ReferenceLoadError struct {
	ID   model.TemplateID
	Path string
	Err  error
}

func (e *ReferenceLoadError) Error() string {
	return fmt.Sprintf("error loading template %s from %s: %v", e.ID, e.Path, e.Err)
}

func (e *ReferenceLoadError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrReferenceLoad) match.
func (e *ReferenceLoadError) Is(target error) bool {
	return target == ErrReferenceLoad
}

func newReferenceLoadError(def model.TemplateDefinition, err error) *ReferenceLoadError {
	return &ReferenceLoadError{
		ID:   def.ID,
		Path: def.ReferencePath,
		Err:  err,
	}
}
