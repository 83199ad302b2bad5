package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing part, swap mapping, model or session.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDirection reports a swap direction other than toGlass/toSolid.
	ErrInvalidDirection = errors.New("invalid swap direction")

	// ErrInvalidSelection reports a selection with an unknown door type or slot.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrVersion reports an optimistic version conflict on a stored document.
	ErrVersion = errors.New("E_VERSION")
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}
