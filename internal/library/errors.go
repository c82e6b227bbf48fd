package library

import (
	"fmt"

	"pedidobot/internal/services"
)

var (
	// ErrItemNotFound is returned when a library item id is unknown.
	ErrItemNotFound = fmt.Errorf("%w: library item", services.ErrNotFound)
	// ErrNotProvider marks a channel that has no provider configuration.
	ErrNotProvider = fmt.Errorf("%w: channel is not a provider", services.ErrValidation)
)
