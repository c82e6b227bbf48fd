package pedidos

import (
	"fmt"

	"pedidobot/internal/services"
)

var (
	ErrEmptyRequest    = fmt.Errorf("%w: title or attachment required", services.ErrValidation)
	ErrInvalidPriority = fmt.Errorf("%w: unknown priority", services.ErrValidation)
	ErrInvalidState    = fmt.Errorf("%w: unknown state", services.ErrValidation)
	ErrAlreadyVoted    = fmt.Errorf("%w: already voted", services.ErrValidation)
	ErrClosed          = fmt.Errorf("%w: request is closed", services.ErrValidation)
	ErrMissingActor    = fmt.Errorf("%w: actor required", services.ErrValidation)
	ErrNotOwner        = fmt.Errorf("%w: only the requester or an admin may do this", services.ErrAuthorization)
	ErrNotPrivileged   = fmt.Errorf("%w: admin only", services.ErrAuthorization)
	ErrNotFound        = fmt.Errorf("%w: pedido", services.ErrNotFound)
)
