package commands

import (
	"errors"
	"fmt"

	"pedidobot/internal/delivery"
	"pedidobot/internal/library"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/services"
)

// UsageError reports malformed arguments and carries the exact usage line.
type UsageError struct {
	Usage  string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Reason != "" {
		return e.Reason + "; usage: " + e.Usage
	}
	return "usage: " + e.Usage
}

func (e *UsageError) Unwrap() error { return services.ErrValidation }

// replyError carries a ready-made Spanish message.
type replyError struct {
	text string
	err  error
}

func (e *replyError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.text
}

func (e *replyError) Unwrap() error { return e.err }

func withReply(text string, err error) error {
	return &replyError{text: text, err: err}
}

// userMessage turns any error into a short Spanish reply.
func userMessage(env Env, err error) string {
	var re *replyError
	if errors.As(err, &re) {
		return re.text
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		msg := "Formato: " + usage.Usage
		if usage.Reason != "" {
			msg = "⚠️ " + usage.Reason + ". " + msg
		}
		return msg
	}
	var size *delivery.SizeError
	if errors.As(err, &size) {
		return fmt.Sprintf("📦 El archivo pesa %s y el límite de envío es %s.", delivery.HumanSize(size.Size), delivery.HumanSize(size.Limit))
	}

	switch {
	case errors.Is(err, pedidos.ErrAlreadyVoted):
		return "Ya votaste por este pedido."
	case errors.Is(err, pedidos.ErrClosed):
		return "Ese pedido ya está cerrado."
	case errors.Is(err, pedidos.ErrEmptyRequest):
		return "El pedido necesita un título o un archivo adjunto. Formato: " + env.cmd("pedido", createCommand{}.Usage())
	case errors.Is(err, pedidos.ErrInvalidPriority):
		return "Prioridad inválida. Usa alta, media o baja."
	case errors.Is(err, pedidos.ErrInvalidState):
		return "Estado inválido. Usa pendiente, en_proceso, completado o cancelado."
	case errors.Is(err, pedidos.ErrNotOwner):
		return "⛔ Solo quien creó el pedido o un administrador puede hacer esto."
	case errors.Is(err, pedidos.ErrNotPrivileged):
		return "⛔ Solo los administradores pueden usar este comando."
	case errors.Is(err, pedidos.ErrNotFound):
		return "No encontré ese pedido. Revisa el número con " + env.cmd("pedidos") + "."
	case errors.Is(err, library.ErrItemNotFound):
		return "No encontré ese archivo en la biblioteca."
	case errors.Is(err, delivery.ErrPathEscape):
		return "⛔ Ese archivo no se puede enviar."
	case errors.Is(err, delivery.ErrFileMissing):
		return "El archivo ya no está disponible en la biblioteca."
	case errors.Is(err, delivery.ErrNoFile):
		return "Ese elemento no tiene un archivo para enviar."
	case errors.Is(err, library.ErrNotProvider):
		return "Ese canal no está configurado como proveedor."
	}

	switch services.Kind(err) {
	case services.KindValidation:
		return "⚠️ Datos inválidos. Usa " + env.cmd("ayuda") + " para ver el formato."
	case services.KindNotFound:
		return "No encontré lo que buscas."
	case services.KindAuthorization:
		return "⛔ No tienes permiso para hacer esto."
	case services.KindPathSecurity:
		return "⛔ Ese archivo no se puede enviar."
	case services.KindTimeout:
		return "⏱️ La operación tardó demasiado. Inténtalo de nuevo en un momento."
	default:
		return "❌ Ocurrió un error interno. Inténtalo de nuevo más tarde."
	}
}
