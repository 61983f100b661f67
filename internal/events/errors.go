package events

import (
	"net/http"

	"ticketly-client/internal/api"
)

// Error carries the message an admin sees when a lifecycle operation fails.
// Err is the underlying request error, if any.
type Error struct {
	Message  string
	NotFound bool
	Err      error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

type operation struct {
	badRequest string
	failed     string
	transport  string
	empty      string
}

var (
	deleteOp = operation{
		badRequest: "No se puede eliminar: el evento está publicado",
		failed:     "Error al eliminar el evento",
		transport:  "Error de conexión al eliminar el evento",
	}
	publishOp = operation{
		badRequest: "El evento ya está publicado o no puede ser publicado",
		failed:     "Error al publicar el evento",
		transport:  "Error de conexión al publicar el evento",
		empty:      "No se puede publicar: el evento ya está publicado o no existe.",
	}
	cancelOp = operation{
		badRequest: "El evento no puede ser cancelado",
		failed:     "Error al cancelar el evento",
		transport:  "Error de conexión al cancelar el evento",
		empty:      "No se puede cancelar: el evento no existe.",
	}
)

const notFoundMessage = "Evento no encontrado"

func translate(err error, op operation) error {
	switch status := api.StatusOf(err); {
	case status == 0:
		return &Error{Message: op.transport, Err: err}
	case status == http.StatusNotFound:
		return &Error{Message: notFoundMessage, NotFound: true, Err: err}
	case status == http.StatusBadRequest:
		return &Error{Message: api.Reason(err, op.badRequest), Err: err}
	default:
		return &Error{Message: api.Reason(err, op.failed), Err: err}
	}
}
