package api

import (
	"net/http"

	"ledgerd/modules"
)

// Error is a type that is encoded as JSON and returned in an API response in
// the event of an error. Only the Message field is required. More fields may
// be added to this struct in the future for better error reporting.
type Error struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Error implements the error interface for the Error type. It returns only
// the Message field.
func (err Error) Error() string {
	return err.Message
}

// writeLedgerError classifies err via modules.KindOf and writes it as an
// Error body with the status code the Kind maps to, centralizing the
// mapping described by the error-handling design so every handler gets
// consistent status codes without its own switch statement.
func writeLedgerError(w http.ResponseWriter, err error) {
	kind := modules.KindOf(err)
	status := kind.HTTPStatus()
	if kind == modules.KindNone {
		status = http.StatusBadRequest
	}
	writeError(w, Error{Message: err.Error(), Reason: kind.String()}, status)
}
