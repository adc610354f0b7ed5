package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"splitter/internal/core"
	"splitter/internal/log"
)

var templateFuncs = template.FuncMap{
	"money":      formatMoney,
	"pathEscape": url.PathEscape,
}

// formatMoney renders an amount with two decimals, e.g. "₹12.50".
func formatMoney(currency string, amount float64) string {
	return fmt.Sprintf("%s%.2f", currency, amount)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

// statusFor maps a ledger error to its HTTP status.
func statusFor(err error) int {
	var verr *core.ValidationError
	var rerr *core.ReferentialIntegrityError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &rerr):
		return http.StatusConflict
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondLedgerError writes the mapped status for err. Unexpected errors are
// logged and hidden from the caller.
func respondLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, log.OpHandleRequest,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		message = "Internal error, please retry"
	}
	respondError(w, r, status, message)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	ErrorReply(status, message, isHTMX(r)).Send(w)
}

// respondJSON writes v with the given status. Mutations pass changed=true so
// the page reloads its ledger partial.
func respondJSON(w http.ResponseWriter, status int, v any, changed bool) {
	reply := NewReply(status).JSON(v)
	if changed {
		reply.LedgerChanged()
	}
	reply.Send(w)
}
