package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Event names the ledger page listens for.
const (
	EventLedgerChanged    = "ledger:changed"
	EventShowNotification = "show-notification"
)

// ToastLevel selects the style of the toast shown by static/app.js.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastInfo    ToastLevel = "info"
	ToastWarning ToastLevel = "warning"
	ToastError   ToastLevel = "error"
)

// toastMillis keeps problems on screen longer than confirmations.
var toastMillis = map[ToastLevel]int{
	ToastSuccess: 3000,
	ToastInfo:    3000,
	ToastWarning: 5000,
	ToastError:   5000,
}

// Reply accumulates a status, client-side events and a body, then writes
// them in one go. Events travel in the HX-Trigger header.
type Reply struct {
	status      int
	events      map[string]any
	contentType string
	body        []byte
}

// NewReply starts a reply with the given status.
func NewReply(status int) *Reply {
	return &Reply{status: status, events: map[string]any{}}
}

// Event queues a client event with an optional detail payload.
func (r *Reply) Event(name string, detail any) *Reply {
	if detail == nil {
		detail = struct{}{}
	}
	r.events[name] = detail
	return r
}

// LedgerChanged asks the page to reload the ledger partial.
func (r *Reply) LedgerChanged() *Reply {
	return r.Event(EventLedgerChanged, nil)
}

// Toast queues a show-notification event.
func (r *Reply) Toast(level ToastLevel, message string) *Reply {
	return r.Event(EventShowNotification, map[string]any{
		"type":     string(level),
		"message":  message,
		"duration": toastMillis[level],
	})
}

// JSON encodes v as the body. If v cannot be encoded the reply becomes a 500.
func (r *Reply) JSON(v any) *Reply {
	data, err := json.Marshal(v)
	if err != nil {
		r.status = http.StatusInternalServerError
		data = []byte(`{"error":"response encoding failed"}`)
	}
	return r.Raw("application/json", append(data, '\n'))
}

// HTML sets an already-escaped HTML fragment as the body.
func (r *Reply) HTML(fragment string) *Reply {
	return r.Raw("text/html; charset=utf-8", []byte(fragment))
}

// Raw sets the body verbatim. An empty contentType leaves sniffing to net/http.
func (r *Reply) Raw(contentType string, body []byte) *Reply {
	r.contentType = contentType
	r.body = body
	return r
}

// Send writes headers, status and body to w.
func (r *Reply) Send(w http.ResponseWriter) {
	h := w.Header()
	if r.contentType != "" {
		h.Set("Content-Type", r.contentType)
	}
	if len(r.events) > 0 {
		if encoded, err := json.Marshal(r.events); err == nil {
			h.Set("HX-Trigger", asciiJSON(encoded))
		}
	}
	w.WriteHeader(r.status)
	if len(r.body) > 0 {
		_, _ = w.Write(r.body)
	}
}

// asciiJSON rewrites every non-ASCII rune of encoded JSON as a \uXXXX
// escape. Browsers decode header values as Latin-1.
func asciiJSON(encoded []byte) string {
	var b strings.Builder
	b.Grow(len(encoded))
	for _, r := range string(encoded) {
		switch {
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorReply reports message with an error toast. htmx callers get an
// escaped HTML fragment, API callers a JSON object.
func ErrorReply(status int, message string, htmx bool) *Reply {
	r := NewReply(status).Toast(ToastError, message)
	if htmx {
		return r.HTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
	}
	return r.JSON(errorBody{Error: message})
}
