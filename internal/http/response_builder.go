package http

// HTMX responses: status, HX-Trigger events and an HTML fragment, collected
// on a builder and written once.

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"chitieu/internal/core"
)

// Client-side events sent in HX-Trigger. app.js listens for them.
const (
	EventTransactionCreated = "transaction:created"
	EventFormReset          = "form:reset"
	EventNotification       = "show-notification"
)

// Notification is the payload of a show-notification event.
type Notification struct {
	Level    string `json:"type"`
	Message  string `json:"message"`
	Duration int    `json:"duration"` // milliseconds
}

const (
	levelSuccess = "success"
	levelError   = "error"
)

// HTMXResponseBuilder accumulates an htmx response.
type HTMXResponseBuilder struct {
	status   int
	header   http.Header
	triggers map[string]any
	body     string
}

// NewHTMXResponse starts a 200 response.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		header:   http.Header{},
		triggers: map[string]any{},
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger adds an event to HX-Trigger. A later call with the same name
// replaces the earlier payload.
func (b *HTMXResponseBuilder) Trigger(name string, payload any) *HTMXResponseBuilder {
	b.triggers[name] = payload
	return b
}

// TriggerTransactionCreated tells the dashboard to reload. The payload names
// the saved date and category.
func (b *HTMXResponseBuilder) TriggerTransactionCreated(tx core.Transaction) *HTMXResponseBuilder {
	return b.Trigger(EventTransactionCreated, map[string]string{
		"date":     tx.Date.String(),
		"category": tx.Category,
	})
}

// TriggerFormReset clears the entry form but keeps its date.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

func (b *HTMXResponseBuilder) Notify(n Notification) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, n)
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.Notify(Notification{Level: levelSuccess, Message: message, Duration: 3000})
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.Notify(Notification{Level: levelError, Message: message, Duration: 5000})
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// BodyHTML sets an HTML fragment body.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = html
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range b.header {
		h[name] = values
	}
	if len(b.triggers) > 0 {
		if raw, err := json.Marshal(b.triggers); err == nil {
			h.Set("HX-Trigger", asciiJSON(raw))
		}
	}
	w.WriteHeader(b.status)
	if b.body != "" {
		_, _ = w.Write([]byte(b.body))
	}
}

// asciiJSON escapes non-ASCII runes so the JSON survives as a header value.
func asciiJSON(b []byte) string {
	var sb strings.Builder
	for _, r := range string(b) {
		switch {
		case r < utf8.RuneSelf:
			sb.WriteRune(r)
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&sb, `\u%04x`, r)
		}
	}
	return sb.String()
}

// ErrorResponse is an escaped error fragment with the given status.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

// MethodNotAllowedError is an empty 405 carrying the Allow header.
func MethodNotAllowedError(allowed string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowed)
}
