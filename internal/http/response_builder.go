package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder builds a response carrying HX-Trigger events.
type HTMXResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data interface{}) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// Event names sent in HX-Trigger.
const (
	EventExpenseCreated = "expense:created"
	EventExpenseUpdated = "expense:updated"
	EventExpenseDeleted = "expense:deleted"
	EventFormOpened     = "form:opened"
	EventFormClosed     = "form:closed"
	EventNotification   = "show-notification"
)

func (b *HTMXResponseBuilder) TriggerExpenseCreated(id int) *HTMXResponseBuilder {
	return b.Trigger(EventExpenseCreated, map[string]int{"id": id})
}

func (b *HTMXResponseBuilder) TriggerExpenseUpdated(id int) *HTMXResponseBuilder {
	return b.Trigger(EventExpenseUpdated, map[string]int{"id": id})
}

func (b *HTMXResponseBuilder) TriggerExpenseDeleted(id int) *HTMXResponseBuilder {
	return b.Trigger(EventExpenseDeleted, map[string]int{"id": id})
}

// TriggerFormOpened reports the modal mode ("add" or "edit").
func (b *HTMXResponseBuilder) TriggerFormOpened(mode string) *HTMXResponseBuilder {
	return b.Trigger(EventFormOpened, map[string]string{"mode": mode})
}

func (b *HTMXResponseBuilder) TriggerFormClosed() *HTMXResponseBuilder {
	return b.Trigger(EventFormClosed, struct{}{})
}

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
)

// TriggerNotification shows a toast for durationMs.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]interface{}{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

// BodyHTML sets an HTML body.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

// Write sends the response.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse wraps an escaped message in an error div.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML([]byte(`<div class="error">` + escapedMsg + `</div>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}
