package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/form"
	"expensetracker/internal/log"
	"expensetracker/internal/persist"
	"expensetracker/internal/store"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", NewHTMXResponse())
}

func (s *Server) handleTracker(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "tracker", NewHTMXResponse())
}

func (s *Server) handleFormNew(w http.ResponseWriter, r *http.Request) {
	s.form.Open(r.Context())
	s.render(w, r, "tracker", NewHTMXResponse().TriggerFormOpened(form.AddDraft.String()))
}

func (s *Server) handleFormCancel(w http.ResponseWriter, r *http.Request) {
	s.form.Cancel(r.Context())
	s.render(w, r, "tracker", NewHTMXResponse().TriggerFormClosed())
}

// handleFormField accepts either field=<name>&value=<text> or the inputs
// themselves (name=..., amount=..., date=...). It answers 204 since the
// inputs keep their own state in the page.
func (s *Server) handleFormField(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request body").Write(w)
		return
	}

	if err := s.applyFields(p); err != nil {
		if errors.Is(err, form.ErrUnknownField) {
			BadRequestError(err.Error()).Write(w)
			return
		}
		// ErrClosed: typing into a modal that was closed elsewhere is a no-op
		log.FromContext(r.Context()).DebugContext(r.Context(), "Field update ignored", log.FieldError, err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFormCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request body").Write(w)
		return
	}
	// the submitted form carries the latest input values
	if err := s.applyFields(p); err != nil && errors.Is(err, form.ErrUnknownField) {
		BadRequestError(err.Error()).Write(w)
		return
	}

	res, err := s.form.Commit(ctx)
	if errors.Is(err, form.ErrClosed) {
		s.render(w, r, "tracker", NewHTMXResponse())
		return
	}
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Commit failed", log.FieldError, err)
		InternalServerError("Could not save the expense").Write(w)
		return
	}

	b := NewHTMXResponse().TriggerFormClosed()
	switch {
	case res.Op == store.OpAdd:
		b.TriggerExpenseCreated(res.Expense.ID).TriggerSuccessNotification("Expense added")
	case res.Applied:
		b.TriggerExpenseUpdated(res.Expense.ID).TriggerSuccessNotification("Expense updated")
	}
	if res.Applied && !res.Expense.Amount.IsValid() {
		// overrides the success toast; only one notification is shown
		b.TriggerNotification(NotificationWarning, "Amount is not a number and counts as zero", 5000)
	}
	s.render(w, r, "tracker", b)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b := NewHTMXResponse()
	if s.form.Edit(r.Context(), id) {
		b.TriggerFormOpened(form.EditDraft.String())
	}
	s.render(w, r, "tracker", b)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b := NewHTMXResponse()
	if s.store.Delete(r.Context(), id) {
		b.TriggerExpenseDeleted(id).TriggerSuccessNotification("Expense deleted")
	}
	s.render(w, r, "tracker", b)
}

type apiList struct {
	Expenses json.RawMessage `json:"expenses"`
	Total    string          `json:"total"`
	Count    int             `json:"count"`
	Invalid  int             `json:"invalid"`
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	items := s.store.List()
	raw, err := persist.Encode(items)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Encode expenses failed", log.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	view := newTrackerView(items, s.form.View())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(apiList{
		Expenses: raw,
		Total:    view.Total,
		Count:    view.Count,
		Invalid:  view.Invalid,
	})
}

// applyFields copies posted draft fields into the form controller.
func (s *Server) applyFields(p *RequestBodyParser) error {
	if field, ok := p.Lookup("field"); ok {
		return s.form.SetField(form.Field(field), p.Get("value"))
	}
	for _, f := range []form.Field{form.FieldName, form.FieldAmount, form.FieldDate} {
		if v, ok := p.Lookup(string(f)); ok {
			if err := s.form.SetField(f, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// render executes a template into a buffer so a failure can still produce
// a clean error response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, b *HTMXResponseBuilder) {
	view := newTrackerView(s.store.List(), s.form.View())

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, view); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name, log.FieldOperation, log.OpRender)
		InternalServerError("Could not render the page").Write(w)
		return
	}
	b.BodyHTML(buf.Bytes()).Write(w)
}
