package http

import (
	"bytes"
	"net/http"

	"chitieu/internal/core"
	applog "chitieu/internal/log"
)

// handleCreateTransaction accepts a form (htmx) or JSON body with date,
// category, amount and note.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Unreadable transaction body", applog.FieldError, err)
		s.writeFailure(w, p.IsJSON(), http.StatusBadRequest, msgBadRequest)
		return
	}

	tx, err := ParseTransaction(p.Get, s.today())
	if err != nil {
		status, msg := statusForError(err)
		s.writeFailure(w, p.IsJSON(), status, msg)
		return
	}

	cats, err := s.store.Categories(ctx)
	if err != nil {
		s.logError(ctx, "Failed to load categories", err, applog.OpRead)
		status, msg := statusForError(err)
		s.writeFailure(w, p.IsJSON(), status, msg)
		return
	}
	if err := tx.Validate(cats); err != nil {
		status, msg := statusForError(err)
		s.writeFailure(w, p.IsJSON(), status, msg)
		return
	}

	ref, err := s.store.Append(ctx, tx)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			msg = msgSaveFailed
		}
		fields := applog.NewFields().WithTransaction(tx)
		applog.NewStructuredLogger(logger).LogError(ctx, "Transaction append failed", err, applog.OpAppend, fields)
		s.writeFailure(w, p.IsJSON(), status, msg)
		return
	}
	s.snapshots.Invalidate()
	applog.NewStructuredLogger(logger).LogTransactionCreated(ctx, tx, ref)

	if p.IsJSON() {
		writeJSON(w, http.StatusCreated, struct {
			Ref         string           `json:"ref"`
			Transaction core.Transaction `json:"transaction"`
		}{ref, tx})
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "transaction_created", struct {
		Ref string
		Tx  core.Transaction
		Msg string
	}{ref, tx, msgSaved}); err != nil {
		s.logError(ctx, "Transaction template execution failed", err, applog.OpRender)
		buf.Reset()
		buf.WriteString(`<div class="success">` + msgSaved + `</div>`)
	}
	NewHTMXResponse().
		TriggerTransactionCreated(tx).
		TriggerFormReset().
		TriggerSuccessNotification(msgSaved).
		BodyHTML(buf.String()).
		Write(w)
}

func (s *Server) writeFailure(w http.ResponseWriter, asJSON bool, status int, msg string) {
	if asJSON {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}
