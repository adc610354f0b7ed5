package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"splitter/internal/core"
	"splitter/internal/log"
	"splitter/internal/services"
)

type participantsResponse struct {
	Participants []string `json:"participants"`
}

type expensesResponse struct {
	Expenses []core.Expense `json:"expenses"`
}

type expenseResponse struct {
	Expense core.Expense `json:"expense"`
}

type balancesResponse struct {
	Currency string                 `json:"currency"`
	Balances []services.BalanceLine `json:"balances"`
}

type notificationResult struct {
	Participant string `json:"participant"`
	Message     string `json:"message"`
	Delivered   bool   `json:"delivered"`
	Error       string `json:"error,omitempty"`
}

type notifyResponse struct {
	Delivered int                  `json:"delivered"`
	Failed    int                  `json:"failed"`
	Results   []notificationResult `json:"results"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}, false)
}

// handleReady fails until the templates are available.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"templates":    "ok",
		"rate_limiter": map[string]int{"active_clients": s.limiter.ActiveClients()},
	}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{"status": status, "checks": checks}, false)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html")
}

func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "ledger.html")
}

// render executes a template into a buffer so a failure can still produce a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	if s.templates == nil {
		log.FromContext(ctx).ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, s.ledger.Snapshot(ctx)); err != nil {
		log.FromContext(ctx).LogError(ctx, "Template execution failed", err, log.OpRender, "template", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, participantsResponse{
		Participants: nonNil(s.ledger.Participants(r.Context())),
	}, false)
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		respondLedgerError(w, r, err)
		return
	}

	name := p.Get("name")
	if err := s.ledger.AddParticipant(r.Context(), name); err != nil {
		respondLedgerError(w, r, err)
		return
	}

	NewReply(http.StatusCreated).
		LedgerChanged().
		Toast(ToastSuccess, fmt.Sprintf("%s joined the group", name)).
		JSON(participantsResponse{Participants: nonNil(s.ledger.Participants(r.Context()))}).
		Send(w)
}

func (s *Server) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.PathValue("name"))
	if err := s.ledger.RemoveParticipant(r.Context(), name); err != nil {
		respondLedgerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, participantsResponse{
		Participants: nonNil(s.ledger.Participants(r.Context())),
	}, true)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, expensesResponse{
		Expenses: nonNil(s.ledger.Expenses(r.Context())),
	}, false)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		respondLedgerError(w, r, err)
		return
	}

	amount, err := p.Amount("amount")
	if err != nil {
		respondLedgerError(w, r, err)
		return
	}
	e, err := s.ledger.AddExpense(r.Context(), p.Get("description"), amount, p.Get("payer"))
	if err != nil {
		respondLedgerError(w, r, err)
		return
	}

	NewReply(http.StatusCreated).
		LedgerChanged().
		Toast(ToastSuccess, fmt.Sprintf("Recorded %s paid by %s", e.Description, e.Payer)).
		JSON(expenseResponse{Expense: e}).
		Send(w)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	s.ledger.ClearExpenses(r.Context())
	respondJSON(w, http.StatusOK, expensesResponse{Expenses: []core.Expense{}}, true)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot(r.Context())
	respondJSON(w, http.StatusOK, balancesResponse{
		Currency: snap.Currency,
		Balances: nonNil(snap.Balances),
	}, false)
}

// handleNotify always answers 200 with the per-participant report; a failed
// delivery is data, not a request error.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	report := s.ledger.NotifyBalances(r.Context())

	body := notifyResponse{
		Delivered: report.Delivered,
		Failed:    report.Failed,
		Results:   make([]notificationResult, len(report.Results)),
	}
	for i, res := range report.Results {
		body.Results[i] = notificationResult{
			Participant: res.Participant,
			Message:     res.Message,
			Delivered:   res.Err == nil,
		}
		if res.Err != nil {
			body.Results[i].Error = res.Err.Error()
		}
	}

	reply := NewReply(http.StatusOK).JSON(body)
	switch {
	case len(report.Results) == 0:
		reply.Toast(ToastInfo, "Nobody to notify")
	case report.Failed > 0:
		reply.Toast(ToastWarning, fmt.Sprintf("%d of %d reminders failed", report.Failed, len(report.Results)))
	default:
		reply.Toast(ToastSuccess, fmt.Sprintf("Sent %d reminders", report.Delivered))
	}
	reply.Send(w)
}
