package api

import (
	"encoding/json"
	"net/http"

	"github.com/catalogo-app/checkout-go/internal/checkout"
	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CheckoutHandler exposes the checkout controller over HTTP.
type CheckoutHandler struct {
	ctrl *checkout.Controller
}

// NewCheckoutHandler creates a handler around the controller.
func NewCheckoutHandler(ctrl *checkout.Controller) *CheckoutHandler {
	return &CheckoutHandler{ctrl: ctrl}
}

// RegisterRoutes mounts the checkout API.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Post("/session/validate", h.ValidateSession)
		r.Post("/session/refresh", h.RefreshSession)
		r.Post("/session/logout", h.Logout)
		r.Get("/draft", h.GetDraft)
		r.Put("/draft", h.SaveDraft)
		r.Delete("/draft", h.ClearDraft)
		r.Post("/orders", h.SubmitOrder)
		r.Get("/security-logs", h.GetSecurityLogs)
	})
}

// GetState returns the controller's read-only snapshot.
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.ctrl.State())
}

// ValidateSession checks the current credential against the identity
// provider.
func (h *CheckoutHandler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	valid := h.ctrl.ValidateSession(r.Context())
	JSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// RefreshSession obtains a fresh credential.
func (h *CheckoutHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	refreshed := h.ctrl.RefreshSession(r.Context())
	JSON(w, http.StatusOK, map[string]bool{"refreshed": refreshed})
}

// Logout clears auth state, the draft and both persisted keys.
func (h *CheckoutHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Logout()
	JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// GetDraft loads the persisted draft order.
func (h *CheckoutHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft := h.ctrl.LoadDraftOrder()
	if draft == nil {
		Error(w, http.StatusNotFound, "no draft order")
		return
	}
	JSON(w, http.StatusOK, draft)
}

// SaveDraft replaces the persisted draft with the request body.
func (h *CheckoutHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var in checkout.DraftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Error(w, http.StatusBadRequest, "invalid draft payload")
		return
	}
	draft := h.ctrl.SaveDraftOrder(in)
	JSON(w, http.StatusOK, draft)
}

// ClearDraft deletes the persisted draft.
func (h *CheckoutHandler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearDraftOrder()
	JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// SubmitOrder drives the resilient order submission. The structured result
// always carries the outcome; the status code mirrors it for convenience.
func (h *CheckoutHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var order domain.OrderData
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		Error(w, http.StatusBadRequest, "invalid order payload")
		return
	}

	result := h.ctrl.SubmitOrder(r.Context(), order)
	switch {
	case result.Success:
		JSON(w, http.StatusOK, result)
	case result.Error == checkout.ErrSessionInvalid.Error():
		JSON(w, http.StatusUnauthorized, result)
	default:
		JSON(w, http.StatusBadGateway, result)
	}
}

// GetSecurityLogs returns the audit trail snapshot.
func (h *CheckoutHandler) GetSecurityLogs(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.ctrl.GetSecurityLogs())
}
