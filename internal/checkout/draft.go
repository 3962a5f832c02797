package checkout

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/catalogo-app/checkout-go/internal/kvstore"
	"github.com/google/uuid"
)

// DraftInput is the caller-supplied portion of a draft order; the
// controller stamps id and timestamps.
type DraftInput struct {
	ClientData    domain.ClientData  `json:"client_data"`
	Items         []domain.OrderItem `json:"items"`
	PaymentMethod string             `json:"payment_method"`
	Notes         string             `json:"notes,omitempty"`
}

// storedDraft is the persisted shape: identical to domain.DraftOrder except
// that ClientData is the obfuscated string.
type storedDraft struct {
	ID            string             `json:"id"`
	ClientData    string             `json:"client_data"`
	Items         []domain.OrderItem `json:"items"`
	PaymentMethod string             `json:"payment_method"`
	Notes         string             `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	LastModified  time.Time          `json:"last_modified"`
}

// SaveDraftOrder stamps and persists a draft, replacing any existing one
// unconditionally. The returned draft is also held in memory.
func (c *Controller) SaveDraftOrder(in DraftInput) *domain.DraftOrder {
	now := c.now()
	draft := &domain.DraftOrder{
		ID:            "draft_" + uuid.NewString(),
		ClientData:    in.ClientData,
		Items:         in.Items,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		CreatedAt:     now,
		LastModified:  now,
	}

	stored := storedDraft{
		ID:            draft.ID,
		ClientData:    c.privacy.EncryptSensitiveData(draft.ClientData),
		Items:         draft.Items,
		PaymentMethod: draft.PaymentMethod,
		Notes:         draft.Notes,
		CreatedAt:     draft.CreatedAt,
		LastModified:  draft.LastModified,
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		c.logger.Warn("failed to encode draft order", "error", err)
	} else if err := c.kv.Set(DraftStorageKey, string(raw)); err != nil {
		c.logger.Warn("failed to persist draft order", "error", err)
	}

	c.mu.Lock()
	c.draft = draft
	c.mu.Unlock()

	result := *draft
	return &result
}

// LoadDraftOrder reads the persisted draft and decodes its client data. It
// fails soft: a missing key or a parse/decode failure logs the failure and
// returns nil, never an error.
func (c *Controller) LoadDraftOrder() *domain.DraftOrder {
	raw, err := c.kv.Get(DraftStorageKey)
	if err != nil {
		details := "no draft found"
		if !errors.Is(err, kvstore.ErrNotFound) {
			details = err.Error()
		}
		c.audit.Append("draft_load", false, details)
		return nil
	}

	var stored storedDraft
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		c.audit.Append("draft_load", false, "corrupt draft: "+err.Error())
		return nil
	}

	clientData, err := c.privacy.DecryptSensitiveData(stored.ClientData)
	if err != nil {
		c.audit.Append("draft_load", false, "undecodable client data: "+err.Error())
		return nil
	}

	draft := &domain.DraftOrder{
		ID:            stored.ID,
		ClientData:    clientData,
		Items:         stored.Items,
		PaymentMethod: stored.PaymentMethod,
		Notes:         stored.Notes,
		CreatedAt:     stored.CreatedAt,
		LastModified:  stored.LastModified,
	}

	c.mu.Lock()
	c.draft = draft
	c.mu.Unlock()

	result := *draft
	return &result
}

// ClearDraftOrder deletes the persisted draft, resets the in-memory draft
// and logs the event.
func (c *Controller) ClearDraftOrder() {
	if err := c.kv.Remove(DraftStorageKey); err != nil {
		c.logger.Warn("failed to remove persisted draft", "error", err)
	}

	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()

	c.audit.Append("draft_cleared", true, "")
}
