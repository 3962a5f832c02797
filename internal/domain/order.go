package domain

import (
	"time"
)

// ClientData is the personally identifying block of an order. It is stored
// obfuscated inside the persisted draft and decoded only on load.
type ClientData struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// OrderItem is a single cart line.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// LineTotal returns the item's contribution to the order total.
func (i OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// DraftOrder is the client-held, not-yet-submitted order being assembled
// during checkout. At most one draft exists in persistent storage; saving
// replaces it wholesale.
type DraftOrder struct {
	ID            string      `json:"id"`
	ClientData    ClientData  `json:"client_data"`
	Items         []OrderItem `json:"items"`
	PaymentMethod string      `json:"payment_method"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	LastModified  time.Time   `json:"last_modified"`
}

// OrderData is the caller-supplied input to an order submission. When
// ClientID is empty and ClientData carries a name, a client record is
// created as part of the submission.
type OrderData struct {
	ClientID        string      `json:"client_id,omitempty"`
	ClientData      ClientData  `json:"client_data"`
	Items           []OrderItem `json:"items"`
	PaymentMethod   string      `json:"payment_method"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

// Total computes the order value from its items.
func (o *OrderData) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return total
}

// SubmitResult is the structured outcome of an order submission. Failures
// are always reported here, never as errors past the controller boundary.
type SubmitResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Error   string `json:"error,omitempty"`
}
