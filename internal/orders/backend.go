// Package orders persists submitted orders: client records, order headers
// and their line items.
package orders

import (
	"context"
)

// Order lifecycle and type labels written by the submission flow.
const (
	StatusPending = "Pendente"
	TypeCatalog   = "catalog"
)

// ClientRecord is the input to InsertClient.
type ClientRecord struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

// OrderRecord is the input to InsertOrder.
type OrderRecord struct {
	UserID          string
	ClientID        string
	Status          string
	TotalValue      float64
	OrderType       string
	DeliveryAddress string
	PaymentMethod   string
	Notes           string
}

// ItemRecord is one line item of an already created order.
type ItemRecord struct {
	OrderID    string
	ProductID  string
	Quantity   int
	UnitPrice  float64
	TotalPrice float64
}

// Backend is the order persistence backend consumed by the checkout
// controller. The three calls of one submission attempt are sequential and
// NOT wrapped in a transaction: a failure between InsertOrder and
// InsertOrderItems leaves an order with no items, and the retrying caller
// will create a second order header. That gap is part of the contract.
type Backend interface {
	// InsertClient creates a client record and returns its id.
	InsertClient(ctx context.Context, rec ClientRecord) (string, error)

	// InsertOrder creates an order header and returns its id.
	InsertOrder(ctx context.Context, rec OrderRecord) (string, error)

	// InsertOrderItems inserts the batch of line items.
	InsertOrderItems(ctx context.Context, items []ItemRecord) error
}
