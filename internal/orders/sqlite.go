package orders

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/catalogo-app/checkout-go/internal/shared"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteBackend implements Backend using SQLite.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed order store.
func NewSQLite(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	backend := &SQLiteBackend{db: db}
	if err := backend.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return backend, nil
}

func (s *SQLiteBackend) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_clients_user ON clients(user_id);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		client_id TEXT,
		status TEXT NOT NULL,
		total_value REAL NOT NULL,
		order_type TEXT NOT NULL,
		delivery_address TEXT,
		payment_method TEXT,
		notes TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

	CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price REAL NOT NULL,
		total_price REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertClient creates a client record and returns its id.
func (s *SQLiteBackend) InsertClient(ctx context.Context, rec ClientRecord) (string, error) {
	id := uuid.NewString()
	query := `
	INSERT INTO clients (id, user_id, name, email, phone, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	err := shared.RetryOnConflict(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query,
			id, rec.UserID, rec.Name, nullable(rec.Email), nullable(rec.Phone), time.Now().Unix())
		return execErr
	})
	if err != nil {
		return "", fmt.Errorf("insert client: %w", err)
	}
	return id, nil
}

// InsertOrder creates an order header and returns its id. No idempotency
// key is recorded; repeated calls create distinct orders.
func (s *SQLiteBackend) InsertOrder(ctx context.Context, rec OrderRecord) (string, error) {
	id := uuid.NewString()
	query := `
	INSERT INTO orders (id, user_id, client_id, status, total_value, order_type,
	                    delivery_address, payment_method, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := shared.RetryOnConflict(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query,
			id, rec.UserID, nullable(rec.ClientID), rec.Status, rec.TotalValue, rec.OrderType,
			nullable(rec.DeliveryAddress), nullable(rec.PaymentMethod), nullable(rec.Notes),
			time.Now().Unix())
		return execErr
	})
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

// InsertOrderItems inserts the batch of line items.
func (s *SQLiteBackend) InsertOrderItems(ctx context.Context, items []ItemRecord) error {
	if len(items) == 0 {
		return nil
	}

	query := `
	INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total_price)
	VALUES (?, ?, ?, ?, ?, ?)`

	for _, item := range items {
		item := item
		err := shared.RetryOnConflict(ctx, func() error {
			_, execErr := s.db.ExecContext(ctx, query,
				uuid.NewString(), item.OrderID, item.ProductID,
				item.Quantity, item.UnitPrice, item.TotalPrice)
			return execErr
		})
		if err != nil {
			return fmt.Errorf("insert order item for product %s: %w", item.ProductID, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
