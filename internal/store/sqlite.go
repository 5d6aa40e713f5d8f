// Package store provides storage backends for the sennacar backend.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sennacar/sennacar/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: creating SQLite store", "DSN_set", cfg.SQLiteDSN != "")
	dsn := cfg.SQLiteDSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateClient(c models.Client) (models.Client, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM clients WHERE lower(email) = lower(?) OR phone = ?)`, c.Email, c.Phone).Scan(&exists)
	if err != nil {
		slog.Error("SQLiteStore CreateClient duplicate check failed", "error", err)
		return models.Client{}, fmt.Errorf("failed to check client duplicates: %w", err)
	}
	if exists {
		return models.Client{}, models.ErrDuplicateClient
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err = s.db.Exec(`INSERT INTO clients (id, name, email, phone, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateClient failed", "error", err, "email", c.Email)
		return models.Client{}, fmt.Errorf("failed to insert client: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) GetClient(id string) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRow(`SELECT id, name, email, phone, notes, created_at, updated_at FROM clients WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) GetClientByPhone(phone string) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRow(`SELECT id, name, email, phone, notes, created_at, updated_at FROM clients WHERE phone = ?`, phone))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by phone: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) GetClientByEmail(email string) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRow(`SELECT id, name, email, phone, notes, created_at, updated_at FROM clients WHERE lower(email) = lower(?)`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) ListClients() ([]models.Client, error) {
	rows, err := s.db.Query(`SELECT id, name, email, phone, notes, created_at, updated_at FROM clients ORDER BY name`)
	if err != nil {
		slog.Error("SQLiteStore ListClients query failed", "error", err)
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()
	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate client rows: %w", err)
	}
	return clients, nil
}

func (s *SQLiteStore) UpdateClient(c models.Client) error {
	res, err := s.db.Exec(`UPDATE clients SET name = ?, email = ?, phone = ?, notes = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Email, c.Phone, c.Notes, time.Now().UTC(), c.ID)
	if err != nil {
		slog.Error("SQLiteStore UpdateClient failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to update client: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) DeleteClient(id string) error {
	res, err := s.db.Exec(`DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) CreateEmployee(e models.Employee) (models.Employee, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM employees WHERE lower(email) = lower(?))`, e.Email).Scan(&exists)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to check employee duplicates: %w", err)
	}
	if exists {
		return models.Employee{}, models.ErrDuplicateEmployee
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()
	_, err = s.db.Exec(`INSERT INTO employees (id, name, email, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Email, e.PasswordHash, e.IsAdmin, e.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateEmployee failed", "error", err, "email", e.Email)
		return models.Employee{}, fmt.Errorf("failed to insert employee: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) GetEmployee(id string) (*models.Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(`SELECT id, name, email, password_hash, is_admin, created_at FROM employees WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) GetEmployeeByEmail(email string) (*models.Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(`SELECT id, name, email, password_hash, is_admin, created_at FROM employees WHERE lower(email) = lower(?)`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by email: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) ListEmployees() ([]models.Employee, error) {
	rows, err := s.db.Query(`SELECT id, name, email, password_hash, is_admin, created_at FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()
	var employees []models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee row: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employee rows: %w", err)
	}
	return employees, nil
}

func (s *SQLiteStore) UpdateEmployee(e models.Employee) error {
	res, err := s.db.Exec(`UPDATE employees SET name = ?, email = ?, password_hash = ?, is_admin = ? WHERE id = ?`,
		e.Name, e.Email, e.PasswordHash, e.IsAdmin, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) DeleteEmployee(id string) error {
	res, err := s.db.Exec(`DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) CreateProduct(p models.Product) (models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO products (id, name, description, category, brand, price, labor_price) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Category, p.Brand, p.Price, p.LaborPrice)
	if err != nil {
		slog.Error("SQLiteStore CreateProduct failed", "error", err, "name", p.Name)
		return models.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetProduct(id string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(`SELECT id, name, description, category, brand, price, labor_price FROM products WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProducts() ([]models.Product, error) {
	return s.queryProducts(`SELECT id, name, description, category, brand, price, labor_price FROM products ORDER BY name`)
}

func (s *SQLiteStore) ListProductsByCategory(category string) ([]models.Product, error) {
	return s.queryProducts(`SELECT id, name, description, category, brand, price, labor_price FROM products WHERE lower(category) = lower(?) ORDER BY name`, category)
}

func (s *SQLiteStore) queryProducts(query string, args ...interface{}) ([]models.Product, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore product query failed", "error", err)
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()
	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}
	return products, nil
}

func (s *SQLiteStore) UpdateProduct(p models.Product) error {
	res, err := s.db.Exec(`UPDATE products SET name = ?, description = ?, category = ?, brand = ?, price = ?, labor_price = ? WHERE id = ?`,
		p.Name, p.Description, p.Category, p.Brand, p.Price, p.LaborPrice, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) DeleteProduct(id string) error {
	res, err := s.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) CreateCategory(c models.Category) (models.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO categories (id, name, description) VALUES (?, ?, ?)`, c.ID, c.Name, c.Description)
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to insert category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListCategories() ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()
	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}
	return categories, nil
}

func (s *SQLiteStore) DeleteCategory(id string) error {
	res, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) CreateBrand(b models.Brand) (models.Brand, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO brands (id, name) VALUES (?, ?)`, b.ID, b.Name)
	if err != nil {
		return models.Brand{}, fmt.Errorf("failed to insert brand: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) ListBrands() ([]models.Brand, error) {
	rows, err := s.db.Query(`SELECT id, name FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()
	var brands []models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan brand row: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brand rows: %w", err)
	}
	return brands, nil
}

func (s *SQLiteStore) DeleteBrand(id string) error {
	res, err := s.db.Exec(`DELETE FROM brands WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) CreateAppointment(a models.Appointment) (models.Appointment, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM appointments WHERE scheduled_at = ? AND status IN (?, ?))`,
		a.ScheduledAt.UTC(), models.AppointmentPending, models.AppointmentConfirmed).Scan(&exists)
	if err != nil {
		slog.Error("SQLiteStore CreateAppointment slot check failed", "error", err)
		return models.Appointment{}, fmt.Errorf("failed to check appointment slot: %w", err)
	}
	if exists {
		return models.Appointment{}, models.ErrSlotTaken
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.AppointmentPending
	}
	a.CreatedAt = time.Now().UTC()
	rawIDs, err := marshalIDs(a.ProductIDs)
	if err != nil {
		return models.Appointment{}, err
	}
	_, err = s.db.Exec(`INSERT INTO appointments (id, client_id, product_ids, scheduled_at, total, status, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClientID, rawIDs, a.ScheduledAt.UTC(), a.Total, a.Status, a.Notes, a.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateAppointment failed", "error", err, "client_id", a.ClientID)
		return models.Appointment{}, fmt.Errorf("failed to insert appointment: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) GetAppointment(id string) (*models.Appointment, error) {
	a, err := scanAppointment(s.db.QueryRow(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) ListAppointments() ([]models.Appointment, error) {
	return s.queryAppointments(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments ORDER BY scheduled_at`)
}

func (s *SQLiteStore) ListAppointmentsByClient(clientID string) ([]models.Appointment, error) {
	return s.queryAppointments(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments WHERE client_id = ? ORDER BY scheduled_at`, clientID)
}

// FindAppointmentsByDateRange returns appointments with start <= t < end,
// optionally filtered by status ("" matches any status).
func (s *SQLiteStore) FindAppointmentsByDateRange(start, end time.Time, status models.AppointmentStatus) ([]models.Appointment, error) {
	if status != "" {
		return s.queryAppointments(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments WHERE scheduled_at >= ? AND scheduled_at < ? AND status = ? ORDER BY scheduled_at`,
			start.UTC(), end.UTC(), status)
	}
	return s.queryAppointments(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments WHERE scheduled_at >= ? AND scheduled_at < ? ORDER BY scheduled_at`,
		start.UTC(), end.UTC())
}

func (s *SQLiteStore) queryAppointments(query string, args ...interface{}) ([]models.Appointment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore appointment query failed", "error", err)
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()
	var appointments []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment row: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointment rows: %w", err)
	}
	return appointments, nil
}

func (s *SQLiteStore) UpdateAppointmentStatus(id string, status models.AppointmentStatus) error {
	res, err := s.db.Exec(`UPDATE appointments SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		slog.Error("SQLiteStore UpdateAppointmentStatus failed", "error", err, "id", id)
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) UpdateAppointmentProducts(id string, productIDs []string, total float64) error {
	rawIDs, err := marshalIDs(productIDs)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE appointments SET product_ids = ?, total = ? WHERE id = ?`, rawIDs, total, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment products: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) DeleteAppointment(id string) error {
	res, err := s.db.Exec(`DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return requireRowAffected(res)
}

func (s *SQLiteStore) GetSession(id string) (*models.ChatSession, error) {
	var raw string
	err := s.db.QueryRow(`SELECT data FROM chat_sessions WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return unmarshalSession(raw)
}

func (s *SQLiteStore) SaveSession(sess *models.ChatSession) error {
	sess.UpdatedAt = time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}
	raw, err := marshalSession(sess)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO chat_sessions (id, state, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET state = excluded.state, data = excluded.data, updated_at = excluded.updated_at`,
		sess.ID, string(sess.State), raw, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "id", sess.ID)
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
