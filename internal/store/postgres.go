// Package store provides storage backends for the sennacar backend.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/sennacar/sennacar/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.PostgresDSN != "")
	dsn := cfg.PostgresDSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateClient(c models.Client) (models.Client, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM clients WHERE lower(email) = lower($1) OR phone = $2)`, c.Email, c.Phone).Scan(&exists)
	if err != nil {
		slog.Error("PostgresStore CreateClient duplicate check failed", "error", err)
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
	_, err = s.db.Exec(`INSERT INTO clients (id, name, email, phone, notes, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Email, c.Phone, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateClient failed", "error", err, "email", c.Email)
		return models.Client{}, fmt.Errorf("failed to insert client: %w", err)
	}
	slog.Debug("PostgresStore CreateClient succeeded", "id", c.ID)
	return c, nil
}

func (s *PostgresStore) GetClient(id string) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRow(`SELECT id, name, email, phone, notes, created_at, updated_at FROM clients WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetClient failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) GetClientByPhone(phone string) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRow(`SELECT id, name, email, phone, notes, created_at, updated_at FROM clients WHERE phone = $1`, phone))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetClientByPhone failed", "error", err)
		return nil, fmt.Errorf("failed to get client by phone: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) GetClientByEmail(email string) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRow(`SELECT id, name, email, phone, notes, created_at, updated_at FROM clients WHERE lower(email) = lower($1)`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetClientByEmail failed", "error", err)
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListClients() ([]models.Client, error) {
	rows, err := s.db.Query(`SELECT id, name, email, phone, notes, created_at, updated_at FROM clients ORDER BY name`)
	if err != nil {
		slog.Error("PostgresStore ListClients query failed", "error", err)
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

func (s *PostgresStore) UpdateClient(c models.Client) error {
	res, err := s.db.Exec(`UPDATE clients SET name = $1, email = $2, phone = $3, notes = $4, updated_at = $5 WHERE id = $6`,
		c.Name, c.Email, c.Phone, c.Notes, time.Now().UTC(), c.ID)
	if err != nil {
		slog.Error("PostgresStore UpdateClient failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to update client: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) DeleteClient(id string) error {
	res, err := s.db.Exec(`DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		slog.Error("PostgresStore DeleteClient failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) CreateEmployee(e models.Employee) (models.Employee, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM employees WHERE lower(email) = lower($1))`, e.Email).Scan(&exists)
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
	_, err = s.db.Exec(`INSERT INTO employees (id, name, email, password_hash, is_admin, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, e.Email, e.PasswordHash, e.IsAdmin, e.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateEmployee failed", "error", err, "email", e.Email)
		return models.Employee{}, fmt.Errorf("failed to insert employee: %w", err)
	}
	slog.Debug("PostgresStore CreateEmployee succeeded", "id", e.ID)
	return e, nil
}

func (s *PostgresStore) GetEmployee(id string) (*models.Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(`SELECT id, name, email, password_hash, is_admin, created_at FROM employees WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) GetEmployeeByEmail(email string) (*models.Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(`SELECT id, name, email, password_hash, is_admin, created_at FROM employees WHERE lower(email) = lower($1)`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by email: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListEmployees() ([]models.Employee, error) {
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

func (s *PostgresStore) UpdateEmployee(e models.Employee) error {
	res, err := s.db.Exec(`UPDATE employees SET name = $1, email = $2, password_hash = $3, is_admin = $4 WHERE id = $5`,
		e.Name, e.Email, e.PasswordHash, e.IsAdmin, e.ID)
	if err != nil {
		slog.Error("PostgresStore UpdateEmployee failed", "error", err, "id", e.ID)
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) DeleteEmployee(id string) error {
	res, err := s.db.Exec(`DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) CreateProduct(p models.Product) (models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO products (id, name, description, category, brand, price, labor_price) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Description, p.Category, p.Brand, p.Price, p.LaborPrice)
	if err != nil {
		slog.Error("PostgresStore CreateProduct failed", "error", err, "name", p.Name)
		return models.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetProduct(id string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(`SELECT id, name, description, category, brand, price, labor_price FROM products WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListProducts() ([]models.Product, error) {
	return s.queryProducts(`SELECT id, name, description, category, brand, price, labor_price FROM products ORDER BY name`)
}

func (s *PostgresStore) ListProductsByCategory(category string) ([]models.Product, error) {
	return s.queryProducts(`SELECT id, name, description, category, brand, price, labor_price FROM products WHERE lower(category) = lower($1) ORDER BY name`, category)
}

func (s *PostgresStore) queryProducts(query string, args ...interface{}) ([]models.Product, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore product query failed", "error", err)
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

func (s *PostgresStore) UpdateProduct(p models.Product) error {
	res, err := s.db.Exec(`UPDATE products SET name = $1, description = $2, category = $3, brand = $4, price = $5, labor_price = $6 WHERE id = $7`,
		p.Name, p.Description, p.Category, p.Brand, p.Price, p.LaborPrice, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) DeleteProduct(id string) error {
	res, err := s.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) CreateCategory(c models.Category) (models.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO categories (id, name, description) VALUES ($1, $2, $3)`, c.ID, c.Name, c.Description)
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to insert category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCategories() ([]models.Category, error) {
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

func (s *PostgresStore) DeleteCategory(id string) error {
	res, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) CreateBrand(b models.Brand) (models.Brand, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO brands (id, name) VALUES ($1, $2)`, b.ID, b.Name)
	if err != nil {
		return models.Brand{}, fmt.Errorf("failed to insert brand: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListBrands() ([]models.Brand, error) {
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

func (s *PostgresStore) DeleteBrand(id string) error {
	res, err := s.db.Exec(`DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) CreateAppointment(a models.Appointment) (models.Appointment, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM appointments WHERE scheduled_at = $1 AND status IN ($2, $3))`,
		a.ScheduledAt.UTC(), models.AppointmentPending, models.AppointmentConfirmed).Scan(&exists)
	if err != nil {
		slog.Error("PostgresStore CreateAppointment slot check failed", "error", err)
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
	_, err = s.db.Exec(`INSERT INTO appointments (id, client_id, product_ids, scheduled_at, total, status, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ClientID, rawIDs, a.ScheduledAt.UTC(), a.Total, a.Status, a.Notes, a.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateAppointment failed", "error", err, "client_id", a.ClientID)
		return models.Appointment{}, fmt.Errorf("failed to insert appointment: %w", err)
	}
	slog.Debug("PostgresStore CreateAppointment succeeded", "id", a.ID, "scheduled_at", a.ScheduledAt)
	return a, nil
}

func (s *PostgresStore) GetAppointment(id string) (*models.Appointment, error) {
	a, err := scanAppointment(s.db.QueryRow(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListAppointments() ([]models.Appointment, error) {
	return s.queryAppointments(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments ORDER BY scheduled_at`)
}

func (s *PostgresStore) ListAppointmentsByClient(clientID string) ([]models.Appointment, error) {
	return s.queryAppointments(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments WHERE client_id = $1 ORDER BY scheduled_at`, clientID)
}

// FindAppointmentsByDateRange returns appointments with start <= t < end,
// optionally filtered by status ("" matches any status).
func (s *PostgresStore) FindAppointmentsByDateRange(start, end time.Time, status models.AppointmentStatus) ([]models.Appointment, error) {
	if status != "" {
		return s.queryAppointments(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status = $3 ORDER BY scheduled_at`,
			start.UTC(), end.UTC(), status)
	}
	return s.queryAppointments(`SELECT id, client_id, product_ids, scheduled_at, total, status, notes, created_at FROM appointments WHERE scheduled_at >= $1 AND scheduled_at < $2 ORDER BY scheduled_at`,
		start.UTC(), end.UTC())
}

func (s *PostgresStore) queryAppointments(query string, args ...interface{}) ([]models.Appointment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore appointment query failed", "error", err)
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

func (s *PostgresStore) UpdateAppointmentStatus(id string, status models.AppointmentStatus) error {
	res, err := s.db.Exec(`UPDATE appointments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		slog.Error("PostgresStore UpdateAppointmentStatus failed", "error", err, "id", id)
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) UpdateAppointmentProducts(id string, productIDs []string, total float64) error {
	rawIDs, err := marshalIDs(productIDs)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE appointments SET product_ids = $1, total = $2 WHERE id = $3`, rawIDs, total, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment products: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) DeleteAppointment(id string) error {
	res, err := s.db.Exec(`DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) GetSession(id string) (*models.ChatSession, error) {
	var raw string
	err := s.db.QueryRow(`SELECT data FROM chat_sessions WHERE id = $1`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return unmarshalSession(raw)
}

func (s *PostgresStore) SaveSession(sess *models.ChatSession) error {
	sess.UpdatedAt = time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}
	raw, err := marshalSession(sess)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO chat_sessions (id, state, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		sess.ID, string(sess.State), raw, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "id", sess.ID)
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
