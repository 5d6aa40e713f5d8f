// Package store provides storage backends for the sennacar backend.
//
// It includes PostgreSQL, SQLite and in-memory implementations of the
// Store interface. The backend is selected from the DSN at startup.
package store

import (
	"strings"
	"time"

	"github.com/sennacar/sennacar/internal/models"
)

// Store is the persistence contract used by the API and the chatbot.
type Store interface {
	// Clients
	CreateClient(c models.Client) (models.Client, error)
	GetClient(id string) (*models.Client, error)
	GetClientByPhone(phone string) (*models.Client, error)
	GetClientByEmail(email string) (*models.Client, error)
	ListClients() ([]models.Client, error)
	UpdateClient(c models.Client) error
	DeleteClient(id string) error

	// Employees
	CreateEmployee(e models.Employee) (models.Employee, error)
	GetEmployee(id string) (*models.Employee, error)
	GetEmployeeByEmail(email string) (*models.Employee, error)
	ListEmployees() ([]models.Employee, error)
	UpdateEmployee(e models.Employee) error
	DeleteEmployee(id string) error

	// Products
	CreateProduct(p models.Product) (models.Product, error)
	GetProduct(id string) (*models.Product, error)
	ListProducts() ([]models.Product, error)
	ListProductsByCategory(category string) ([]models.Product, error)
	UpdateProduct(p models.Product) error
	DeleteProduct(id string) error

	// Categories and brands
	CreateCategory(c models.Category) (models.Category, error)
	ListCategories() ([]models.Category, error)
	DeleteCategory(id string) error
	CreateBrand(b models.Brand) (models.Brand, error)
	ListBrands() ([]models.Brand, error)
	DeleteBrand(id string) error

	// Appointments. CreateAppointment enforces the double-booking guard:
	// it returns models.ErrSlotTaken when another appointment with a
	// blocking status exists at the exact same timestamp.
	CreateAppointment(a models.Appointment) (models.Appointment, error)
	GetAppointment(id string) (*models.Appointment, error)
	ListAppointments() ([]models.Appointment, error)
	ListAppointmentsByClient(clientID string) ([]models.Appointment, error)
	FindAppointmentsByDateRange(start, end time.Time, status models.AppointmentStatus) ([]models.Appointment, error)
	UpdateAppointmentStatus(id string, status models.AppointmentStatus) error
	UpdateAppointmentProducts(id string, productIDs []string, total float64) error
	DeleteAppointment(id string) error

	// Chat sessions
	GetSession(id string) (*models.ChatSession, error)
	SaveSession(s *models.ChatSession) error
	DeleteSession(id string) error

	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	// PostgresDSN is the PostgreSQL connection string.
	PostgresDSN string
	// SQLiteDSN is the path to the SQLite database file.
	SQLiteDSN string
}

// Option defines a configuration option for store construction.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.PostgresDSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.SQLiteDSN = dsn }
}

// DetectDSNType returns "postgres" for PostgreSQL-style connection
// strings and "sqlite3" otherwise (plain file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}
