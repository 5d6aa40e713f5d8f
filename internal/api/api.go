package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sennacar/sennacar/internal/auth"
	"github.com/sennacar/sennacar/internal/chatbot"
	"github.com/sennacar/sennacar/internal/store"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr   string
	Store  store.Store
	Engine *chatbot.Engine
	Auth   *auth.Service
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithStore sets the persistence backend (required).
func WithStore(s store.Store) Option {
	return func(o *Opts) { o.Store = s }
}

// WithEngine sets the chatbot dialogue engine (required).
func WithEngine(e *chatbot.Engine) Option {
	return func(o *Opts) { o.Engine = e }
}

// WithAuth sets the auth service (required).
func WithAuth(a *auth.Service) Option {
	return func(o *Opts) { o.Auth = a }
}

// Server holds the collaborators the HTTP handlers need.
type Server struct {
	addr   string
	store  store.Store
	engine *chatbot.Engine
	auth   *auth.Service
}

// NewServer creates an API server.
func NewServer(opts ...Option) (*Server, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store must be provided")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("chatbot engine must be provided")
	}
	if cfg.Auth == nil {
		return nil, fmt.Errorf("auth service must be provided")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{addr: cfg.Addr, store: cfg.Store, engine: cfg.Engine, auth: cfg.Auth}, nil
}

// Routes builds the request mux. Chatbot and health endpoints are
// public; everything else requires a valid token, and employee
// management additionally requires the admin claim.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/auth/login", s.loginHandler)

	mux.HandleFunc("/chatbot/message", s.chatbotMessageHandler)
	mux.HandleFunc("/chatbot/categoria/", s.chatbotCategoryHandler)

	mux.HandleFunc("/clientes", s.auth.Middleware(s.clientsHandler))
	mux.HandleFunc("/clientes/", s.auth.Middleware(s.clientHandler))

	mux.HandleFunc("/funcionarios", s.auth.AdminOnly(s.employeesHandler))
	mux.HandleFunc("/funcionarios/", s.auth.AdminOnly(s.employeeHandler))

	mux.HandleFunc("/produtos", s.auth.Middleware(s.productsHandler))
	mux.HandleFunc("/produtos/", s.auth.Middleware(s.productHandler))
	mux.HandleFunc("/categorias", s.auth.Middleware(s.categoriesHandler))
	mux.HandleFunc("/categorias/", s.auth.Middleware(s.categoryHandler))
	mux.HandleFunc("/marcas", s.auth.Middleware(s.brandsHandler))
	mux.HandleFunc("/marcas/", s.auth.Middleware(s.brandHandler))

	mux.HandleFunc("/agendamentos", s.auth.Middleware(s.appointmentsHandler))
	mux.HandleFunc("/agendamentos/horarios", s.auth.Middleware(s.slotsHandler))
	mux.HandleFunc("/agendamentos/periodo", s.auth.Middleware(s.appointmentsByPeriodHandler))
	mux.HandleFunc("/agendamentos/cliente/", s.auth.Middleware(s.appointmentsByClientHandler))
	mux.HandleFunc("/agendamentos/", s.auth.Middleware(s.appointmentHandler))

	return mux
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	slog.Info("Server.Run: listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Routes())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
