package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sennacar/sennacar/internal/models"
)

func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		// ?categoria=insulfilm narrows the listing.
		var (
			products []models.Product
			err      error
		)
		if category := r.URL.Query().Get("categoria"); category != "" {
			products, err = s.store.ListProductsByCategory(category)
		} else {
			products, err = s.store.ListProducts()
		}
		if err != nil {
			slog.Error("Server.productsHandler: list failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(products))
	case http.MethodPost:
		var p models.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			slog.Warn("Server.productsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if p.Name == "" || p.Category == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("nome and categoria are required"))
			return
		}
		if p.Price < 0 || p.LaborPrice < 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("preco and preco_mao_obra must not be negative"))
			return
		}
		created, err := s.store.CreateProduct(p)
		if err != nil {
			slog.Error("Server.productsHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		slog.Info("Server.productsHandler: product created", "id", created.ID, "category", created.Category)
		writeJSONResponse(w, http.StatusCreated, models.Success(created))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) productHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/produtos/"), "/")
	if id == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("product id is required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := s.store.GetProduct(id)
		if err != nil {
			slog.Error("Server.productHandler: get failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		if product == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("product not found"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(product))
	case http.MethodPut:
		var p models.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			slog.Warn("Server.productHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		p.ID = id
		if err := s.store.UpdateProduct(p); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeJSONResponse(w, http.StatusNotFound, models.Error("product not found"))
				return
			}
			slog.Error("Server.productHandler: update failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("product updated", p))
	case http.MethodDelete:
		if err := s.store.DeleteProduct(id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeJSONResponse(w, http.StatusNotFound, models.Error("product not found"))
				return
			}
			slog.Error("Server.productHandler: delete failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("product deleted", nil))
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		categories, err := s.store.ListCategories()
		if err != nil {
			slog.Error("Server.categoriesHandler: list failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(categories))
	case http.MethodPost:
		var c models.Category
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			slog.Warn("Server.categoriesHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if c.Name == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("nome is required"))
			return
		}
		created, err := s.store.CreateCategory(c)
		if err != nil {
			slog.Error("Server.categoriesHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusCreated, models.Success(created))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) categoryHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/categorias/"), "/")
	if id == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("category id is required"))
		return
	}
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", http.MethodDelete)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.store.DeleteCategory(id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("category not found"))
			return
		}
		slog.Error("Server.categoryHandler: delete failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("category deleted", nil))
}

func (s *Server) brandsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		brands, err := s.store.ListBrands()
		if err != nil {
			slog.Error("Server.brandsHandler: list failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(brands))
	case http.MethodPost:
		var b models.Brand
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			slog.Warn("Server.brandsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if b.Name == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("nome is required"))
			return
		}
		created, err := s.store.CreateBrand(b)
		if err != nil {
			slog.Error("Server.brandsHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusCreated, models.Success(created))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) brandHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/marcas/"), "/")
	if id == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("brand id is required"))
		return
	}
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", http.MethodDelete)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.store.DeleteBrand(id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("brand not found"))
			return
		}
		slog.Error("Server.brandHandler: delete failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("brand deleted", nil))
}
