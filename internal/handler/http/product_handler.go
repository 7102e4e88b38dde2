package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"inventory-crud/internal/logger"
	"inventory-crud/internal/model"

	"go.opentelemetry.io/otel"
)

// ProductService is what the handlers need from the service layer.
type ProductService interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Search(ctx context.Context, name string) ([]model.Product, error)
	List(ctx context.Context, page int) (*model.Page, error)
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, req *model.ProductRequest) (*model.UpdateResult, error)
	Delete(ctx context.Context, req *model.ProductRequest) (*model.DeleteResult, error)
}

type ProductHandler struct {
	service ProductService
}

var HttpProductHandlerTracer = otel.Tracer("HttpProductHandler")

func NewProductHandler(service ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// Product serves /api/product.
func (h *ProductHandler) Product(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.GetByID(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

// Search serves /api/product/search.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Search")
	defer span.End()

	name := r.URL.Query().Get("name")
	products, err := h.service.Search(ctx, name)
	if err != nil {
		writeError(w, r, err, "Failed to search products")
		return
	}
	logger.Info(ctx, "Searched products", slog.String("name", name), slog.Int("count", len(products)))
	writeJSON(w, http.StatusOK, products)
}

// Products serves the /api/products collection.
func (h *ProductHandler) Products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.List(w, r)
	case http.MethodPost:
		h.Create(w, r)
	case http.MethodPatch:
		h.Update(w, r)
	case http.MethodDelete:
		h.Delete(w, r)
	default:
		methodNotAllowed(w, r, "GET, POST, PATCH, DELETE")
	}
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetByID")
	defer span.End()

	product, err := h.service.GetByID(ctx, r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.List")
	defer span.End()

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorCode(w, r, http.StatusBadRequest, model.ErrCodeInvalidPage, "page must be an integer")
			return
		}
		page = n
	}

	result, err := h.service.List(ctx, page)
	if err != nil {
		writeError(w, r, err, "Failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Create")
	defer span.End()

	req, ok := decodeProductRequest(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, req)
	if err != nil {
		writeError(w, r, err, "Failed to create product")
		return
	}
	logger.Info(ctx, "Created product", slog.String("id", created.ID.Hex()))
	writeJSON(w, http.StatusCreated, created)
}

// Update answers 201 on success; existing clients depend on it.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Update")
	defer span.End()

	req, ok := decodeProductRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Update(ctx, req)
	if err != nil {
		writeError(w, r, err, "Product is not updated")
		return
	}
	logger.Info(ctx, "Updated product", slog.String("id", req.Identifier()), slog.Int64("modified", result.ModifiedCount))
	writeJSON(w, http.StatusCreated, result)
}

// Delete answers 201 on success, like Update.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Delete")
	defer span.End()

	req, ok := decodeProductRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Delete(ctx, req)
	if err != nil {
		writeError(w, r, err, "Product is not deleted")
		return
	}
	logger.Info(ctx, "Deleted product", slog.String("id", req.Identifier()))
	writeJSON(w, http.StatusCreated, result)
}

// decodeProductRequest returns a nil request for an empty body so the
// service reports the missing fields.
func decodeProductRequest(w http.ResponseWriter, r *http.Request) (*model.ProductRequest, bool) {
	if r.Body == nil {
		return nil, true
	}
	var req model.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, true
		}
		writeErrorCode(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "Invalid request payload")
		return nil, false
	}
	return &req, true
}
