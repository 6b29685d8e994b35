package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/auth"
	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/service"
)

// ProductHandler handles product endpoints.
type ProductHandler struct {
	productService *service.ProductService
	logger         zerolog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger.With().Str("handler", "product").Logger(),
	}
}

// productResponse is the API shape of a product.
type productResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	SKU             string    `json:"sku"`
	Manufacturer    string    `json:"manufacturer"`
	Quantity        int       `json:"quantity"`
	OwnerUserID     int64     `json:"owner_user_id"`
	DateAdded       time.Time `json:"date_added"`
	DateLastUpdated time.Time `json:"date_last_updated"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		SKU:             p.SKU,
		Manufacturer:    p.Manufacturer,
		Quantity:        p.Quantity,
		OwnerUserID:     p.OwnerUserID,
		DateAdded:       p.DateAdded,
		DateLastUpdated: p.DateLastUpdated,
	}
}

// productRequest is the body for product create, replace and patch.
// Pointers distinguish absent fields; quantity stays a json.Number until
// the integer check runs.
type productRequest struct {
	Name         *string      `json:"name"`
	Description  *string      `json:"description"`
	SKU          *string      `json:"sku"`
	Manufacturer *string      `json:"manufacturer"`
	Quantity     *json.Number `json:"quantity"`
}

// fullFields converts a request into a complete field set, requiring
// every field to be present.
func (req productRequest) fullFields() (service.ProductFields, error) {
	var fields service.ProductFields

	if req.Name == nil || req.Description == nil || req.SKU == nil ||
		req.Manufacturer == nil || req.Quantity == nil {
		return fields, domain.NewDomainError(domain.ErrMissingField,
			"name, description, sku, manufacturer and quantity are required", "")
	}

	quantity, err := intFromNumber(*req.Quantity)
	if err != nil {
		return fields, err
	}

	fields.Name = *req.Name
	fields.Description = *req.Description
	fields.SKU = *req.SKU
	fields.Manufacturer = *req.Manufacturer
	fields.Quantity = quantity
	return fields, nil
}

// patch converts a request into a partial update.
func (req productRequest) patch() (domain.ProductPatch, error) {
	patch := domain.ProductPatch{
		Name:         req.Name,
		Description:  req.Description,
		SKU:          req.SKU,
		Manufacturer: req.Manufacturer,
	}

	if req.Quantity != nil {
		quantity, err := intFromNumber(*req.Quantity)
		if err != nil {
			return patch, err
		}
		patch.Quantity = &quantity
	}

	return patch, nil
}

// Get handles GET /v2/product/{productId}. No authentication required.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), productID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductResponse(product))
}

// Create handles POST /v2/product.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	fields, err := req.fullFields()
	if err != nil {
		respondError(w, err)
		return
	}

	output, err := h.productService.Create(r.Context(), service.CreateProductInput{
		OwnerUserID: principal.UserID,
		Fields:      fields,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toProductResponse(output.Product))
}

// Replace handles PUT /v2/product/{productId}.
func (h *ProductHandler) Replace(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	// Missing or foreign products outrank any body error.
	if err := h.productService.AuthorizeOwner(r.Context(), productID, principal.UserID); err != nil {
		respondError(w, err)
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	fields, err := req.fullFields()
	if err != nil {
		respondError(w, err)
		return
	}

	if _, err := h.productService.Replace(r.Context(), service.ReplaceProductInput{
		ProductID:   productID,
		RequesterID: principal.UserID,
		Fields:      fields,
	}); err != nil {
		respondError(w, err)
		return
	}

	respondNoContent(w)
}

// Patch handles PATCH /v2/product/{productId}.
func (h *ProductHandler) Patch(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	if err := h.productService.AuthorizeOwner(r.Context(), productID, principal.UserID); err != nil {
		respondError(w, err)
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	patch, err := req.patch()
	if err != nil {
		respondError(w, err)
		return
	}

	if _, err := h.productService.Patch(r.Context(), service.PatchProductInput{
		ProductID:   productID,
		RequesterID: principal.UserID,
		Patch:       patch,
	}); err != nil {
		respondError(w, err)
		return
	}

	respondNoContent(w)
}

// Delete handles DELETE /v2/product/{productId}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), service.DeleteProductInput{
		ProductID:   productID,
		RequesterID: principal.UserID,
	}); err != nil {
		respondError(w, err)
		return
	}

	respondNoContent(w)
}

// parseProductID parses the {productId} path parameter. A non-numeric id
// can't reference any product, so it reads as not found.
func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		respondError(w, domain.ErrProductNotFound)
		return 0, false
	}
	return productID, true
}
