package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/godown-stock-ledger/internal/cache"
	"github.com/iliyamo/godown-stock-ledger/internal/model"
	"github.com/iliyamo/godown-stock-ledger/internal/repository"
)

// CatalogHandler serves the reference-data endpoints: product types,
// brands and catalog products.  Every successful mutation invalidates
// the reference cache so subsequent stock operations see the change
// immediately instead of after the TTL.
type CatalogHandler struct {
	Products  *repository.ProductRepo
	Brands    *repository.BrandRepo
	Reference *cache.ReferenceCache
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(products *repository.ProductRepo, brands *repository.BrandRepo, ref *cache.ReferenceCache) *CatalogHandler {
	return &CatalogHandler{Products: products, Brands: brands, Reference: ref}
}

// ListProductTypes handles GET /v1/product-types.
func (h *CatalogHandler) ListProductTypes(c echo.Context) error {
	types, err := h.Products.ListTypes(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": types})
}

// CreateProductType handles POST /v1/product-types.
func (h *CatalogHandler) CreateProductType(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Products.CreateType(c.Request().Context(), body.Name); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "product type already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	h.Reference.Invalidate()
	return c.JSON(http.StatusCreated, echo.Map{"name": repository.NormalizeName(body.Name)})
}

// DeleteProductType handles DELETE /v1/product-types/:name.  Catalog
// products of the type go with it; stock and history stay.
func (h *CatalogHandler) DeleteProductType(c echo.Context) error {
	name := c.Param("name")
	if err := h.Products.DeleteType(c.Request().Context(), name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	h.Reference.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

// ListBrands handles GET /v1/brands.
func (h *CatalogHandler) ListBrands(c echo.Context) error {
	brands, err := h.Brands.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": brands})
}

// CreateBrand handles POST /v1/brands.
func (h *CatalogHandler) CreateBrand(c echo.Context) error {
	var body struct {
		Name      string  `json:"name"`
		AgentName *string `json:"agent_name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	id, err := h.Brands.Create(c.Request().Context(), body.Name, body.AgentName)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "brand already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	h.Reference.Invalidate()
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateBrand handles PUT /v1/brands/:id.
func (h *CatalogHandler) UpdateBrand(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name      string  `json:"name"`
		AgentName *string `json:"agent_name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Brands.Update(c.Request().Context(), id, body.Name, body.AgentName); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "brand name already in use"})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "brand not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	h.Reference.Invalidate()
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// DeleteBrand handles DELETE /v1/brands/:id.
func (h *CatalogHandler) DeleteBrand(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Brands.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrBrandInUse) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "brand still referenced by catalog products"})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "brand not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	h.Reference.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

// productRequest is the JSON body for product create/update.
type productRequest struct {
	ProductType  string          `json:"product_type"`
	SerialNumber string          `json:"serial_number"`
	ProductName  string          `json:"productname"`
	Price        decimal.Decimal `json:"price"`
	WPrice       decimal.Decimal `json:"wprice"`
	Per          string          `json:"per"`
	PerCase      int64           `json:"per_case"`
	Discount     decimal.Decimal `json:"discount"`
	BrandID      uint64          `json:"brand_id"`
	Status       string          `json:"status"`
	FastRunning  bool            `json:"fast_running"`
}

func (pr *productRequest) validate() string {
	switch {
	case strings.TrimSpace(pr.ProductName) == "":
		return "productname is required"
	case strings.TrimSpace(pr.ProductType) == "":
		return "product_type is required"
	case pr.BrandID == 0:
		return "brand_id is required"
	case pr.PerCase <= 0:
		return "per_case must be > 0"
	case pr.Per != "pieces" && pr.Per != "box" && pr.Per != "pkt":
		return "per must be one of pieces, box, pkt"
	case pr.Price.IsNegative() || pr.WPrice.IsNegative():
		return "prices must not be negative"
	}
	return ""
}

func (pr *productRequest) toModel() *model.Product {
	status := pr.Status
	if status == "" {
		status = "on"
	}
	return &model.Product{
		ProductType:  repository.NormalizeName(pr.ProductType),
		SerialNumber: strings.TrimSpace(pr.SerialNumber),
		Name:         strings.TrimSpace(pr.ProductName),
		Price:        pr.Price,
		WPrice:       pr.WPrice,
		Per:          pr.Per,
		PerCase:      pr.PerCase,
		Discount:     pr.Discount,
		BrandID:      pr.BrandID,
		Status:       status,
		FastRunning:  pr.FastRunning,
	}
}

// ListProducts handles GET /v1/products/:type.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	products, err := h.Products.ListByType(c.Request().Context(), c.Param("type"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": products})
}

// CreateProduct handles POST /v1/products.
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var body productRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	id, err := h.Products.Create(c.Request().Context(), body.toModel())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create product"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateProduct handles PUT /v1/products/:id.
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body productRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	p := body.toModel()
	p.ID = id
	if err := h.Products.Update(c.Request().Context(), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// DeleteProduct handles DELETE /v1/products/:id.
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Products.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// SetProductStatus handles PATCH /v1/products/:id/status.
func (h *CatalogHandler) SetProductStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Status != "on" && body.Status != "off" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be on or off"})
	}
	if err := h.Products.SetStatus(c.Request().Context(), id, body.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": body.Status})
}

// SetFastRunning handles PATCH /v1/products/:id/fast-running.
func (h *CatalogHandler) SetFastRunning(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		FastRunning bool `json:"fast_running"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Products.SetFastRunning(c.Request().Context(), id, body.FastRunning); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "fast_running": body.FastRunning})
}
