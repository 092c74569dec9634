// Package router wires the HTTP routes of the stock ledger API onto an
// Echo instance.  Routing is the only place that knows the URL layout;
// handlers are registered here and nowhere else.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/godown-stock-ledger/internal/config"
	"github.com/iliyamo/godown-stock-ledger/internal/handler"
	"github.com/iliyamo/godown-stock-ledger/internal/middleware"
)

// Handlers bundles the constructed handler set for registration.
type Handlers struct {
	Godown   *handler.GodownHandler
	Stock    *handler.StockHandler
	Booking  *handler.BookingHandler
	Catalog  *handler.CatalogHandler
	Dispatch *handler.DispatchHandler
}

// Register mounts every route of the API under /v1 plus the health
// check at /healthz.  The response cache applies only to read-heavy
// listing GETs; anything involved in a quantity decision is always
// served fresh.
func Register(e *echo.Echo, cacheCfg config.CacheConfig, rdb *redis.Client, h Handlers) {
	e.GET("/healthz", handler.Health)

	cached := middleware.ResponseCache(cacheCfg, rdb)

	g := e.Group("/v1")

	// Godowns.
	g.POST("/godowns", h.Godown.CreateGodown)
	g.GET("/godowns", h.Godown.ListGodowns, cached)
	g.GET("/godowns/summary", h.Godown.GodownSummaries, cached)
	g.PUT("/godowns/:id", h.Godown.RenameGodown)
	g.DELETE("/godowns/:id", h.Godown.DeleteGodown)

	// Stock ledger.  Mutations and the reconciliation check bypass the
	// response cache; listings and history may lag by its TTL.
	g.POST("/godowns/:id/stock", h.Stock.AddStock)
	g.GET("/godowns/:id/stock", h.Stock.ListStock, cached)
	g.POST("/stock/allocate", h.Stock.Allocate)
	g.POST("/stock/:id/take", h.Stock.TakeStock)
	g.POST("/stock/:id/add", h.Stock.AddToStock)
	g.GET("/stock/:id/history", h.Stock.StockHistory, cached)
	g.GET("/stock/:id/reconcile", h.Stock.Reconcile)

	// Bookings.
	g.POST("/bookings", h.Booking.CreateBooking)
	g.GET("/bookings", h.Booking.ListBookings)
	g.GET("/bookings/:id", h.Booking.GetBooking)
	g.GET("/customers", h.Booking.Customers, cached)

	// Catalog reference data.
	g.GET("/product-types", h.Catalog.ListProductTypes, cached)
	g.POST("/product-types", h.Catalog.CreateProductType)
	g.DELETE("/product-types/:name", h.Catalog.DeleteProductType)
	g.GET("/brands", h.Catalog.ListBrands, cached)
	g.POST("/brands", h.Catalog.CreateBrand)
	g.PUT("/brands/:id", h.Catalog.UpdateBrand)
	g.DELETE("/brands/:id", h.Catalog.DeleteBrand)
	g.GET("/products/:type", h.Catalog.ListProducts, cached)
	g.POST("/products", h.Catalog.CreateProduct)
	g.PUT("/products/:id", h.Catalog.UpdateProduct)
	g.DELETE("/products/:id", h.Catalog.DeleteProduct)
	g.PATCH("/products/:id/status", h.Catalog.SetProductStatus)
	g.PATCH("/products/:id/fast-running", h.Catalog.SetFastRunning)

	// Dispatch tracking.
	g.POST("/dispatches", h.Dispatch.CreateDispatch)
	g.GET("/dispatches", h.Dispatch.ListDispatches)
	g.GET("/bookings/:id/dispatches", h.Dispatch.ListBookingDispatches)
}
