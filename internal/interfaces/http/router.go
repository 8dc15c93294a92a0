package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/opname-api/internal/application/opname"
	"github.com/jhoicas/opname-api/internal/application/stock"
	"github.com/jhoicas/opname-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OutletUC  *usecase.OutletUseCase
	ProductUC *usecase.ProductUseCase
	LedgerUC  *stock.LedgerUseCase
	OpnameUC  *opname.UseCase
	JWTSecret string
	JWTIssuer string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	anyRole := RequireRole(RoleAdmin, RoleSupervisor, RoleStaff)
	managers := RequireRole(RoleAdmin, RoleSupervisor)

	stockHandler := NewStockHandler(deps.LedgerUC)

	// Outlets y ledger por outlet
	outlets := api.Group("/outlets")
	outletHandler := NewOutletHandler(deps.OutletUC)
	outlets.Post("/", managers, outletHandler.Create)
	outlets.Get("/", anyRole, outletHandler.List)
	outlets.Get("/:id", anyRole, outletHandler.GetByID)
	outlets.Get("/:outletId/stock/:productId", anyRole, stockHandler.GetOutletStock)
	outlets.Put("/:outletId/stock/:productId", managers, stockHandler.SetOutletStock)
	outlets.Post("/:outletId/stock/:productId/adjust", managers, stockHandler.AdjustOutletStock)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", managers, productHandler.Create)
	products.Get("/barcode/:barcode", anyRole, productHandler.GetByBarcode)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Get("/:id/stock", anyRole, stockHandler.ListProductStock)
	products.Post("/:id/initialize-stock", managers, stockHandler.InitializeProductStock)

	// Opname
	sessions := api.Group("/opname/sessions")
	opnameHandler := NewOpnameHandler(deps.OpnameUC)
	sessions.Post("/", anyRole, opnameHandler.CreateSession)
	sessions.Get("/", anyRole, opnameHandler.ListSessions)
	sessions.Get("/:id", anyRole, opnameHandler.GetSession)
	sessions.Post("/:id/counts", anyRole, opnameHandler.RecordCount)
	sessions.Post("/:id/complete", managers, opnameHandler.CompleteSession)
	sessions.Post("/:id/cancel", managers, opnameHandler.CancelSession)
	sessions.Get("/:id/adjustments", anyRole, opnameHandler.ListAdjustments)
	sessions.Get("/:id/report.pdf", anyRole, opnameHandler.Report)
}
