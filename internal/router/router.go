package router

import (
	"time"

	"scalepos/internal/config"
	"scalepos/internal/handler"
	"scalepos/internal/middleware"
	"scalepos/internal/repository"
	"scalepos/internal/service"
	"scalepos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	draftRepo := repository.NewDraftRepository(rdb, time.Duration(cfg.DraftTTLHours)*time.Hour)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	stockSvc := service.NewStockService(productRepo, draftRepo, movementRepo)
	productSvc := service.NewProductService(productRepo, stockSvc)
	customerSvc := service.NewCustomerService(customerRepo)
	draftSvc := service.NewDraftService(draftRepo, productRepo, customerRepo, stockSvc)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	orderSvc := service.NewOrderService(orderRepo, draftRepo, productRepo, customerRepo, movementRepo, dispatcher)
	refundSvc := service.NewRefundService(orderRepo, refundRepo, productRepo, movementRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc, stockSvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	draftsH := handler.NewDraftsHandler(draftSvc)
	ordersH := handler.NewOrdersHandler(orderSvc, refundSvc)
	healthH := handler.NewHealthHandler(db, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", healthH.Check)

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		anyStaff := middleware.RequireRole("cashier", "supervisor", "admin")

		// Products — everyone reads (scanner path), admin writes,
		// stock adjustment by supervisor or admin
		v1.GET("/products", anyStaff, productsH.List)
		v1.GET("/products/low-stock", anyStaff, productsH.LowStock)
		v1.GET("/products/barcode/:barcode", anyStaff, productsH.GetByBarcode)
		v1.GET("/products/:id", anyStaff, productsH.Get)
		v1.GET("/products/:id/remaining", anyStaff, productsH.Remaining)
		v1.GET("/products/:id/movements", anyStaff, productsH.Movements)
		v1.PUT("/products/:id/stock", middleware.RequireRole("supervisor", "admin"), productsH.AdjustStock)
		prods := v1.Group("/products", middleware.RequireRole("admin"))
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
		}

		// Customers — reads and creation by any staff, credit grants gated
		v1.GET("/customers", anyStaff, customersH.List)
		v1.GET("/customers/:id", anyStaff, customersH.Get)
		v1.GET("/customers/:id/movements", anyStaff, customersH.Movements)
		v1.POST("/customers", anyStaff, customersH.Create)
		v1.POST("/customers/:id/credit", middleware.RequireRole("supervisor", "admin"), customersH.GrantCredit)

		// Drafts — the register's working state; ownership enforced in the
		// service layer per session
		drafts := v1.Group("/drafts", anyStaff)
		{
			drafts.POST("", draftsH.Create)
			drafts.GET("", draftsH.List)
			drafts.GET("/:id", draftsH.Get)
			drafts.DELETE("/:id", draftsH.Discard)
			drafts.POST("/:id/items", draftsH.AddItem)
			drafts.PUT("/:id/items/:itemId", draftsH.EditItem)
			drafts.DELETE("/:id/items/:itemId", draftsH.RemoveItem)
			drafts.PUT("/:id/discount", draftsH.SetDiscount)
			drafts.PUT("/:id/customer", draftsH.SetCustomer)
			drafts.DELETE("/:id/customer", draftsH.ClearCustomer)
			drafts.POST("/:id/commit", ordersH.Commit)
		}

		// Orders — voids additionally gated in the service layer by permission
		v1.GET("/orders", anyStaff, ordersH.List)
		v1.GET("/orders/:id", anyStaff, ordersH.Get)
		v1.DELETE("/orders/:id", middleware.RequireRole("supervisor", "admin"), ordersH.Void)
		v1.POST("/orders/:id/refunds", anyStaff, ordersH.Refund)
		v1.GET("/orders/:id/refunds", anyStaff, ordersH.ListRefunds)

		// User management — admin only
		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
