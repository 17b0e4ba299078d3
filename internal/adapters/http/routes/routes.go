package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"libraryhub/internal/adapters/http/handlers"
	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/config"
	"libraryhub/internal/core/services"
)

const catalogMaxAge = 30 * time.Second

// Services bundles everything the HTTP layer calls into
type Services struct {
	Auth      *services.AuthService
	Users     *services.UserService
	Catalog   *services.CatalogService
	Borrowals *services.BorrowalService
	Reviews   *services.ReviewService
	Dashboard *services.DashboardService
	Ping      handlers.PingFunc
}

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *Services, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, svc.Ping)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg.JWT, cfg.Cookie)
	userHandler := handlers.NewUserHandler(svc.Users)
	bookHandler := handlers.NewBookHandler(svc.Catalog)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
	borrowalHandler := handlers.NewBorrowalHandler(svc.Borrowals)
	reviewHandler := handlers.NewReviewHandler(svc.Reviews)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	auth := middleware.AuthMiddleware(cfg.JWT)

	setupAuthRoutes(api.Group("/auth"), authHandler, userHandler, auth)
	setupBorrowalRoutes(api.Group("/borrowal", auth, middleware.NoCacheHeaders()), borrowalHandler)
	setupBookRoutes(api.Group("/book"), bookHandler, auth)
	setupCatalogRoutes(api, catalogHandler, auth)
	setupReviewRoutes(api.Group("/review"), reviewHandler, auth)

	// User management routes (Librarian/Admin, writes Admin only)
	setupUserRoutes(api.Group("/user", auth, middleware.StaffOnly()), userHandler)

	api.Get("/dashboard/stats", auth, middleware.StaffOnly(), dashboardHandler.GetStats)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, userHandler *handlers.UserHandler, auth fiber.Handler) {
	// Public routes
	router.Post("/register", middleware.StrictRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", auth, handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
	router.Post("/change-password", auth, userHandler.ChangePassword)
}

// setupBorrowalRoutes configures the borrowal lifecycle (Authenticated)
func setupBorrowalRoutes(router fiber.Router, handler *handlers.BorrowalHandler) {
	router.Get("/getAll", handler.List)
	router.Get("/get/:id", handler.Get)
	router.Post("/add", handler.Create)

	// Librarian/Admin
	router.Put("/update/:id", middleware.StaffOnly(), handler.Update)
	router.Get("/history/:id", middleware.StaffOnly(), handler.History)

	// Admin only
	router.Delete("/delete/:id", middleware.AdminOnly(), handler.Delete)
}

// setupBookRoutes configures book routes. Reads are public.
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler, auth fiber.Handler) {
	cache := middleware.CacheControl(catalogMaxAge)
	router.Get("/getAll", cache, handler.List)
	router.Get("/get/:id", cache, handler.Get)
	router.Get("/author/:id", cache, handler.ByAuthor)
	router.Get("/genre/:id", cache, handler.ByGenre)

	staff := router.Group("", auth, middleware.StaffOnly())
	staff.Post("/add", handler.Create)
	staff.Put("/update/:id", handler.Update)
	staff.Delete("/delete/:id", handler.Delete)
}

// setupCatalogRoutes configures author and genre routes. Reads are public.
func setupCatalogRoutes(api fiber.Router, handler *handlers.CatalogHandler, auth fiber.Handler) {
	cache := middleware.CacheControl(catalogMaxAge)
	staff := []fiber.Handler{auth, middleware.StaffOnly()}

	authors := api.Group("/author")
	authors.Get("/getAll", cache, handler.ListAuthors)
	authors.Get("/get/:id", cache, handler.GetAuthor)
	authors.Post("/add", append(staff, handler.CreateAuthor)...)
	authors.Put("/update/:id", append(staff, handler.UpdateAuthor)...)
	authors.Delete("/delete/:id", append(staff, handler.DeleteAuthor)...)

	genres := api.Group("/genre")
	genres.Get("/getAll", cache, handler.ListGenres)
	genres.Get("/get/:id", cache, handler.GetGenre)
	genres.Post("/add", append(staff, handler.CreateGenre)...)
	genres.Put("/update/:id", append(staff, handler.UpdateGenre)...)
	genres.Delete("/delete/:id", append(staff, handler.DeleteGenre)...)
}

// setupReviewRoutes configures review routes. Reads are public.
func setupReviewRoutes(router fiber.Router, handler *handlers.ReviewHandler, auth fiber.Handler) {
	router.Get("/getAll", handler.List)
	router.Get("/get/:id", handler.Get)
	router.Get("/getByBookId/:bid", handler.ByBook)

	router.Post("/add/:id", auth, handler.Create)
	router.Put("/update/:id", auth, handler.Update)
	router.Delete("/delete/:id", auth, handler.Delete)
}

// setupUserRoutes configures user management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/getAll", handler.ListUsers)
	router.Get("/getAllMembers", handler.ListMembers)
	router.Get("/get/:id", handler.GetUser)

	// Admin only
	router.Post("/add", middleware.AdminOnly(), handler.CreateUser)
	router.Put("/update/:id", middleware.AdminOnly(), handler.UpdateUser)
	router.Delete("/delete/:id", middleware.AdminOnly(), handler.DeleteUser)
}
