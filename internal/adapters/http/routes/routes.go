package routes

import (
	"time"

	"shg-finance/internal/adapters/http/handlers"
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/config"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Setup configures all routes for the application. rdb may be nil.
func Setup(app *fiber.App, svc *services.Services, cfg *config.Config, rdb *redis.Client) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, rdb)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	groupHandler := handlers.NewGroupHandler(svc.Groups)
	memberHandler := handlers.NewMemberHandler(svc.Members)
	roleHandler := handlers.NewRoleHandler(svc.Roles)
	savingHandler := handlers.NewSavingHandler(svc.Savings, svc.Reports)
	loanHandler := handlers.NewLoanHandler(svc.Loans)
	pollHandler := handlers.NewPollHandler(svc.Polls)
	meetingHandler := handlers.NewMeetingHandler(svc.Meetings)
	sdgHandler := handlers.NewSDGHandler(svc.SDG)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	api.Get("/", healthHandler.APIInfo)

	authenticated := middleware.AuthMiddleware(svc.Auth)

	// Auth routes (public)
	authRoutes := api.Group("/auth", middleware.NoCacheHeaders())
	if cfg.IsProd() {
		authRoutes.Use(middleware.AuthRateLimiter())
	}
	setupAuthRoutes(authRoutes, authHandler, svc.Auth)

	groupRoutes := api.Group("/groups", authenticated)
	setupGroupRoutes(groupRoutes, groupHandler)

	memberRoutes := api.Group("/members", authenticated)
	setupMemberRoutes(memberRoutes, memberHandler)

	roleRoutes := api.Group("/roles", authenticated, middleware.PrivateCacheHeaders(5*time.Minute))
	setupRoleRoutes(roleRoutes, roleHandler)

	savingRoutes := api.Group("/savings", authenticated, middleware.NoCacheHeaders())
	setupSavingRoutes(savingRoutes, savingHandler)

	loanRoutes := api.Group("/loans", authenticated, middleware.NoCacheHeaders())
	setupLoanRoutes(loanRoutes, loanHandler)

	pollRoutes := api.Group("/polls", authenticated)
	setupPollRoutes(pollRoutes, pollHandler)

	meetingRoutes := api.Group("/meetings", authenticated)
	setupMeetingRoutes(meetingRoutes, meetingHandler)

	sdgRoutes := api.Group("/sdg", authenticated)
	setupSDGRoutes(sdgRoutes, sdgHandler)

	dashboardRoutes := api.Group("/dashboard", authenticated, middleware.NoCacheHeaders())
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth *services.AuthService) {
	// Public routes
	router.Post("/register", handler.Register)
	router.Post("/login", handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", middleware.OptionalAuth(auth), handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(auth), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(auth), handler.LogoutAll)
}

func setupGroupRoutes(router fiber.Router, handler *handlers.GroupHandler) {
	router.Get("/", handler.List)
	router.Post("/", middleware.AdminOnly(), handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id", middleware.RequireRoles(domain.RolePresident), handler.Update)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
}

func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler) {
	router.Get("/", handler.List)
	router.Post("/", middleware.RequireRoles(domain.RolePresident), handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id/approve", middleware.RequireRoles(domain.RolePresident), handler.Approve)
	router.Put("/:id", middleware.RequireRoles(domain.RolePresident), handler.Update)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
}

func setupRoleRoutes(router fiber.Router, handler *handlers.RoleHandler) {
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Put("/:id", middleware.AdminOnly(), handler.Update)
}

func setupSavingRoutes(router fiber.Router, handler *handlers.SavingHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/summary/:groupId", handler.Summary)
	router.Get("/export", handler.Export)
}

func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)

	// Static paths before /:id
	router.Get("/emi", handler.QuoteEMI)
	router.Get("/group/:groupId/overdue", handler.Overdue)
	router.Get("/group/:groupId/repayments", handler.GroupRepayments)

	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.UpdateStatus)
	router.Post("/:id/approve", handler.Approve)
	router.Post("/:id/reject", handler.Reject)
	router.Post("/:id/disburse", handler.Disburse)
	router.Post("/:id/repay", handler.Repay)
	router.Get("/:id/repayments", handler.Repayments)
	router.Get("/:id/logs", handler.Logs)
}

func setupPollRoutes(router fiber.Router, handler *handlers.PollHandler) {
	router.Get("/", handler.List)
	router.Post("/", middleware.RequireRoles(domain.RolePresident), handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id", middleware.RequireRoles(domain.RolePresident), handler.Update)
	router.Post("/:id/vote", handler.Vote)
	router.Get("/:id/tally", handler.Tally)
}

func setupMeetingRoutes(router fiber.Router, handler *handlers.MeetingHandler) {
	router.Get("/", handler.List)
	router.Post("/", middleware.RequireRoles(domain.RolePresident), handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id/attendance", middleware.RequireRoles(domain.RolePresident, domain.RoleTreasurer), handler.RecordAttendance)
}

func setupSDGRoutes(router fiber.Router, handler *handlers.SDGHandler) {
	router.Get("/mappings", middleware.PrivateCacheHeaders(5*time.Minute), handler.ListMappings)
	router.Post("/mappings", middleware.AdminOnly(), handler.CreateMapping)
	router.Post("/impact", middleware.AdminOnly(), handler.RecordImpact)
	router.Get("/impact/:groupId", handler.ListImpacts)
	router.Get("/impact/:groupId/summary", handler.Summary)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	router.Get("/me", handler.GetMemberDashboard)
	router.Get("/group/:groupId", handler.GetGroupDashboard)
}
