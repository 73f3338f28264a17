// Package router defines how HTTP routes are registered for the API.
//
// Gate ordering is load-bearing and identical for every request:
// rate limiter -> quota guard -> session auth -> handler (which resolves
// workspace access before touching anything). A later gate never runs when
// an earlier one rejected.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/config"
	"github.com/gridbase/gridbase/internal/counter"
	"github.com/gridbase/gridbase/internal/handler"
	"github.com/gridbase/gridbase/internal/middleware"
	"github.com/gridbase/gridbase/internal/quota"
	"github.com/gridbase/gridbase/internal/repository"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg        config.Config
	GlobalRL   config.RateLimitPolicy
	AuthRL     config.RateLimitPolicy
	Counters   counter.Store
	Tracker    *quota.Tracker
	Sessions   *repository.SessionRepo
	Auth       *handler.AuthHandler
	Workspaces *handler.WorkspaceHandler
	Admin      *handler.AdminHandler
}

// Register wires all routes and their middleware chains.
func Register(e *echo.Echo, d Deps) {
	// Liveness sits outside every gate; a tripped quota must not fail
	// health probes.
	e.GET("/healthz", handler.Health)

	rateGlobal := middleware.RateLimit(d.GlobalRL, d.Counters)
	rateAuth := middleware.RateLimit(d.AuthRL, d.Counters)
	quotaGuard := middleware.QuotaGuard(d.Tracker)
	sessionAuth := middleware.SessionAuth(d.Sessions)

	// Credential endpoints: no session required, but the stricter auth
	// budget stacks on the global one to blunt credential stuffing. Both
	// limiters run before the quota guard so throttled requests never
	// spend the daily budget.
	authGroup := e.Group("/v1/auth", rateGlobal, rateAuth, quotaGuard)
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)

	// Everything else requires a live session.
	api := e.Group("/v1", rateGlobal, quotaGuard, sessionAuth)

	api.POST("/auth/logout", d.Auth.Logout)
	api.POST("/auth/logout-all", d.Auth.LogoutAll)
	api.GET("/me", d.Auth.Me)
	api.PATCH("/me", d.Auth.UpdateMe)
	api.GET("/me/sessions", d.Auth.MySessions)

	api.POST("/workspaces", d.Workspaces.CreateWorkspace)
	api.GET("/workspaces", d.Workspaces.ListWorkspaces)
	api.GET("/workspaces/:id", d.Workspaces.GetWorkspace)
	api.DELETE("/workspaces/:id", d.Workspaces.DeleteWorkspace)
	api.GET("/workspaces/:id/members", d.Workspaces.ListMembers)
	api.POST("/workspaces/:id/members", d.Workspaces.UpsertMember)
	api.DELETE("/workspaces/:id/members/:userID", d.Workspaces.RemoveMember)
	api.POST("/workspaces/:id/bases", d.Workspaces.CreateBase)
	api.GET("/workspaces/:id/bases", d.Workspaces.ListBases)
	api.POST("/bases/:id/tables", d.Workspaces.CreateTable)
	api.GET("/bases/:id/tables", d.Workspaces.ListTables)
	api.GET("/tables/:id", d.Workspaces.GetTable)
	api.POST("/tables/:id/records", d.Workspaces.CreateRecord)
	api.GET("/tables/:id/records", d.Workspaces.ListRecords)
	api.GET("/records/:id", d.Workspaces.GetRecord)
	api.PATCH("/records/:id", d.Workspaces.UpdateRecord)
	api.DELETE("/records/:id", d.Workspaces.DeleteRecord)

	// Admin surface: platform-role gated, deliberately distinguishable 403.
	admin := api.Group("/admin", middleware.RequireRole("admin"))
	admin.GET("/users", d.Admin.ListUsers)
	admin.PATCH("/users/:id/role", d.Admin.SetUserRole)
	admin.PATCH("/users/:id/active", d.Admin.SetUserActive)
	admin.GET("/usage", d.Admin.UsageReport)
}
