package main

import (
	"github.com/gofiber/fiber/v2"

	"github.com/storewatch/backend/internal/access"
	"github.com/storewatch/backend/internal/handlers"
	"github.com/storewatch/backend/internal/middleware"
)

type appHandlers struct {
	health   *handlers.HealthHandler
	user     *handlers.UserHandler
	incident *handlers.IncidentHandler
	analysis *handlers.AnalysisHandler
	branch   *handlers.BranchHandler
	settings *handlers.SettingsHandler
	media    *handlers.MediaHandler
	usage    *handlers.UsageHandler
}

func registerRoutes(app *fiber.App, h *appHandlers, authMiddleware *middleware.AuthMiddleware) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health routes
	v1.Get("/health", h.health.Health)
	v1.Get("/ready", h.health.Ready)

	// Auth routes
	auth := v1.Group("/auth")
	auth.Post("/register", h.user.Register)
	auth.Post("/login", h.user.Login)
	auth.Post("/logout", authMiddleware.Authenticate(), h.user.Logout)

	users := v1.Group("/users", authMiddleware.Authenticate())
	users.Get("/me", h.user.GetProfile)

	// Evidence analysis and uploads
	v1.Post("/analyze", authMiddleware.Authenticate(), authMiddleware.RequirePermission(access.ResourceAnalysis, access.ActionCreate), h.analysis.Analyze)
	v1.Post("/transcribe", authMiddleware.Authenticate(), authMiddleware.RequirePermission(access.ResourceAnalysis, access.ActionCreate), h.analysis.Transcribe)
	v1.Post("/media", authMiddleware.Authenticate(), authMiddleware.RequirePermission(access.ResourceMedia, access.ActionCreate), h.media.Upload)

	// Incident routes
	incidents := v1.Group("/incidents", authMiddleware.Authenticate())
	incidents.Post("/", authMiddleware.RequirePermission(access.ResourceIncidents, access.ActionCreate), h.incident.CreateIncident)
	incidents.Get("/", authMiddleware.RequirePermission(access.ResourceIncidents, access.ActionRead), h.incident.ListIncidents)
	incidents.Get("/stats", authMiddleware.RequirePermission(access.ResourceIncidents, access.ActionRead), h.incident.GetStats)
	incidents.Get("/export", authMiddleware.RequirePermission(access.ResourceIncidents, access.ActionExport), h.incident.ExportIncidents)
	incidents.Get("/:id", authMiddleware.RequirePermission(access.ResourceIncidents, access.ActionRead), h.incident.GetIncident)
	incidents.Get("/:id/history", authMiddleware.RequirePermission(access.ResourceIncidents, access.ActionRead), h.incident.GetHistory)
	incidents.Patch("/:id/status", authMiddleware.RequirePermission(access.ResourceIncidents, access.ActionUpdate), h.incident.UpdateStatus)

	// Branch routes
	branches := v1.Group("/branches", authMiddleware.Authenticate())
	branches.Get("/", authMiddleware.RequirePermission(access.ResourceBranches, access.ActionRead), h.branch.ListBranches)
	branches.Get("/:id", authMiddleware.RequirePermission(access.ResourceBranches, access.ActionRead), h.branch.GetBranch)

	// Settings routes
	settings := v1.Group("/settings", authMiddleware.Authenticate())
	settings.Get("/", authMiddleware.RequirePermission(access.ResourceSettings, access.ActionRead), h.settings.GetSettings)
	settings.Put("/", authMiddleware.RequirePermission(access.ResourceSettings, access.ActionUpdate), h.settings.UpdateSettings)

	// Admin routes
	admin := v1.Group("/admin", authMiddleware.Authenticate())
	admin.Get("/users", authMiddleware.RequirePermission(access.ResourceUsers, access.ActionRead), h.user.ListUsers)
	admin.Get("/users/:id", authMiddleware.RequirePermission(access.ResourceUsers, access.ActionRead), h.user.GetUser)
	admin.Put("/users/:id/branches", authMiddleware.RequirePermission(access.ResourceUsers, access.ActionUpdate), h.user.AssignBranches)
	admin.Get("/usage", authMiddleware.RequirePermission(access.ResourceUsage, access.ActionRead), h.usage.ListUsage)
	admin.Get("/usage/summary", authMiddleware.RequirePermission(access.ResourceUsage, access.ActionRead), h.usage.GetSummary)
}
