package main

import (
	"log"
	"net/http"

	"chapterstats/config"
	"chapterstats/dashboard"
	"chapterstats/database"
	"chapterstats/handlers"
	"chapterstats/ingest"
	"chapterstats/middleware"
	"chapterstats/points"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize JWT secret
	middleware.SetJWTSecret(cfg.JWTSecret)

	// Initialize database
	if err := database.Init(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	db := database.GetDB()
	ingestor := ingest.New(db, points.Default)
	dashboardService := dashboard.New(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	userHandler := handlers.NewUserHandler()
	teamHandler := handlers.NewTeamHandler()
	reportHandler := handlers.NewReportHandler(ingestor, dashboardService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes
	router.Post("/api/auth/register", authHandler.Register)
	router.Post("/api/auth/login", authHandler.Login)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)

		r.Post("/api/users/upload-csv", userHandler.UploadUsers)
		r.Get("/api/users", userHandler.ListUsers)

		r.Post("/api/teams", teamHandler.CreateTeam)
		r.Get("/api/teams", teamHandler.ListTeams)
		r.Put("/api/teams/{id}", teamHandler.UpdateTeam)
		r.Delete("/api/teams/{id}", teamHandler.DeleteTeam)

		r.Post("/api/reports/upload-weekly", reportHandler.UploadWeekly)
		r.Get("/api/reports/weekly", reportHandler.ListWeekly)
		r.Get("/api/reports/monthly", reportHandler.ListMonthly)
		r.Delete("/api/reports/weekly/{id}", reportHandler.DeleteWeekly)

		r.Get("/api/dashboard/team-stats", dashboardHandler.TeamStats)
		r.Get("/api/dashboard/top-teams", dashboardHandler.TopTeams)
		r.Get("/api/dashboard/top-performers", dashboardHandler.TopPerformers)
		r.Get("/api/dashboard/user-totals", dashboardHandler.UserTotals)
		r.Get("/api/dashboard/category-totals", dashboardHandler.CategoryTotals)
		r.Get("/api/dashboard/team-breakdown", dashboardHandler.TeamBreakdown)
		r.Get("/api/dashboard/user-breakdown", dashboardHandler.UserBreakdown)
	})

	log.Printf("Server starting on port %s", cfg.ServerPort)
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, router))
}
