package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/maheo/foulee/internal/config"
	"github.com/maheo/foulee/internal/database"
	"github.com/maheo/foulee/internal/handlers"
	"github.com/maheo/foulee/internal/middleware"
	"github.com/maheo/foulee/internal/models"
	"github.com/maheo/foulee/internal/notify"
	"github.com/maheo/foulee/internal/remote"
	"github.com/maheo/foulee/internal/scheduler"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database and run migrations.
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	schema, err := database.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Database ready: %s (schema v%d)", filepath.Clean(cfg.Database.Path), schema)

	// Bootstrap the coach account if no users exist.
	if err := bootstrapCoach(db); err != nil {
		log.Fatalf("Failed to bootstrap coach: %v", err)
	}

	// Parse templates once at startup.
	tc, err := handlers.NewTemplateCache(templateFS)
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// Backend client: one service session for the whole console.
	backend, err := remote.NewClient(cfg.Backend.BaseURL)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}
	if cfg.Backend.Email != "" {
		loginCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := backend.Login(loginCtx, cfg.Backend.Email, cfg.Backend.Password); err != nil {
			log.Printf("Backend login failed (continuing, cached plans only): %v", err)
		}
		cancel()
	}

	// Set up session manager with SQLite store.
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(db)
	sessionManager.Lifetime = 30 * 24 * time.Hour
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.SecureCookies

	// Initialize handlers.
	planner := &handlers.Planner{DB: db, Sessions: sessionManager, Templates: tc, Backend: backend}
	auth := &handlers.Auth{DB: db, Sessions: sessionManager, Templates: tc, OnSessionEnd: planner.Forget}
	athlete := &handlers.Athlete{DB: db, Sessions: sessionManager, Templates: tc, Backend: backend}
	library := &handlers.Library{DB: db, Templates: tc}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	// Authenticated routes — RequireAuth + CSRF.
	requireAuth := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(sessionManager, db, middleware.CSRFProtect(sessionManager, http.HandlerFunc(h)))
	}
	// Coach-only routes add RequireCoach for defense-in-depth.
	requireCoach := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(sessionManager, db, middleware.CSRFProtect(sessionManager, middleware.RequireCoach(http.HandlerFunc(h))))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders)

	// Static files and health check — no auth required.
	r.Method("GET", "/static/*", http.FileServerFS(staticFS))
	r.Get("/health", handleHealth)

	// Login/logout — session loaded, rate limited, but no auth required.
	r.Method("GET", "/login", sessionManager.LoadAndSave(http.HandlerFunc(auth.LoginPage)))
	r.Method("POST", "/login", loginLimiter.Limit(sessionManager.LoadAndSave(http.HandlerFunc(auth.LoginSubmit))))
	r.Method("POST", "/logout", sessionManager.LoadAndSave(http.HandlerFunc(auth.Logout)))

	r.Method("GET", "/", requireAuth(planner.Index))

	// Plan editor (coach only).
	r.Method("POST", "/plan/open", requireCoach(planner.Open))
	r.Method("GET", "/plan", requireCoach(planner.Grid))
	r.Method("POST", "/plan/navigate", requireCoach(planner.Navigate))
	r.Method("POST", "/plan/copy", requireCoach(planner.CopyWeek))
	r.Method("POST", "/plan/paste", requireCoach(planner.PasteWeek))
	r.Method("POST", "/plan/save", requireCoach(planner.Save))
	r.Method("POST", "/plan/slot/cancel", requireCoach(planner.CancelEdit))
	r.Method("GET", "/plan/slot/{week}/{day}/{slot}/edit", requireCoach(planner.EditSlotForm))
	r.Method("POST", "/plan/slot/{week}/{day}/{slot}", requireCoach(planner.UpdateSlot))
	r.Method("POST", "/plan/slot/{week}/{day}/{slot}/toggle", requireCoach(planner.ToggleSlot))
	r.Method("POST", "/plan/slot/{week}/{day}/{slot}/import", requireCoach(planner.ImportTemplate))
	r.Method("POST", "/plan/slot/{week}/{day}/{slot}/export", requireCoach(planner.ExportTemplate))

	// Summary and read-only athlete view.
	r.Method("GET", "/summary", requireAuth(planner.Summary))
	r.Method("GET", "/athlete", requireAuth(athlete.View))
	r.Method("POST", "/athlete/feedback", requireAuth(athlete.SubmitFeedback))

	// Template library (coach only).
	r.Method("GET", "/templates", requireCoach(library.List))
	r.Method("POST", "/templates", requireCoach(library.Create))
	r.Method("POST", "/templates/{id}/delete", requireCoach(library.Delete))

	// Background maintenance: cache pruning and feedback polling.
	notifier := notify.New(cfg.Notify.URLs)
	sched := scheduler.New(db, backend, notifier, cfg.Scheduler.Interval, cfg.Scheduler.CacheRetention)
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		log.Printf("Foulée listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// bootstrapCoach creates the initial coach user from environment variables
// if no users exist in the database.
func bootstrapCoach(db *sql.DB) error {
	count, err := models.CountUsers(db)
	if err != nil {
		return fmt.Errorf("check user count: %w", err)
	}
	if count > 0 {
		return nil
	}

	username := os.Getenv("FOULEE_ADMIN_USER")
	password := os.Getenv("FOULEE_ADMIN_PASS")
	email := os.Getenv("FOULEE_ADMIN_EMAIL")

	if username == "" || password == "" {
		return fmt.Errorf("no users exist and FOULEE_ADMIN_USER / FOULEE_ADMIN_PASS env vars are not set")
	}

	user, err := models.CreateUser(db, username, password, email, true)
	if err != nil {
		return fmt.Errorf("create coach user: %w", err)
	}

	log.Printf("Bootstrapped coach user: %s (id=%d)", user.Username, user.ID)
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}
