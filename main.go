package main

import (
	"log"
	"log/slog"
	"net/http"

	"intelligencedev/backend/auth"
	"intelligencedev/backend/config"
	"intelligencedev/backend/database"
	"intelligencedev/backend/handlers"
	"intelligencedev/backend/logger"
	"intelligencedev/backend/mailer"
	"intelligencedev/backend/metrics"
	"intelligencedev/backend/middleware"
	"intelligencedev/backend/session"
	"intelligencedev/frontend/static"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := session.Init(); err != nil {
		log.Fatal("Failed to init session store:", err)
	}

	if err := database.Init(); err != nil {
		log.Fatal("Failed to init database:", err)
	}

	// Structured logging into stdout and the log_entries table
	slog.SetDefault(slog.New(logger.NewDBHandler(database.DB)))
	go logger.CleanupOldLogs(database.DB, config.C.Logs.Retention)

	handlers.Auth = auth.NewService(database.DB)
	handlers.Metrics = metrics.NewService(database.DB)
	handlers.Mail = mailer.New(config.C.Mail.Transport, mailer.Config{
		Host:       config.C.Mail.Host,
		Port:       config.C.Mail.Port,
		Encryption: config.C.Mail.Encryption,
		Username:   config.C.Mail.Username,
		Password:   config.C.Mail.Password,
		FromEmail:  config.C.Mail.FromEmail,
		FromName:   config.C.Mail.FromName,
		Timeout:    config.C.Mail.Timeout,
		EhloDomain: config.C.Mail.EhloDomain,
	})

	slog.Info("server starting", "source", "main", "listen", config.C.Listen, "public_url", config.C.PublicURL)

	mux := http.NewServeMux()

	// Health check (unauthenticated, for load balancers)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /{$}", handlers.HomePage)
	mux.Handle("GET /style.css", static.Handler())

	mux.HandleFunc("GET /login", handlers.LoginPage)
	mux.HandleFunc("POST /login", handlers.Login)
	mux.HandleFunc("GET /register", handlers.RegisterPage)
	mux.HandleFunc("POST /register", handlers.Register)
	mux.HandleFunc("GET /verify", handlers.VerifyPage)
	mux.HandleFunc("POST /verify", handlers.Verify)
	mux.HandleFunc("POST /logout", handlers.Logout)

	mux.HandleFunc("GET /profile", middleware.RequireAuth(handlers.ProfilePage))

	handler := middleware.SecurityHeaders(mux)

	if config.C.TLS.Enabled {
		slog.Info("starting server with TLS", "source", "main")
		log.Fatal(http.ListenAndServeTLS(config.C.Listen, config.C.TLS.Cert, config.C.TLS.Key, handler))
	} else {
		log.Fatal(http.ListenAndServe(config.C.Listen, handler))
	}
}
