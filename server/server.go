package server

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/sirupsen/logrus"

	"go-portscout/config"
	"go-portscout/database"
	"go-portscout/manager"
)

// New prepares the fiber app serving the scan API.
func New(m *manager.Manager, cfg config.Server) *fiber.App {
	h := Handler{m: m}

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Origin", "Accept"},
		AllowOrigins: cfg.AllowOrigins,
	}))

	// Define routes
	app.Post("/scan", h.ScanHandler)
	app.Get("/scans", h.HistoryHandler)
	app.Get("/scans/:id", h.ResultHandler)
	app.Get("/settings", h.CurrentSettingsHandler)
	app.Post("/settings", h.SettingsHandler)

	return app
}

// Start opens the database and serves the API until SIGINT or SIGTERM.
func Start(cfg config.Config) error {
	// Initiate database
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	app := New(manager.NewManager(db, cfg.Scanner), cfg.Server)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logrus.Infof("Shutting down on %s", sig)
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("shutdown error: %v", err)
		}
	}()

	logrus.Infof("Backend server started on %s", cfg.Server.Addr)
	return app.Listen(cfg.Server.Addr)
}
