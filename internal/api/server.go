// Package api serves the solver over HTTP with fiber.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/piwi3910/optimystic/internal/export"
	"github.com/piwi3910/optimystic/internal/importer"
	"github.com/piwi3910/optimystic/internal/project"
	"github.com/piwi3910/optimystic/internal/service"
	"github.com/piwi3910/optimystic/internal/templates"
)

// AppName is reported by the health check and the fiber banner.
const AppName = "OptiMystic Solver"

// NewApp builds the fiber app with middleware and all routes.
func NewApp(svc *service.Service) *fiber.App {
	cfg := svc.Config()
	// Solves may run up to the configured limit, plus time to render exports.
	writeTimeout := time.Duration(cfg.MaxTimeLimitSeconds*float64(time.Second)) + 30*time.Second

	app := fiber.New(fiber.Config{
		AppName:               AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          writeTimeout,
		BodyLimit:             cfg.BodyLimitBytes,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	SetupRoutes(app, svc)
	return app
}

// SetupRoutes registers the health check and the /api/v1 routes.
func SetupRoutes(app *fiber.App, svc *service.Service) {
	app.Get("/healthz", HealthCheckHandler)

	v1 := app.Group("/api/v1")
	v1.Get("/templates", TemplatesHandler(svc))
	v1.Post("/templates/:mode/model", GenerateModelHandler(svc))
	v1.Post("/solve", SolveHandler(svc))

	cutting := v1.Group("/cutting")
	cutting.Post("/solve", SolveCuttingHandler(svc))
	cutting.Post("/compare", CompareHandler(svc))
	cutting.Post("/export/:format", ExportHandler(svc))

	v1.Post("/import/:table", ImportHandler(svc))

	projects := v1.Group("/projects")
	projects.Get("/", ListProjectsHandler(svc))
	projects.Post("/", SaveProjectHandler(svc))
	projects.Get("/:id", GetProjectHandler(svc))
	projects.Delete("/:id", DeleteProjectHandler(svc))

	v1.Get("/inventory", InventoryHandler(svc))
	v1.Post("/inventory", AddPresetsHandler(svc))
	v1.Get("/inventory/:id", PresetHandler(svc))
}

// ErrorHandler renders every error as {"error":{"code","message"}}.
// Domain errors map to 400 or 404; anything else is a 500 whose detail is
// only logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	message := err.Error()
	if code == fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, templates.ErrInvalidInput),
		errors.Is(err, templates.ErrKerfTooWide),
		errors.Is(err, export.ErrNoPlan):
		return fiber.StatusBadRequest
	case errors.Is(err, templates.ErrUnknownTemplate),
		errors.Is(err, importer.ErrUnknownTable),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, project.ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// parseBody decodes the JSON request body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON format: "+err.Error())
	}
	return nil
}
