// Package main provides the Flowgate API server implementation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dukex/flowgate/pkg/eventbus"
	"github.com/dukex/flowgate/pkg/events"
	"github.com/dukex/flowgate/pkg/persistence"
	"github.com/dukex/flowgate/pkg/services"
	"github.com/dukex/flowgate/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		eventBus:    eventBus,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	opts := []services.FlowOption{services.WithLogger(a.logger)}
	if a.eventBus != nil {
		opts = append(opts, services.WithPublisher(a.eventBus))
	}

	if a.tracer != nil {
		opts = append(opts, services.WithTracer(a.tracer))
	}

	flowService := services.NewFlow(a.persistence, opts...)
	schemaService := services.NewSchema(a.persistence, nil)

	handlers := web.NewAPIHandlers(flowService, schemaService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowgate API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

// WatchLifecycle logs every flow lifecycle event delivered by the bus.
func (a *API) WatchLifecycle(ctx context.Context) error {
	if a.eventBus == nil {
		return nil
	}

	lifecycle := a.logger.With("component", "lifecycle")

	handler := func(ctx context.Context, event any) error {
		switch e := event.(type) {
		case *events.FlowActivated:
			lifecycle.InfoContext(ctx, "Flow went live", "flow_id", e.FlowID, "trigger", e.Trigger, "warnings", e.Warnings)
		case *events.FlowDeactivated:
			lifecycle.InfoContext(ctx, "Flow taken offline", "flow_id", e.FlowID, "reason", e.Reason)
		case *events.FlowValidated:
			lifecycle.DebugContext(ctx, "Flow validated", "flow_id", e.FlowID, "valid", e.Valid, "issues", len(e.Issues))
		}

		return nil
	}

	for _, eventType := range []events.EventType{
		events.FlowActivatedEvent,
		events.FlowDeactivatedEvent,
		events.FlowValidatedEvent,
	} {
		if err := a.eventBus.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	return a.eventBus.Subscribe(ctx)
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
