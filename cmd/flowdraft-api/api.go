// Package main provides the Flowdraft API server implementation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/flowdraft/pkg/cache"
	"github.com/dukex/flowdraft/pkg/diff"
	"github.com/dukex/flowdraft/pkg/editor"
	"github.com/dukex/flowdraft/pkg/eventbus"
	"github.com/dukex/flowdraft/pkg/events"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/dukex/flowdraft/pkg/roles"
	"github.com/dukex/flowdraft/pkg/services"
	"github.com/dukex/flowdraft/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the tunables exposed as command line flags.
type Config struct {
	CacheTTL        time.Duration
	DraftTTL        time.Duration
	SaveTimeout     time.Duration
	CleanupInterval time.Duration
	DiffMaxCells    int
}

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	handlers    *web.APIHandlers
	drafts      *editor.Manager
	draftEvents *draftEvents
	janitor     *cache.Janitor
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	rosterCache cache.Cache,
	tracer trace.Tracer,
	cfg Config,
) (*API, error) {
	a := &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		draftEvents: newDraftEvents(logger, eventBus),
	}

	roster := roles.NewCached(logger, roles.NewRepository(persistence.RoleRepository()), rosterCache, cfg.CacheTTL)

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithTracer(tracer),
		services.WithPublisher(eventBus),
		services.WithRoles(roster),
	}

	workflowService := services.NewWorkflow(persistence, opts...)
	differ := diff.NewDiffer(cfg.DiffMaxCells)
	documentService := services.NewDocument(persistence, differ, opts...)
	roleService := services.NewRole(persistence, roster, opts...)

	a.drafts = editor.NewManager(workflowService, cache.NewStore[*editor.Session](cfg.DraftTTL), editor.Config{
		SaveTimeout: cfg.SaveTimeout,
		Roles:       roster,
		Listener:    a.publishDraftState,
		Logger:      logger,
	})

	targets := []cache.Cleaner{a.drafts}
	if cleaner, ok := rosterCache.(cache.Cleaner); ok {
		targets = append(targets, cleaner)
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}

	janitor, err := cache.NewJanitor(logger, interval, targets...)
	if err != nil {
		a.draftEvents.Close()

		return nil, fmt.Errorf("failed to create cache janitor: %w", err)
	}

	a.janitor = janitor
	a.handlers = web.NewAPIHandlers(workflowService, documentService, roleService, a.drafts, differ, a.validate)

	return a, nil
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(recoverer.New())
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.persistence.HealthCheck(c.Context()) == nil
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowdraft API")
	})

	web.RegisterRoutes(app, a.handlers)

	return app
}

// Start runs the API until the listener stops. Cache cleanup runs for the
// same lifetime.
func (a *API) Start(ctx context.Context, port int) error {
	if err := a.subscribe(ctx); err != nil {
		return err
	}

	a.janitor.Start()

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.janitor.Stop(stopCtx); err != nil {
			a.logger.Error("Failed to stop cache janitor", "error", err)
		}

		a.draftEvents.Close()
	}()

	return a.App().Listen(":" + strconv.Itoa(port))
}

// publishDraftState runs with the session lock held, so the broker call is
// left to the draft event worker.
func (a *API) publishDraftState(workflowID string, from, to editor.State, dirty bool) {
	a.draftEvents.enqueue(events.DraftStateChanged{
		BaseEvent:  events.NewBaseEvent(events.DraftStateChangedEvent),
		WorkflowID: workflowID,
		From:       from.String(),
		To:         to.String(),
		Dirty:      dirty,
	})
}

// subscribe logs every domain event seen on the bus.
func (a *API) subscribe(ctx context.Context) error {
	audit := a.logger.With("module", "event_audit")

	for _, eventType := range []events.EventType{
		events.GraphSavedEvent,
		events.DraftStateChangedEvent,
		events.DocumentRestoredEvent,
	} {
		err := a.eventBus.Handle(eventType, func(ctx context.Context, event any) error {
			audit.DebugContext(ctx, "Event received", "event_type", eventType, "event", event)

			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	return a.eventBus.Subscribe(ctx)
}
