package main

import (
	"context"
	"fmt"
	common_api "go-inspect/internal/common/api"
	"go-inspect/internal/config"
	"go-inspect/internal/database"
	"go-inspect/internal/features/archive"
	"go-inspect/internal/features/export"
	"go-inspect/internal/features/janitor"
	"go-inspect/internal/features/operation"
	"go-inspect/internal/features/record"
	"go-inspect/internal/features/schema"
	"go-inspect/internal/features/system"
	"go-inspect/internal/logger"
	"go-inspect/internal/middleware"
	"go-inspect/pkg/utils"
	"log"
	"time"

	_ "go-inspect/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, opRepo operation.Repository, store record.Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := opRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure operation indexes: %v", err)
				}
				if err := store.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure record indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// @title           Inspection Bulk Operation API
// @version         1.0
// @description     Bulk import, update, delete and export engine for inspection records using Fiber and Uber Fx.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Stores and repositories
			record.NewStore,
			operation.NewRepository,

			// Domain services
			schema.NewValidator,
			export.NewExporter,
			archive.NewArchive,
			janitor.NewJanitor,
			operation.NewOperationService,

			// Terminal audit sink
			func(a *archive.Archive) operation.TerminalSink { return a },

			// Initialize Controller
			schema.NewSchemaController,
			operation.NewOperationController,

			// Initialize API Routes
			AsRoute(schema.NewSchemaApi),
			AsRoute(operation.NewOperationApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, j *janitor.Janitor) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return j.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return j.Stop()
					},
				})
			},
			InitializeIndexes,
		),
	)

	app.Run()
}
