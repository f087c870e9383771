package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"FaithGive/internal/database"
	"FaithGive/internal/gateway"
	"FaithGive/internal/handlers"
	"FaithGive/internal/routes"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations and seed the giving config
	if err := database.Migrate(); err != nil {
		log.Fatal("❌ Failed to migrate database:", err)
	}
	log.Println("✅ Database connected and migrated successfully")

	// Initialize the giving core with the configured gateway adapter
	handlers.InitGivingCore(selectCharger())

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "FaithGive Giving API v1.0",
		BodyLimit: 1 * 1024 * 1024,
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to the FaithGive Giving API",
			"status":  "running",
			"version": "1.0",
		})
	})

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "FaithGive",
		})
	})

	// Setup application routes
	routes.SetupGivingRoutes(app)
	routes.SetupPlanRoutes(app)
	routes.SetupWebhookRoutes(app)
	routes.SetupNotificationRoutes(app)

	// Background loops: session expiry sweep, retry pump, plan
	// scheduler. Conditions are recomputed against now on every pass,
	// so a delayed tick only delays detection.
	startLoop("sweep", 60*time.Second, func(now time.Time) {
		if n, err := handlers.SessionManager().SweepExpired(now); err != nil {
			log.Printf("sweep: %v", err)
		} else if n > 0 {
			log.Printf("sweep: expired %d session(s)", n)
		}
	})
	startLoop("retry", 30*time.Second, func(now time.Time) {
		if n := handlers.RetryCoordinator().ProcessDue(now); n > 0 {
			log.Printf("retry: started %d attempt(s)", n)
		}
	})
	startLoop("scheduler", 60*time.Second, func(now time.Time) {
		if n := handlers.PlanScheduler().Tick(now); n > 0 {
			log.Printf("scheduler: spawned %d transaction(s)", n)
		}
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 FaithGive server starting on http://localhost:%s", port)
	log.Fatal(app.Listen(":" + port))
}

// selectCharger picks the gateway adapter. Business logic never knows
// which one it got.
func selectCharger() gateway.Charger {
	if os.Getenv("GATEWAY_PROVIDER") == "mock" {
		log.Println("⚠️  Using the mock payment gateway")
		return gateway.NewMockCharger()
	}
	return gateway.NewMomoClient()
}

func startLoop(name string, interval time.Duration, fn func(now time.Time)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for now := range ticker.C {
			fn(now)
		}
	}()
	log.Printf("⏱  %s loop running every %s", name, interval)
}
