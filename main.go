package main

import (
	"context"
	"log"
	"time"

	"github.com/OutletRadar/outlet-api/config"
	"github.com/OutletRadar/outlet-api/handlers"
	"github.com/OutletRadar/outlet-api/middleware"
	"github.com/OutletRadar/outlet-api/routes"
	"github.com/OutletRadar/outlet-api/services"
	"github.com/OutletRadar/outlet-api/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	upstream := services.NewUpstreamClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	store := services.NewOutletStore(upstream, cfg.PrefetchConcurrency)
	hub := handlers.NewMapHub()

	// Initial snapshot. Failure is not fatal: the outlet endpoints answer
	// 503 until the background refresh succeeds, which is the page-level
	// retry state the frontend expects.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout)
	if err := store.Refresh(ctx); err != nil {
		log.Printf("❌ Initial outlet fetch failed: %v", err)
	} else {
		log.Printf("✅ Outlet snapshot loaded: %d outlets", store.Len())
		go store.PrefetchHours(context.Background())
	}
	cancel()

	go scheduleSnapshotRefresh(store, cfg.SnapshotRefresh, cfg.UpstreamTimeout)

	router := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		log.Printf("📨 %s %s - %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration)
	})

	router.Use(middleware.RateLimiter(100, time.Minute))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ws/map", hub.HandleWS)
		routes.SetupOutletRoutes(v1, store, hub)
		routes.SetupChatRoutes(v1, upstream, hub)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"outlets": store.Len(),
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	utils.LogStartup("outlet-api", "1.0.0", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// scheduleSnapshotRefresh re-fetches the outlet snapshot on an interval and
// backfills missing operating hours after each successful refresh.
func scheduleSnapshotRefresh(store *services.OutletStore, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := store.Refresh(ctx); err != nil {
			log.Printf("⚠️ Snapshot refresh failed: %v", err)
		} else {
			store.PrefetchHours(context.Background())
		}
		cancel()
	}
}
