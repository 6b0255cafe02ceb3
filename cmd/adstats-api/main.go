package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adxyz/adstats/pkg/archive"
	"github.com/adxyz/adstats/pkg/config"
	"github.com/adxyz/adstats/pkg/ingest"
	"github.com/adxyz/adstats/pkg/log"
	"github.com/adxyz/adstats/pkg/metric"
	"github.com/adxyz/adstats/pkg/report"
)

var (
	addr       = flag.String("addr", "", "Listen address (overrides config)")
	configPath = flag.String("config", "", "Path to YAML config file")
	dbPath     = flag.String("db", "", "Path to report archive (overrides config)")
	schemaPath = flag.String("schema", "", "Path to schema registry YAML (default: built-in)")
	env        = flag.String("env", "development", "Environment (development/production)")
)

func main() {
	flag.Parse()

	logger := log.New()
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", log.Error(err))
	}
	if *addr != "" {
		cfg.API.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Archive.Path = *dbPath
	}

	if *schemaPath != "" {
		cfg.Ingest.SchemaRegistry = *schemaPath
	}

	registry := ingest.DefaultRegistry()
	if cfg.Ingest.SchemaRegistry != "" {
		registry, err = ingest.LoadRegistry(cfg.Ingest.SchemaRegistry)
		if err != nil {
			logger.Fatal("failed to load schema registry", log.Error(err))
		}
	}

	arch, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		logger.Fatal("failed to open archive", log.Error(err))
	}
	defer arch.Close()

	metrics := metric.NewMetrics()
	svc := report.NewService(registry, cfg, logger, metrics, arch)

	router := setupRouter(cfg, svc, arch, metrics)

	srv := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", log.Error(err))
		}
	}()
	logger.Info("adstats API server started", log.String("addr", cfg.API.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", log.Error(err))
	}
}

func setupRouter(cfg config.Config, svc *report.Service, arch *archive.Archive, metrics *metric.Metrics) *gin.Engine {
	if *env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(cfg.API.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.API.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsCfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	router.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(metrics.Gatherer(), promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.POST("/reports", generateReport(svc))
		api.GET("/reports", listReports(arch))
		api.GET("/reports/:id", getReport(arch))
		api.DELETE("/reports/:id", deleteReport(arch))
	}
	return router
}

// generateReport accepts a multipart CSV upload plus campaign_id and an
// optional goal, runs the full pipeline, and returns the report document.
func generateReport(svc *report.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, err := strconv.ParseInt(c.PostForm("campaign_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "campaign_id must be an integer"})
			return
		}

		runner := svc
		if goalStr := c.PostForm("goal"); goalStr != "" {
			goal, err := strconv.ParseInt(goalStr, 10, 64)
			if err != nil || goal < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "goal must be a non-negative integer"})
				return
			}
			runner = svc.WithGoal(goal)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		out, err := runner.GenerateFromReader(f, campaignID)
		if err != nil {
			status := http.StatusUnprocessableEntity
			if _, ok := err.(*report.CampaignNotFoundError); ok {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func listReports(arch *archive.Archive) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := arch.List()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": summaries})
	}
}

func getReport(arch *archive.Archive) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, found, err := arch.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func deleteReport(arch *archive.Archive) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := arch.Delete(c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
