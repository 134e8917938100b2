package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantoracle/internal/api"
	"github.com/wonny/quantoracle/internal/api/handlers"
	"github.com/wonny/quantoracle/pkg/redis"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API serving the latest rankings, portfolios, and
model metadata, plus a websocket stream of pipeline events.

Endpoints:
  GET  /health             - Health check
  GET  /api/rankings       - Top/bottom N by predicted return (?n=)
  GET  /api/portfolio      - Long/short weights (?long_n=&short_n=&gross=&net=&max_w=)
  GET  /api/models/latest  - Published model version + meta
  GET  /api/stream         - Websocket pipeline events

Example:
  go run ./cmd/quantoracle api
  go run ./cmd/quantoracle api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from config)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	d, err := newDeps()
	if err != nil {
		return err
	}
	if apiPort != "" {
		d.cfg.Port = apiPort
	}

	// cache degrades to a no-op when redis is disabled in config
	redisClient, err := redis.New(d.cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "quantoracle")

	hub := api.NewHub(d.log)
	familyID := d.familyID()

	router := api.NewRouter(
		handlers.NewRankingsHandler(d.reg, d.feats, d.predictor(), cache, familyID, d.log),
		handlers.NewPortfolioHandler(d.reg, d.feats, d.predictor(), cache, familyID, d.log),
		handlers.NewModelsHandler(d.reg, familyID, d.log),
		hub,
		d.log,
	)

	server := api.New(d.cfg, d.log, router)

	go func() {
		if err := server.Start(); err != nil {
			d.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("✅ Server running on http://localhost:%s\n", d.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
