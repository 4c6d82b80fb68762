package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tour-planner/arena"
	"tour-planner/config"
)

func main() {
	configPath := flag.String("config", "", "JSON configuration file")
	addr := flag.String("addr", "", "listen address, overrides the configuration")
	obstaclesPath := flag.String("obstacles", "", "GeoJSON obstacle map, overrides the configuration")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	var (
		logger *zap.Logger
		err    error
	)
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load configuration", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *obstaclesPath != "" {
		cfg.Server.Obstacles = *obstaclesPath
	}

	var obstacles []arena.Obstacle
	if cfg.Server.Obstacles != "" {
		obstacles, err = arena.LoadObstacles(cfg.Server.Obstacles)
		if err != nil {
			logger.Fatal("load obstacles", zap.Error(err))
		}
		logger.Info("loaded obstacle map", zap.String("path", cfg.Server.Obstacles), zap.Int("obstacles", len(obstacles)))
	}

	mux := newServer(cfg, obstacles, logger).routes()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("server starting",
		zap.String("addr", cfg.Server.Addr),
		zap.Strings("endpoints", []string{"POST /route", "POST /tour", "GET /health", "GET /metrics"}))
	if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
