package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sagepoint/homepricing/internal/dataset"
	"github.com/sagepoint/homepricing/internal/httpapi"
	"github.com/sagepoint/homepricing/internal/valuation"
)

func main() {
	_ = godotenv.Load()

	dataFlag := flag.String("data", "", "path to the property data directory (overrides DATA_DIR)")
	dbFlag := flag.String("db", "", "path to SQLite dataset cache (overrides DB_PATH; empty serves straight from the data files)")
	configFlag := flag.String("config", "", "path to JSON scoring config overlay (overrides CONFIG_FILE)")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "pricing-server").Logger()

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	dataDir := *dataFlag
	if dataDir == "" {
		dataDir = os.Getenv("DATA_DIR")
	}
	if dataDir == "" {
		dataDir = "./data"
	}

	cfg := valuation.DefaultConfig()
	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("CONFIG_FILE")
	}
	if configPath != "" {
		loaded, err := valuation.LoadConfigFromFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load scoring config")
		}
		cfg = loaded
		log.Info().Str("path", configPath).Msg("loaded scoring config overlay")
	}

	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}

	loader := dataset.NewLoader(dataDir, log)
	var source httpapi.DataSource = loader
	if dbPath != "" {
		store, err := dataset.NewStore(dbPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", dbPath).Msg("open dataset cache")
		}
		defer store.Close()

		// Warm the cache from the data files; a stale cache still serves
		// requests when the files are missing or malformed.
		if ds, err := loader.Load(); err != nil {
			log.Warn().Err(err).Str("dir", dataDir).Msg("dataset load failed, serving cached copy")
		} else if err := store.Put(ds); err != nil {
			log.Fatal().Err(err).Str("path", dbPath).Msg("cache dataset")
		}
		source = store
		log.Info().Str("path", dbPath).Msg("dataset cache enabled")
	}

	handler := httpapi.NewServer(valuation.NewAssembler(cfg), source, log)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", addr).Str("data_dir", dataDir).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
