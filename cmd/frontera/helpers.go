package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/frontera-freight/frontera/internal/common"
	"github.com/frontera-freight/frontera/internal/config"
	"github.com/frontera-freight/frontera/internal/distance"
	"github.com/frontera-freight/frontera/internal/engine"
	"github.com/frontera-freight/frontera/internal/model"
	"github.com/frontera-freight/frontera/internal/predictor"
	"github.com/frontera-freight/frontera/internal/routing"
	"github.com/frontera-freight/frontera/internal/service"
	"github.com/frontera-freight/frontera/internal/storage"
)

const (
	defaultUSDToBRL = 5.40
	defaultUSDToGS  = 7500
)

// initStorage opens the database and applies pending migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/frontera/frontera.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initResolver builds the distance resolver on top of the routing client.
func initResolver() (*distance.Resolver, error) {
	baseURL := viper.GetString("routing.base_url")
	if baseURL == "" {
		return nil, common.NewUserError(
			"routing API not configured; set routing.base_url or FRONTERA_ROUTING_BASE_URL",
			common.ErrMissingConfig)
	}

	router, err := routing.NewClient(baseURL, viper.GetString("routing.api_key"))
	if err != nil {
		return nil, err
	}

	cfg := distance.DefaultConfig()
	if km := viper.GetFloat64("distance.traversal_km"); km > 0 {
		cfg.TraversalKm = km
	}
	if factor := viper.GetFloat64("distance.road_factor"); factor > 0 {
		cfg.RoadFactor = factor
	}
	if timeout := viper.GetDuration("routing.timeout"); timeout > 0 {
		cfg.LegTimeout = timeout
	}

	return distance.NewResolver(router, cfg), nil
}

// initEngine wires the resolver into the ranking engine.
func initEngine() (*engine.Engine, error) {
	resolver, err := initResolver()
	if err != nil {
		return nil, err
	}

	opts := engine.DefaultOptions()
	if workers := viper.GetInt("engine.workers"); workers > 0 {
		opts.ParallelWorkers = workers
	}

	return engine.New(resolver, opts), nil
}

// initBridge builds the prediction bridge from config.
func initBridge() (*predictor.Bridge, error) {
	scriptPath := viper.GetString("predictor.script")
	if scriptPath == "" {
		return nil, common.NewUserError(
			"prediction model not configured; set predictor.script or FRONTERA_PREDICTOR_SCRIPT",
			common.ErrMissingConfig)
	}

	return predictor.New(predictor.Config{
		PythonPath:       viper.GetString("predictor.python"),
		ScriptPath:       config.ExpandPath(scriptPath),
		ModelVariant:     viper.GetString("predictor.model_variant"),
		Timeout:          viper.GetDuration("predictor.timeout"),
		RetrainThreshold: viper.GetInt("predictor.retrain_threshold"),
	})
}

// requestRates builds the exchange rate set from flags, falling back to
// configured then built-in defaults.
func requestRates(usdToBRL, usdToGS float64) model.ExchangeRateSet {
	if usdToBRL <= 0 {
		usdToBRL = viper.GetFloat64("rates.usd_brl")
	}
	if usdToBRL <= 0 {
		usdToBRL = defaultUSDToBRL
	}
	if usdToGS <= 0 {
		usdToGS = viper.GetFloat64("rates.usd_gs")
	}
	if usdToGS <= 0 {
		usdToGS = defaultUSDToGS
	}
	return model.ExchangeRateSet{USDToBRL: usdToBRL, USDToGS: usdToGS}
}

func commandTimeout() time.Duration {
	if timeout := viper.GetDuration("command.timeout"); timeout > 0 {
		return timeout
	}
	return 5 * time.Minute
}
