// main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/detection"
	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers"
	"github.com/AI-Template-SDK/senso-visibility/services"
	"github.com/AI-Template-SDK/senso-visibility/workflows"
)

// connectDatabase opens the pool, retrying with exponential backoff while
// Postgres comes up
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var db *sqlx.DB

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute

	err := backoff.RetryNotify(func() error {
		conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.ConnectionString())
		if err != nil {
			return err
		}
		db = conn
		return nil
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		zap.L().Warn("[connectDatabase] database not ready, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	return db, nil
}

func loadGlobalGazetteer(path string) (*gazetteer.Gazetteer, error) {
	if path != "" {
		return gazetteer.LoadFile(path)
	}
	return gazetteer.LoadGlobal()
}

func main() {
	envFile := ".env"
	if err := godotenv.Load(); err != nil {
		envFile = "dev.env"
		if err := godotenv.Load("dev.env"); err != nil {
			envFile = ""
		}
	}

	cfg := config.Load()
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zap.L().Sync()
	logger := zap.L()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("env_file", envFile),
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.String("strategy", string(cfg.Detection.Strategy)),
		zap.Bool("discovery_enabled", cfg.Discovery.Enabled),
	)

	ctx := context.Background()
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to database")

	if cfg.Environment == "development" || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		logger.Info("running in development mode, signing key verification disabled")
	}

	global, err := loadGlobalGazetteer(cfg.Detection.GlobalGazetteerPath)
	if err != nil {
		logger.Fatal("failed to load global gazetteer", zap.Error(err))
	}
	logger.Info("global gazetteer loaded", zap.Int("entries", global.Len()))

	costService := services.NewCostService()

	var discoverer detection.Discoverer
	provider, err := providers.NewDiscoverer(cfg, costService)
	switch {
	case err == nil:
		discoverer = provider
	case eris.Is(err, services.ErrDiscoveryDisabled):
		logger.Info("model-assisted discovery disabled")
	default:
		logger.Fatal("failed to create discovery provider", zap.Error(err))
	}

	detector := detection.NewDetector(detection.Options{
		Discoverer:             discoverer,
		DiscoveryTimeout:       cfg.Discovery.Timeout,
		DiscoveryMinConfidence: cfg.Discovery.MinConfidence,
		DiscoveryMaxTerms:      cfg.Discovery.MaxTerms,
	})

	registry := gazetteer.NewRegistry()
	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	visibilityService := services.NewVisibilityService(cfg, detector, registry, global, metrics)
	catalogService := services.NewCatalogService(db)
	resultStore := services.NewResultStore(db)
	analysisLoader := services.NewAnalysisLoader(cfg, catalogService)

	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "senso-visibility",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		logger.Fatal("failed to create Inngest client", zap.Error(err))
	}

	visibilityProcessor := workflows.NewVisibilityProcessor(cfg, visibilityService, analysisLoader, resultStore, workflows.NewSlackAlerter(cfg.SlackWebhookURL))
	visibilityProcessor.SetClient(client)
	visibilityProcessor.AnalyzeQuestionRun()
	visibilityProcessor.ReanalyzeOrg()

	scheduledProcessor := workflows.NewScheduledProcessor(resultStore)
	scheduledProcessor.SetClient(client)
	scheduledProcessor.PendingAnalysisSweep()
	logger.Info("visibility functions registered")

	mux := http.NewServeMux()
	mux.Handle("/api/inngest", client.Serve())
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint for ALB health check
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"senso-visibility","status":"running"}`))
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/test/trigger-analysis", triggerHandler(client, workflows.AnalyzeQuestionRunEventName, "question_run_id"))
	mux.HandleFunc("/test/trigger-reanalysis", triggerHandler(client, workflows.ReanalyzeOrgEventName, "org_id"))

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// triggerHandler sends one event for manual testing; the ID is read from the
// query string under idParam
func triggerHandler(client inngestgo.Client, eventName, idParam string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		id := r.URL.Query().Get(idParam)
		if _, err := uuid.Parse(id); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(fmt.Sprintf(`{"error":"%s must be a UUID"}`, idParam)))
			return
		}

		result, err := client.Send(r.Context(), inngestgo.Event{
			Name: eventName,
			Data: map[string]interface{}{idParam: id, "triggered_by": "manual_test"},
		})
		if err != nil {
			zap.L().Error("[triggerHandler] failed to send test event", zap.String("event", eventName), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf(`{"error":"Failed to send event: %v"}`, err)))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "sent", "event": eventName, "result": result})
	}
}
