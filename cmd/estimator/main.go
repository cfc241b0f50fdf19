// cmd/estimator/main.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tender-estimator/internal/ai/embedding"
	"tender-estimator/internal/ai/generative"
	"tender-estimator/internal/api"
	"tender-estimator/internal/common/auth"
	"tender-estimator/internal/common/aws"
	"tender-estimator/internal/common/config"
	"tender-estimator/internal/common/database"
	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/common/observability"
	adjustregion "tender-estimator/internal/pipeline/adjust-region"
	fallbackestimate "tender-estimator/internal/pipeline/fallback-estimate"
	"tender-estimator/internal/pipeline/orchestrator"
	retrievelabour "tender-estimator/internal/pipeline/retrieve-labour"
	retrievepricing "tender-estimator/internal/pipeline/retrieve-pricing"
	scorecomplexity "tender-estimator/internal/pipeline/score-complexity"
	synthesizeestimate "tender-estimator/internal/pipeline/synthesize-estimate"
	"tender-estimator/internal/stores/labour"
	"tender-estimator/internal/stores/pricing"
	"tender-estimator/internal/stores/project"
	"tender-estimator/internal/stores/region"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// snsNotifier adapts the SNS client to the orchestrator's notifier port.
type snsNotifier struct {
	client *aws.SNSClient
}

func (n *snsNotifier) PublishEstimateReady(ctx context.Context, msg orchestrator.NotificationMessage) error {
	return n.client.PublishEstimateReady(ctx, aws.EstimateReadyMessage{
		EstimateID:    msg.EstimateID,
		ProjectID:     msg.ProjectID,
		CallerID:      msg.CallerID,
		TotalEstimate: msg.TotalEstimate,
		Confidence:    msg.Confidence,
		FallbackUsed:  msg.FallbackUsed,
		GeneratedAt:   msg.GeneratedAt,
	})
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting tender estimator...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs, err := observability.NewMetrics()
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AI clients ---
	// Both are optional: without a credential the pipeline runs keyword-only
	// retrieval and answers through the fallback estimator.
	var embedder embedding.Embedder
	var generator generative.Generator
	if cfg.GenAI.APIKey != "" {
		embedClient, err := embedding.NewClient(ctx, cfg.GenAI.APIKey, cfg.GenAI.EmbeddingModel)
		if err != nil {
			zapLog.Warn("embedding client unavailable, vector search disabled", zap.Error(err))
		} else {
			embedder = embedClient
		}

		genClient, err := generative.NewClient(ctx, cfg.GenAI.APIKey, cfg.GenAI.GenerativeModel)
		if err != nil {
			zapLog.Warn("generative client unavailable, synthesis disabled", zap.Error(err))
		} else {
			generator = genClient
		}
	} else {
		zapLog.Warn("no GenAI API key configured, synthesis and vector search disabled")
	}

	// --- Stores ---
	pricingStore := pricing.NewStore(esClient.Client, cfg.Database.Elasticsearch.PricingIndex)
	labourStore := labour.NewStore(esClient.Client, cfg.Database.Elasticsearch.LabourIndex)
	regionStore := region.NewStore(
		pg.DB, redis.Client,
		time.Duration(cfg.Pipeline.RegionCacheTTL)*time.Second,
		log,
	)
	projectStore := project.NewStore(pg.DB)

	// --- Pipeline handlers ---
	pricingHandler := retrievepricing.NewHandler(
		&retrievepricing.Config{
			EmbedTimeout:  time.Duration(cfg.Pipeline.EmbedTimeout) * time.Millisecond,
			SearchTimeout: time.Duration(cfg.Pipeline.RetrievalTimeout) * time.Millisecond,
			VectorLimit:   cfg.Pipeline.VectorLimit,
			KeywordLimit:  cfg.Pipeline.KeywordLimit,
			MergedLimit:   cfg.Pipeline.MergedLimit,
			MinSimilarity: cfg.Pipeline.MinSimilarity,
		},
		pricingStore, embedder, log,
	)

	labourHandler := retrievelabour.NewHandler(
		&retrievelabour.Config{
			SearchTimeout: time.Duration(cfg.Pipeline.RetrievalTimeout) * time.Millisecond,
			Limit:         cfg.Pipeline.LabourLimit,
		},
		labourStore, log,
	)

	regionHandler := adjustregion.NewHandler(regionStore, log)
	scorerHandler := scorecomplexity.NewHandler(log)
	fallbackHandler := fallbackestimate.NewHandler(log)

	var synthesizer orchestrator.Synthesizer
	if generator != nil {
		synthesizer = synthesizeestimate.NewHandler(
			&synthesizeestimate.Config{
				Timeout:         time.Duration(cfg.Pipeline.SynthesisTimeout) * time.Millisecond,
				BaseTokenBudget: cfg.Pipeline.BaseTokenBudget,
				MaxTokenBudget:  cfg.Pipeline.MaxTokenBudget,
				Temperature:     0.2,
				MaxPricingItems: 12,
				MaxLabourItems:  5,
			},
			generator, log,
		)
	}

	// --- Notifications ---
	var notifier orchestrator.Notifier
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Warn("SNS client unavailable, notifications disabled", zap.Error(err))
		} else {
			notifier = &snsNotifier{client: snsClient}
		}
	}

	orch := orchestrator.NewOrchestrator(
		&orchestrator.Config{
			OverallTimeout:   time.Duration(cfg.Pipeline.OverallTimeout) * time.Millisecond,
			RetrievalTimeout: time.Duration(cfg.Pipeline.RetrievalTimeout) * time.Millisecond,
			PersistTimeout:   time.Duration(cfg.Pipeline.PersistTimeout) * time.Millisecond,
		},
		pricingHandler,
		labourHandler,
		regionHandler,
		scorerHandler,
		synthesizer,
		fallbackHandler,
		projectStore,
		notifier,
		obs,
		log,
	)

	validator := auth.NewAPIKeyValidator(cfg.Auth.APIKeys)

	server := api.NewServer(&cfg.Server, orch, validator, log)
	server.RegisterHealthCheck("postgres", pg.Ping)
	server.RegisterHealthCheck("elasticsearch", func(context.Context) error { return esClient.Ping() })
	server.RegisterHealthCheck("redis", redis.Ping)
	if err := server.Start(); err != nil {
		zapLog.Fatal("server failed", zap.Error(err))
	}

	zapLog.Info("Tender estimator stopped gracefully")
}
