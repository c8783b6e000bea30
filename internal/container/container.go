package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anime-shed/card-number-reader/internal/assembler"
	"github.com/anime-shed/card-number-reader/internal/config"
	"github.com/anime-shed/card-number-reader/internal/logger"
	"github.com/anime-shed/card-number-reader/internal/observer"
	"github.com/anime-shed/card-number-reader/internal/ocr"
	"github.com/anime-shed/card-number-reader/internal/ocr/tesseract"
	"github.com/anime-shed/card-number-reader/internal/repository"
	"github.com/anime-shed/card-number-reader/internal/service"
	"github.com/anime-shed/card-number-reader/internal/storage"
	"github.com/anime-shed/card-number-reader/internal/transport"
	"github.com/anime-shed/card-number-reader/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	recognizer  *ocr.PooledRecognizer
	engine      *assembler.Engine
	predictions repository.PredictionRepository
	mongo       *repository.MongoPredictionRepository
	publisher   *observer.EventPublisher
	metrics     *observer.MetricsObserver
	service     service.CardNumberService
	handler     http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	engine, err := assembler.NewEngine(assembler.DefaultOptions().WithThreshold(cfg.ClusterThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to create assembly engine: %w", err)
	}

	ocrOpts := ocr.DefaultOptions().
		WithLanguage(cfg.OCRLanguage).
		WithWorkers(cfg.OCRWorkers).
		WithTessdataPrefix(cfg.OCRTessdataPrefix)
	recognizer, err := tesseract.NewRecognizer(ocrOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start OCR workers: %w", err)
	}

	c := &Container{
		config:     cfg,
		recognizer: recognizer,
		engine:     engine,
		publisher:  observer.NewEventPublisher(),
		metrics:    observer.NewMetricsObserver(),
	}

	// Build dependency graph
	var blobs storage.BlobStorage
	if cfg.AzureEnabled() {
		blobs, err = storage.NewAzureStorage(cfg.AzureStorageAccount, cfg.AzureStorageKey)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
	}
	fetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize)
	urlValidator := validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedImageHosts)
	if cfg.BlockPrivateImageHosts {
		urlValidator = urlValidator.WithPrivateNetworksBlocked()
	}
	imageRepository := repository.NewStorageImageRepository(fetcher, blobs, urlValidator)

	if cfg.MongoEnabled() {
		c.mongo, err = repository.NewMongoPredictionRepository(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
		c.predictions = c.mongo
	} else {
		c.predictions = repository.NewMemoryPredictionRepository(0)
	}

	c.publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	c.publisher.Subscribe(c.metrics)

	svcOpts := service.DefaultOptions()
	svcOpts.AnalysisTimeout = cfg.AnalysisTimeout
	svcOpts.Preprocess.MaxDimension = cfg.PreprocessMaxDimension
	c.service = service.NewCardNumberService(
		imageRepository,
		c.predictions,
		recognizer,
		engine,
		c.publisher,
		svcOpts,
	)

	c.handler = transport.NewHandler(c.service, c.metrics, cfg, transport.HealthInfo{
		OCREngine:  "tesseract " + tesseract.Version(),
		OCRWorkers: recognizer.Workers(),
	})

	logger.WithFields(map[string]interface{}{
		"ocr_workers":       recognizer.Workers(),
		"ocr_language":      cfg.OCRLanguage,
		"cluster_threshold": engine.Threshold(),
		"azure_enabled":     cfg.AzureEnabled(),
		"mongo_enabled":     cfg.MongoEnabled(),
	}).Info("Container initialized")

	return c, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the card number service
func (c *Container) Service() service.CardNumberService {
	return c.service
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases OCR workers and the audit store after pending events drain
func (c *Container) Close(ctx context.Context) error {
	c.publisher.Wait()

	var errs []error
	if c.recognizer != nil {
		errs = append(errs, c.recognizer.Close())
	}
	if c.mongo != nil {
		errs = append(errs, c.mongo.Close(ctx))
	}
	return errors.Join(errs...)
}
