package container

import (
	"net/http"

	"go-receipt-recognizer/internal/config"
	"go-receipt-recognizer/internal/diag"
	"go-receipt-recognizer/internal/engine"
	"go-receipt-recognizer/internal/logger"
	"go-receipt-recognizer/internal/preflight"
	"go-receipt-recognizer/internal/recognizer"
	"go-receipt-recognizer/internal/repository"
	"go-receipt-recognizer/internal/service"
	"go-receipt-recognizer/internal/storage"
	"go-receipt-recognizer/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	publisher *diag.Publisher
	pipeline  *recognizer.Pipeline
	service   service.ReceiptRecognitionService
	handler   http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	publisher := diag.NewPublisher()
	publisher.Subscribe(diag.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(diag.NewMetricsObserver())
	if cfg.DebugLogPath != "" {
		publisher.Subscribe(diag.NewFileObserver(cfg.DebugLogPath))
	}

	var blobSource storage.ImageSource
	if cfg.AzureEnabled() {
		azure, err := storage.NewAzureImageSource(cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return nil, err
		}
		blobSource = azure
	}

	imageRepository := repository.NewImageRepository(
		storage.NewLocalImageSource(),
		storage.NewHTTPImageSource(cfg.ImageFetchTimeout),
		blobSource,
	)

	ocrEngine := engine.NewTesseractEngine(cfg.OCRLanguage)
	pipeline := recognizer.NewPipeline(ocrEngine, recognizer.PipelineOptions{
		TempDir:    cfg.TempDir,
		MaxWorkers: cfg.MaxWorkers,
		Publisher:  publisher,
	})

	svc := service.NewReceiptRecognitionService(
		imageRepository,
		pipeline,
		preflight.NewChecker(),
		publisher,
	)
	handler := transport.NewHandler(svc, cfg)

	return &Container{
		config:    cfg,
		publisher: publisher,
		pipeline:  pipeline,
		service:   svc,
		handler:   handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
