package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/Paperlens/internal/config"
	"github.com/markdave123-py/Paperlens/internal/core"
	db "github.com/markdave123-py/Paperlens/internal/core/database"
	"github.com/markdave123-py/Paperlens/internal/core/extraction"
	"github.com/markdave123-py/Paperlens/internal/core/llm"
	objectclient "github.com/markdave123-py/Paperlens/internal/core/object-client"
	"github.com/markdave123-py/Paperlens/internal/core/render"
	"github.com/markdave123-py/Paperlens/internal/core/storage"
	"github.com/markdave123-py/Paperlens/internal/core/streaming"
	"github.com/markdave123-py/Paperlens/internal/services"
)

type App struct {
	DBClient    db.DbClient
	Generator   core.Generator
	Broadcaster *streaming.Broadcaster
	Reports     *services.ReportService
	Streams     *services.StreamService
	Server      *Server

	logger *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready", zap.String("driver", cfg.StoreDriver))

	a := &App{DBClient: dbClient, logger: logger}

	var objClient core.ObjectClient
	if cfg.SourceBackend == "s3" || cfg.ArchiveBackend == "s3" {
		s3c, err := objectclient.NewS3Client(appCtx, cfg, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		objClient = s3c
	}

	files, err := newFileStore(cfg, objClient)
	if err != nil {
		a.Close()
		return nil, err
	}
	sink, err := newArchiveSink(cfg, objClient)
	if err != nil {
		a.Close()
		return nil, err
	}

	gen, err := newGenerator(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the generator, %w", err)
	}
	a.Generator = gen
	logger.Info("generator ready", zap.String("backend", cfg.GenBackend))

	useReadability := false
	extractor := extraction.NewDocconvExtractor(useReadability)

	a.Broadcaster = streaming.NewBroadcaster(cfg.StreamBuffer, logger.Named("broadcaster"))
	a.Reports = services.NewReportService(services.ReportDeps{
		Sources:   dbClient,
		Files:     files,
		Extractor: extractor,
		Generator: gen,
		Reports:   dbClient,
		Renderer:  render.NewPDFRenderer(),
		Sink:      sink,
		Logger:    logger.Named("reports"),
	})
	a.Streams = services.NewStreamService(services.StreamDeps{
		Sources:     dbClient,
		Files:       files,
		Extractor:   extractor,
		Generator:   gen,
		Broadcaster: a.Broadcaster,
		Logger:      logger.Named("streams"),
	})

	a.Server = NewServer(cfg, logger, a.Reports, a.Streams, a.Broadcaster)
	return a, nil
}

func newFileStore(cfg *config.Config, obj core.ObjectClient) (core.FileStore, error) {
	switch cfg.SourceBackend {
	case "local":
		return storage.NewLocalFileStore(cfg.UploadRoot), nil
	case "s3":
		return storage.NewObjectFileStore(obj), nil
	}
	return nil, fmt.Errorf("unknown SOURCE_BACKEND %q", cfg.SourceBackend)
}

func newArchiveSink(cfg *config.Config, obj core.ObjectClient) (core.ArchiveSink, error) {
	switch cfg.ArchiveBackend {
	case "local":
		return storage.NewLocalArchiveSink(cfg.ArchiveDir), nil
	case "s3":
		return storage.NewObjectArchiveSink(obj, "reports"), nil
	}
	return nil, fmt.Errorf("unknown ARCHIVE_BACKEND %q", cfg.ArchiveBackend)
}

func newGenerator(ctx context.Context, cfg *config.Config) (core.Generator, error) {
	switch cfg.GenBackend {
	case "autoagent":
		return llm.NewAutoAgentClient(cfg.AutoAgentAPIURL, cfg.GenTimeout, cfg.StreamTimeout), nil
	case "gemini":
		return llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel, cfg.GenTimeout, cfg.StreamTimeout)
	}
	return nil, fmt.Errorf("unknown GEN_BACKEND %q", cfg.GenBackend)
}

// Close stops streams and releases the backends. Call after the server has shut down.
func (a *App) Close() {
	if a.Streams != nil {
		if err := a.Streams.Close(); err != nil {
			a.logger.Warn("stream shutdown", zap.Error(err))
		}
	}
	if a.Broadcaster != nil {
		a.Broadcaster.Close()
	}
	if c, ok := a.Generator.(io.Closer); ok {
		_ = c.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
