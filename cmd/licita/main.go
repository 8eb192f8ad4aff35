// Command licita fuses procurement documents into one line-addressable
// corpus and runs the extraction agents over it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/custodia-labs/licita-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/licita-cli/internal/adapters/driven/export"
	"github.com/custodia-labs/licita-cli/internal/adapters/driven/extractor"
	"github.com/custodia-labs/licita-cli/internal/adapters/driven/oracle"
	"github.com/custodia-labs/licita-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/licita-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/licita-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/agents/builtin"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/core/services"
	"github.com/custodia-labs/licita-cli/internal/logger"
	"github.com/custodia-labs/licita-cli/internal/normalisers"
	"github.com/custodia-labs/licita-cli/internal/normalisers/docx"
	"github.com/custodia-labs/licita-cli/internal/normalisers/eml"
	"github.com/custodia-labs/licita-cli/internal/normalisers/html"
	"github.com/custodia-labs/licita-cli/internal/normalisers/image"
	"github.com/custodia-labs/licita-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/licita-cli/internal/normalisers/odt"
	"github.com/custodia-labs/licita-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/licita-cli/internal/normalisers/plaintext"
	"github.com/custodia-labs/licita-cli/internal/normalisers/xlsx"
	"github.com/custodia-labs/licita-cli/internal/pipeline/classifier"
)

// Set by the release build.
var version = "dev"

// memoryStorage selects the in-process corpus store.
const memoryStorage = ":memory:"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	home, err := file.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening config: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore, oracle.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading settings: %v\n", err)
		return 1
	}

	store, closeStore := openStore(home, settings.Storage.Path)
	defer closeStore()

	ingestion, err := newIngestion(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	deps := agents.Deps{Oracle: newOracle(home, settings)}
	analysis := services.NewAnalysisService(ingestion, builtin.Registry(),
		services.WithCorpusStore(store),
		services.WithAgentDeps(deps),
		services.WithSettings(*settings),
	)
	corpus := services.NewCorpusService(store, export.JSON{}, export.XLSX{})

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Analysis:    analysis,
		Corpus:      corpus,
		Settings:    settingsService,
		LoadProfile: file.LoadProfile,
	})

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// newIngestion wires the normalisers, the guarded extractor and the
// classifier into the ingestion stage.
func newIngestion(settings *domain.AppSettings) (*services.IngestionService, error) {
	registry := normalisers.NewRegistry(
		pdf.New(),
		docx.New(),
		odt.New(),
		xlsx.New(),
		html.New(),
		eml.New(),
		markdown.New(),
		plaintext.New(),
		image.New(settings.Extraction.OCRLanguage),
	)
	if !image.Available() {
		logger.Debug("OCR not compiled in; image documents will carry no text")
	}

	timeout := time.Duration(settings.Extraction.TimeoutSeconds) * time.Second
	ext := services.NewGuardedExtractor(extractor.New(registry), timeout)

	cls, err := classifier.NewDefault()
	if err != nil {
		return nil, fmt.Errorf("loading classifier patterns: %w", err)
	}

	return services.NewIngestionService(ext, cls, settings.Batch, settings.Pipeline.SampleTokens), nil
}

// newOracle returns the guarded extraction oracle, or nil when none is
// configured or it cannot be built. Agents then use pattern extraction only.
func newOracle(home string, settings *domain.AppSettings) driven.ExtractionOracle {
	if !settings.Oracle.IsConfigured() {
		return nil
	}
	client, err := oracle.CreateClient(&settings.Oracle)
	if err != nil {
		logger.Warn("oracle disabled: %v", err)
		return nil
	}
	if client == nil {
		return nil
	}

	prompts, err := file.NewPromptStore(filepath.Join(home, "prompts"))
	if err != nil {
		logger.Warn("oracle disabled: %v", err)
		return nil
	}

	timeout := time.Duration(settings.Oracle.TimeoutSeconds) * time.Second
	return services.NewGuardedOracle(services.NewChatOracle(client, prompts), timeout)
}

// openStore opens the SQLite store, falling back to memory when the
// database cannot be opened.
func openStore(home, path string) (driven.CorpusStore, func()) {
	if path == memoryStorage {
		return memory.NewCorpusStore(), func() {}
	}
	if path == "" {
		path = filepath.Join(home, "licita.db")
	}

	store, err := sqlite.NewStore(path)
	if err != nil {
		logger.Warn("storage %s unavailable, batches will not persist: %v", path, err)
		return memory.NewCorpusStore(), func() {}
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing storage: %v", err)
		}
	}
}
