// Package wire provides dependency injection for the pnp application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	cliadapter "github.com/example/pnp/internal/adapters/cli"
	"github.com/example/pnp/internal/adapters/filesystem"
	"github.com/example/pnp/internal/adapters/logsink"
	"github.com/example/pnp/internal/adapters/sqlite"
	"github.com/example/pnp/internal/app"
	"github.com/example/pnp/internal/db"
	"github.com/example/pnp/internal/ports/primary"
)

// Options configures the services built on first use.
type Options struct {
	DatabasePath string    // "" means db.DefaultPath()
	LogLevel     string    // console log level
	Verbose      bool      // log ignored template sections
	LogOutput    io.Writer // console log destination; nil means stderr
}

var (
	options             Options
	provisioningService primary.ProvisioningService
	tokenService        primary.TokenService
	logService          primary.LogService
	once                sync.Once
)

// Configure sets the options used by initServices. It must be called before
// the first service is requested; later calls have no effect.
func Configure(opts Options) {
	options = opts
	db.SetPath(opts.DatabasePath)
}

// ProvisioningService returns the singleton ProvisioningService instance.
func ProvisioningService() primary.ProvisioningService {
	once.Do(initServices)
	return provisioningService
}

// TokenService returns the singleton TokenService instance.
func TokenService() primary.TokenService {
	once.Do(initServices)
	return tokenService
}

// LogService returns the singleton LogService instance.
func LogService() primary.LogService {
	once.Do(initServices)
	return logService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	// Get database connection
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	templates, err := filesystem.NewTemplateLoader()
	if err != nil {
		log.Fatalf("failed to load template schema: %v", err)
	}

	level, err := logsink.ParseLevel(options.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", options.LogLevel, err)
	}
	out := options.LogOutput
	if out == nil {
		out = os.Stderr
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	siteRepo := sqlite.NewSiteRepository(database)
	runLogRepo := sqlite.NewRunLogRepository(database)

	logWriter := logsink.Multi{
		logsink.NewSlogWriter(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))),
		logsink.NewRunLogWriter(runLogRepo),
	}

	executor := app.NewBatchExecutor(siteRepo, logWriter)
	fields := app.NewFieldService(siteRepo, executor, logWriter)
	contentTypes := app.NewContentTypeService(siteRepo, executor, logWriter)

	// Create services (primary ports implementation)
	provisioningService = app.NewProvisioningService(templates, siteRepo, fields, contentTypes, logWriter, options.Verbose)
	tokenService = app.NewTokenService(siteRepo, templates, logWriter)
	logService = app.NewLogService(runLogRepo)
}

// ProvisioningAdapter returns a new ProvisioningAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ProvisioningAdapter() *cliadapter.ProvisioningAdapter {
	return ProvisioningAdapterWithOutput(os.Stdout)
}

// ProvisioningAdapterWithOutput returns a new ProvisioningAdapter writing to the given output.
func ProvisioningAdapterWithOutput(out io.Writer) *cliadapter.ProvisioningAdapter {
	return cliadapter.NewProvisioningAdapter(ProvisioningService(), out)
}

// TokenAdapter returns a new TokenAdapter writing to stdout.
func TokenAdapter() *cliadapter.TokenAdapter {
	return TokenAdapterWithOutput(os.Stdout)
}

// TokenAdapterWithOutput returns a new TokenAdapter writing to the given output.
func TokenAdapterWithOutput(out io.Writer) *cliadapter.TokenAdapter {
	return cliadapter.NewTokenAdapter(TokenService(), out)
}

// LogAdapter returns a new LogAdapter writing to stdout.
func LogAdapter() *cliadapter.LogAdapter {
	return LogAdapterWithOutput(os.Stdout)
}

// LogAdapterWithOutput returns a new LogAdapter writing to the given output.
func LogAdapterWithOutput(out io.Writer) *cliadapter.LogAdapter {
	return cliadapter.NewLogAdapter(LogService(), out)
}
