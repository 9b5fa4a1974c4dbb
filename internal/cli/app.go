package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sadopc/billr/internal/config"
	"github.com/sadopc/billr/internal/currency"
	"github.com/sadopc/billr/internal/log"
	"github.com/sadopc/billr/internal/store"
)

// AppContext holds the shared dependencies of every command.
type AppContext struct {
	Config    *config.Config
	Logger    *log.Logger
	Store     *store.Store
	Converter *currency.Converter

	logFile io.Closer
}

// NewAppContext opens the log file and the database described by cfg. A log
// file that cannot be opened is not fatal; logging is discarded instead.
func NewAppContext(cfg *config.Config) (*AppContext, error) {
	logger, logFile, err := log.OpenFile(cfg.LogFile, log.ParseLevel(cfg.LogLevel), "billr")
	if err != nil {
		logger = log.Discard()
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conv := currency.NewConverter(s, cfg.RateURL, cfg.BaseCurrency, cfg.TargetCurrency,
		currency.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		currency.WithFallback(cfg.FallbackRate),
		currency.WithLogger(logger.WithComponent("currency")),
	)

	logger.Debug("app context ready", "db", cfg.DBPath, "base", cfg.BaseCurrency, "target", cfg.TargetCurrency)
	return &AppContext{
		Config:    cfg,
		Logger:    logger,
		Store:     s,
		Converter: conv,
		logFile:   logFile,
	}, nil
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}
