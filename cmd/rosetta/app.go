// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/config"
	"github.com/compassoutlaw/rosetta/internal/gemini"
	"github.com/compassoutlaw/rosetta/internal/pdfcheck"
	"github.com/compassoutlaw/rosetta/internal/rosetta"
	"github.com/compassoutlaw/rosetta/internal/service"
	"github.com/compassoutlaw/rosetta/internal/store"
)

// app holds the collaborators shared by every command. Each field is built
// once from cfg; nothing here is a process-wide singleton.
type app struct {
	invoker  service.Invoker
	store    *store.Store
	registry *prometheus.Registry
	conv     *rosetta.Converter
}

// newInvoker selects the analysis service backend.
func newInvoker(ctx context.Context, c config.Config, log *zap.Logger) (service.Invoker, error) {
	switch c.Backend() {
	case config.BackendFunctions:
		log.Debug("using functions backend", zap.String("base_url", c.Functions.BaseURL))
		return service.NewFunctionsClient(c.Functions.BaseURL, c.Functions.APIKey,
			service.WithAuthToken(c.Functions.AuthToken),
			service.WithLogger(log),
		), nil
	case config.BackendGemini:
		log.Debug("using gemini backend", zap.String("model", c.Gemini.Model))
		gen, err := gemini.NewGenAIGenerator(ctx, c.Gemini.APIKey, c.Gemini.Model)
		if err != nil {
			return nil, err
		}
		return gemini.NewService(gen, log), nil
	}
	return nil, fmt.Errorf("%w: set ROSETTA_FUNCTIONS_URL or GEMINI_API_KEY", service.ErrNotConfigured)
}

// newApp wires the invoker, manifest ledger, metrics and converter. The
// returned cleanup closes the ledger.
func newApp(ctx context.Context, c config.Config, log *zap.Logger) (*app, func(), error) {
	inv, err := newInvoker(ctx, c, log)
	if err != nil {
		return nil, nil, err
	}
	return buildApp(ctx, c, log, inv)
}

// buildApp wires the ledger and metrics around inv. A nil inv leaves the
// converter unset.
func buildApp(ctx context.Context, c config.Config, log *zap.Logger, inv service.Invoker) (*app, func(), error) {
	st, err := store.Open(ctx, c.Store.Path)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var conv *rosetta.Converter
	if inv != nil {
		conv = rosetta.NewConverter(inv,
			rosetta.WithRecorder(st),
			rosetta.WithMetrics(rosetta.NewMetrics(reg)),
			rosetta.WithLogger(log.Named("rosetta")),
		)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}
	return &app{invoker: inv, store: st, registry: reg, conv: conv}, cleanup, nil
}

func newPDFClient(c config.Config, log *zap.Logger) *pdfcheck.Client {
	return pdfcheck.NewClient(c.PDF.Endpoint,
		pdfcheck.WithTimeout(c.PDF.Timeout),
		pdfcheck.WithLogger(log.Named("pdfcheck")),
	)
}
