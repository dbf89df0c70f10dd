// Package orchestrator fans a translation request out to every configured
// provider in parallel and collects the outcomes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valpere/leaftran/internal/translator"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

var ErrNoServices = errors.New("no translation services configured")

type OrchestratorConfig struct {
	// Timeout bounds a single attempt against one service.
	Timeout     time.Duration
	MaxAttempts int
	// RetryDelay doubles after each failed attempt.
	RetryDelay time.Duration
	Logger     *slog.Logger
}

type OrchestratorResult struct {
	// Results keeps the order of the configured services.
	Results   []translator.ServiceResult
	Errors    []error
	Succeeded int
	Failed    int
}

// Best returns the successful result with the highest confidence. Earlier
// services win ties.
func (r *OrchestratorResult) Best() (*translator.ServiceResult, bool) {
	var best *translator.ServiceResult
	for i := range r.Results {
		if best == nil || r.Results[i].Confidence > best.Confidence {
			best = &r.Results[i]
		}
	}
	return best, best != nil
}

// Err joins every service failure, or returns nil when nothing failed.
func (r *OrchestratorResult) Err() error {
	return errors.Join(r.Errors...)
}

type Orchestrator struct {
	services []translator.TranslationService
	config   OrchestratorConfig
	logger   *slog.Logger
}

func New(services []translator.TranslationService, config OrchestratorConfig) *Orchestrator {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaultRetryDelay
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		services: services,
		config:   config,
		logger:   logger,
	}
}

// Services returns the names of the configured services in order.
func (o *Orchestrator) Services() []string {
	names := make([]string, len(o.services))
	for i, svc := range o.services {
		names[i] = svc.Name()
	}
	return names
}

type outcome struct {
	res *translator.ServiceResult
	err error
}

func (o *Orchestrator) Execute(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) *OrchestratorResult {
	result := &OrchestratorResult{}
	if len(o.services) == 0 {
		result.Errors = append(result.Errors, ErrNoServices)
		return result
	}

	outcomes := make([]outcome, len(o.services))
	var wg sync.WaitGroup
	for i, svc := range o.services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := o.runWithRetry(ctx, svc, cfg, req)
			outcomes[i] = outcome{res: res, err: err}
		}()
	}
	wg.Wait()

	for i, oc := range outcomes {
		name := o.services[i].Name()
		switch {
		case oc.err != nil:
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", name, oc.err))
			result.Failed++
		case oc.res == nil:
			result.Errors = append(result.Errors, fmt.Errorf("%s: no result", name))
			result.Failed++
		default:
			result.Results = append(result.Results, *oc.res)
			result.Succeeded++
		}
	}

	return result
}

func (o *Orchestrator) runWithRetry(ctx context.Context, svc translator.TranslationService, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	delay := o.config.RetryDelay
	var lastErr error

	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		res, err := o.attempt(ctx, svc, cfg, req)
		if err == nil {
			return res, nil
		}
		lastErr = err
		o.logger.Debug("translation attempt failed",
			"service", svc.Name(), "attempt", attempt, "error", err)

		if attempt == o.config.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, lastErr
}

func (o *Orchestrator) attempt(ctx context.Context, svc translator.TranslationService, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	res, err := svc.Translate(attemptCtx, cfg, req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("no result")
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	return res, nil
}
