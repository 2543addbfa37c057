// Command swarmd serves the expert swarm over HTTP: POST /invocations takes
// an AgentCore-style payload and returns the double-encoded response
// envelope. Configuration comes from YAML plus environment overrides;
// missing gateway or memory configuration degrades features instead of
// failing startup.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/advcomp/expertswarm/config"
	"github.com/advcomp/expertswarm/coordinator"
	"github.com/advcomp/expertswarm/handler"
	"github.com/advcomp/expertswarm/knowledge"
	"github.com/advcomp/expertswarm/logging"
	"github.com/advcomp/expertswarm/memory"
	"github.com/advcomp/expertswarm/model"
	"github.com/advcomp/expertswarm/model/anthropic"
	"github.com/advcomp/expertswarm/model/bedrock"
	"github.com/advcomp/expertswarm/model/openai"
	"github.com/advcomp/expertswarm/swarm"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmd: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := buildHandler(ctx, cfg, logger)
	if err != nil {
		logger.Error("swarmd.startup_failed", "error", err.Error())
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: newServer(h, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("swarmd.listening", "addr", cfg.Server.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("swarmd.serve_failed", "error", err.Error())
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("swarmd.shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("swarmd.shutdown_failed", "error", err.Error())
		}
	}
	logger.Info("swarmd.stopped")
}

// buildHandler wires models, memory, and the knowledge connector into the
// invocation handler.
func buildHandler(ctx context.Context, cfg *config.Config, logger logging.Logger) (*handler.Handler, error) {
	coordModel, err := newModel(ctx, cfg, cfg.Models.CoordinatorID, cfg.Models.CoordinatorTemperature)
	if err != nil {
		return nil, fmt.Errorf("coordinator model: %w", err)
	}

	expertModel, err := newModel(ctx, cfg, cfg.Models.ExpertID, cfg.Models.ExpertTemperature)
	if err != nil {
		return nil, fmt.Errorf("expert model: %w", err)
	}

	var store memory.ConversationStore
	if cfg.Memory.Enabled {
		store = memory.NewInMemoryStore(func(o *memory.InMemoryStoreOptions) {
			o.Window = cfg.Memory.Window
		})
	} else {
		logger.Info("swarmd.memory.disabled")
	}

	return handler.New(coordModel, expertModel, func(o *handler.Options) {
		o.Memory = store
		o.Logger = logger
		o.NewConnector = newConnectorFactory(cfg, logger)
		o.SwarmOptions = []func(so *swarm.Options){func(so *swarm.Options) {
			so.MaxHandoffs = cfg.Swarm.MaxHandoffs
			so.MaxIterations = cfg.Swarm.MaxIterations
			so.ExecutionTimeout = cfg.Swarm.ExecutionTimeout
			so.NodeTimeout = cfg.Swarm.NodeTimeout
			so.MaxModelCalls = cfg.Swarm.MaxModelCalls
		}}
		o.CoordinatorOptions = []func(co *coordinator.Options){func(co *coordinator.Options) {
			co.ActorID = cfg.Memory.ActorID
		}}
	}), nil
}

// newModel builds one hosted model on the configured provider. The id
// fields carry provider-native model identifiers, so switching providers
// means switching ids too; anthropic and openai resolve their API keys from
// the SDK default environment variables.
func newModel(ctx context.Context, cfg *config.Config, id string, temperature float64) (model.Model, error) {
	switch cfg.Models.Provider {
	case "", config.ProviderBedrock:
		return bedrock.NewModel(ctx, func(o *bedrock.Options) {
			o.Model = id
			o.Region = cfg.Models.Region
			o.Temperature = temperature
			if cfg.Models.MaxTokens > 0 {
				o.MaxTokens = cfg.Models.MaxTokens
			}
		})
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(id)
			o.Temperature = temperature
			if cfg.Models.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.Models.MaxTokens)
			}
		}), nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = id
			o.Temperature = temperature
			if cfg.Models.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.Models.MaxTokens)
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Models.Provider)
	}
}

// newConnectorFactory returns the per-run knowledge connector builder. When
// no gateway is configured, or connecting fails, runs fall back to the mock
// connector so consultations still complete.
func newConnectorFactory(cfg *config.Config, logger logging.Logger) func(ctx context.Context) knowledge.Connector {
	if !cfg.Gateway.Enabled() {
		logger.Info("swarmd.gateway.disabled")
		return func(context.Context) knowledge.Connector {
			return knowledge.NewMockConnector()
		}
	}

	return func(ctx context.Context) knowledge.Connector {
		gw, err := knowledge.NewGateway(ctx, cfg.Gateway.URL, func(o *knowledge.GatewayOptions) {
			o.ClientID = cfg.Gateway.ClientID
			o.ClientSecret = cfg.Gateway.ClientSecret
			o.TokenEndpoint = cfg.Gateway.TokenEndpoint
			o.Scope = cfg.Gateway.Scope
			o.Logger = logger
		})
		if err != nil {
			logger.Warn("swarmd.gateway.unreachable", "error", err.Error())
			return knowledge.NewMockConnector()
		}
		return gw
	}
}

func newLogger(cfg config.LoggingConfig) logging.Logger {
	level := logging.LogLevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = logging.LogLevelDebug
	case "warn", "warning":
		level = logging.LogLevelWarn
	case "error":
		level = logging.LogLevelError
	}
	return logging.NewSlogLogger(level, cfg.Format, false)
}
