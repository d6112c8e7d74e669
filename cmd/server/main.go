// Command server is the entry point for the procurement orchestration
// service.
//
// Responsibilities:
//   - Load and validate configuration from environment variables and an
//     optional YAML file (internal/config)
//   - Construct the Policy Store, Context Assembler, model-provider
//     client, agent dispatch table, Workflow Orchestrator, and
//     Integration Manager, and wire them together
//   - Watch the optional config file for changes and reload the Policy
//     Store's catalogs without a restart
//   - Expose a liveness endpoint and a Prometheus metrics endpoint
//   - Implement graceful shutdown on SIGINT/SIGTERM
//
// The HTTP transport and JSON request/response marshalling for the
// `/agent/*` and `/integration/*` routes described in the external
// interfaces spec are an external collaborator (§1 Out of scope):
// this binary wires the orchestration core and the internal/httpapi
// Service a transport would call into, but does not itself register
// those routes. See internal/httpapi for the documented route/handler
// contract.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ledgerline/procureagent/internal/agents"
	"github.com/ledgerline/procureagent/internal/audit"
	"github.com/ledgerline/procureagent/internal/config"
	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/httpapi"
	"github.com/ledgerline/procureagent/internal/integration"
	"github.com/ledgerline/procureagent/internal/llm"
	"github.com/ledgerline/procureagent/internal/logging"
	"github.com/ledgerline/procureagent/internal/policy"
	"github.com/ledgerline/procureagent/internal/workflow"
)

func main() {
	configPath := flag.String("config", "", "optional path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "server: "+err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	mgr, err := config.NewManager(configPath)
	if err != nil {
		return fmt.Errorf("constructing config manager: %w", err)
	}
	if err := mgr.Load(ctx); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := mgr.Validate(ctx); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	cfg := mgr.Get(ctx)

	appLogger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("constructing app logger: %w", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	var auditLogger audit.Logger
	if cfg.Workflow.AuditLoggingEnabled {
		auditCfg := audit.DefaultConfig()
		auditCfg.LogLevel = cfg.Logging.Level
		auditLogger, err = audit.NewLogger(auditCfg)
		if err != nil {
			return fmt.Errorf("constructing audit logger: %w", err)
		}
		defer auditLogger.Close() //nolint:errcheck
	}

	store := policy.New(policy.FromConfig(cfg.Policy.ProhibitedClauses, cfg.Policy.RequiredClauses, cfg.Policy.BudgetThresholds), nil)

	provider, err := llm.New(llm.Settings{
		Provider: cfg.LLM.Provider,
		Host:     cfg.LLM.Host,
		APIBase:  cfg.LLM.APIBase,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return fmt.Errorf("constructing model provider: %w", err)
	}

	assembler := contextlayer.New(store, contextlayer.Shares{
		Policy:    cfg.ContextBudget.PolicyShare,
		Domain:    cfg.ContextBudget.DomainShare,
		Session:   cfg.ContextBudget.SessionShare,
		Ephemeral: cfg.ContextBudget.EphemeralShare,
	})
	dispatch := agents.NewDispatch(provider, store)
	integrationMgr := integration.New()
	orchestrator := workflow.New(store, assembler, dispatch, cfg.ContextBudget.Total, auditLogger, integrationMgr)

	// service is the Go-level API an HTTP transport would call into; see
	// the package doc comment for why this binary stops short of
	// registering the `/agent/*` and `/integration/*` routes itself.
	service := httpapi.NewService(orchestrator, integrationMgr)
	_ = service

	go watchConfigReload(ctx, mgr.Watch(ctx), store, auditLogger, appLogger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Sugar().Infof("observability server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Sugar().Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("observability server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// watchConfigReload consumes config-manager reload notifications and
// swaps in a freshly-built Policy Store snapshot, exercising the
// "Reloadable" requirement (§4.2) with fsnotify as the delivery
// mechanism via internal/config's viperManager.Watch + viper
// OnConfigChange wiring.
func watchConfigReload(ctx context.Context, reloads <-chan config.Config, store *policy.Store, auditLogger audit.Logger, appLogger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-reloads:
			if !ok {
				return
			}
			store.Reload(policy.FromConfig(cfg.Policy.ProhibitedClauses, cfg.Policy.RequiredClauses, cfg.Policy.BudgetThresholds), nil)
			appLogger.Sugar().Info("policy store reloaded from config change")
			if auditLogger != nil {
				_ = auditLogger.LogConfigReload(ctx, "fsnotify")
			}
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}
