// Command vector is the pipeline's entrypoint: load and validate a config
// document, build the topology, and run it until a shutdown signal
// arrives, reloading on SIGHUP. Grounded on the teacher's cmd/server
// main.go + signal.go wiring, adapted to cobra subcommands.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vectordotdev/vector-sub015/internal/config"
	"github.com/vectordotdev/vector-sub015/internal/reloadlock"
	"github.com/vectordotdev/vector-sub015/internal/runtime"
	"github.com/vectordotdev/vector-sub015/internal/sinks/postgres"
	"github.com/vectordotdev/vector-sub015/internal/sinks/redisq"
	"github.com/vectordotdev/vector-sub015/internal/sinks/wstap"
	"github.com/vectordotdev/vector-sub015/internal/sources/webhook"
	"github.com/vectordotdev/vector-sub015/internal/telemetry"
	"github.com/vectordotdev/vector-sub015/internal/transforms/noop"
	"github.com/vectordotdev/vector-sub015/internal/transforms/route"
	"github.com/vectordotdev/vector-sub015/pkg/logger"
)

var (
	configPath   string
	metricsAddr  string
	lockRedisURL string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vector",
		Short: "Run and inspect an observability pipeline topology.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "vector.yaml", "path to the config document")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build and run the pipeline until terminated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context())
		},
	}
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve /metrics on")
	runCmd.Flags().StringVar(&lockRedisURL, "reload-lock-redis", "", "Redis address for cross-replica reload locking; empty disables it")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the config document without running it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig()
		},
	}

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the resolved topology edges as component -> component lines.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printGraph()
		},
	}

	root.AddCommand(runCmd, validateCmd, graphCmd)
	return root
}

func loadAndValidate() (*config.Document, []error) {
	loader := config.NewLoader()
	doc, err := loader.LoadFile(configPath)
	if err != nil {
		return nil, []error{err}
	}
	if errs := config.Validate(doc); len(errs) > 0 {
		return doc, errs
	}
	return doc, nil
}

func validateConfig() error {
	_, errs := loadAndValidate()
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("config validation failed with %d error(s)", len(errs))
	}
	fmt.Println("config is valid")
	return nil
}

func printGraph() error {
	doc, errs := loadAndValidate()
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("config validation failed with %d error(s)", len(errs))
	}
	g := config.BuildGraph(doc)
	for _, e := range g.Edges {
		fmt.Printf("%s -> %s\n", e.From, e.To)
	}
	return nil
}

func buildRegistry() *runtime.Registry {
	reg := runtime.NewRegistry()
	reg.RegisterSource("webhook", func(name string, options map[string]any) (runtime.Source, error) {
		return webhook.New(name, options, nil)
	})
	reg.RegisterTransform("noop", func(name string, options map[string]any) (runtime.Transform, error) {
		return noop.New(name, options)
	})
	reg.RegisterTransform("route", func(name string, options map[string]any) (runtime.Transform, error) {
		return route.New(name, options)
	})
	reg.RegisterSink("redisq", func(name string, options map[string]any) (runtime.Sink, error) {
		return redisq.New(name, options)
	})
	reg.RegisterSink("postgres", func(name string, options map[string]any) (runtime.Sink, error) {
		return postgres.New(name, options)
	})
	reg.RegisterSink("wstap", func(name string, options map[string]any) (runtime.Sink, error) {
		return wstap.New(name, options, nil)
	})
	return reg
}

func runPipeline(ctx context.Context) error {
	log := logger.New(logger.DefaultConfig())

	doc, errs := loadAndValidate()
	if len(errs) > 0 {
		for _, e := range errs {
			log.Error("config validation failed", "error", e)
		}
		return fmt.Errorf("config validation failed with %d error(s)", len(errs))
	}
	graph := config.BuildGraph(doc)

	registry := buildRegistry()
	rt := runtime.New(registry, log)

	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)
	rt.SetDropHandler(func(component, reason string) {
		metrics.EventsDropped.WithLabelValues(component, reason).Inc()
	})

	buildCtx, cancelBuild := context.WithTimeout(ctx, 30*time.Second)
	defer cancelBuild()
	if err := rt.Build(buildCtx, doc, graph); err != nil {
		return fmt.Errorf("build topology: %w", err)
	}

	metricsSrv := &http.Server{Addr: metricsAddr, Handler: telemetry.Handler(reg)}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", "error", err)
		}
	}()
	defer metricsSrv.Close()

	loader := config.NewLoader()
	coordinator := config.NewReloadCoordinator(loader, rt, doc, log)
	if lockRedisURL != "" {
		client := redis.NewClient(&redis.Options{Addr: lockRedisURL})
		defer client.Close()
		coordinator = coordinator.WithDistributedLock(reloadlock.NewManager(client, "vector"))
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	depthTicker := time.NewTicker(5 * time.Second)
	defer depthTicker.Stop()

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case <-hup:
				reloadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := coordinator.ReloadFromFile(reloadCtx, configPath); err != nil {
					metrics.ReloadTotal.WithLabelValues("failure").Inc()
					log.Error("config reload failed", "error", err)
				} else {
					metrics.ReloadTotal.WithLabelValues("success").Inc()
				}
				cancel()
			case <-depthTicker.C:
				metrics.ObserveDepths(rt.BufferDepths)
			}
		}
	}()

	return rt.Run(runCtx, 15*time.Second)
}
