package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/replay-search/internal/engine"
	"github.com/GoSim-25-26J-441/replay-search/internal/hostsim"
	"github.com/GoSim-25-26J-441/replay-search/internal/metrics"
	"github.com/GoSim-25-26J-441/replay-search/internal/policy"
	"github.com/GoSim-25-26J-441/replay-search/internal/searchd"
	"github.com/GoSim-25-26J-441/replay-search/internal/storage"
	"github.com/GoSim-25-26J-441/replay-search/pkg/config"
	"github.com/GoSim-25-26J-441/replay-search/pkg/logger"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// dryRunCheckpoints lays out the reference host's track for -dry-run
var dryRunCheckpoints = []float64{100, 250, 400}

type overrides struct {
	shardOffset   int64
	shardStride   int64
	startPosition int64
	logLevel      string
}

// apply changes cfg in place. A worker name derived from the old shard offset is
// re-derived from the new one.
func (o overrides) apply(cfg *config.Search) error {
	derived := cfg.Name == fmt.Sprintf("%s%d", config.DefaultNamePrefix, cfg.Shard.Offset)
	derivedLog := cfg.LogFile == cfg.Name+".txt"

	if o.shardOffset >= 0 {
		cfg.Shard.Offset = uint64(o.shardOffset)
	}
	if o.shardStride >= 0 {
		cfg.Shard.Stride = uint64(o.shardStride)
	}
	if o.startPosition >= 0 {
		cfg.StartPosition = uint64(o.startPosition)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if derived {
		cfg.Name = ""
		if derivedLog {
			cfg.LogFile = ""
		}
	}
	config.ApplyWorkerDefaults(cfg)
	return cfg.Validate()
}

func main() {
	var configPath string
	var o overrides
	var dryRun bool
	var iterations int

	flag.StringVar(&configPath, "config", "configs/low_input.yaml", "search configuration file")
	flag.Int64Var(&o.shardOffset, "shard-offset", -1, "override shard offset")
	flag.Int64Var(&o.shardStride, "shard-stride", -1, "override shard stride")
	flag.Int64Var(&o.startPosition, "start-position", -1, "override start position")
	flag.StringVar(&o.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	flag.BoolVar(&dryRun, "dry-run", false, "search against the built-in reference host")
	flag.IntVar(&iterations, "iterations", 10, "iterations to run with -dry-run")
	flag.Parse()

	if err := run(configPath, o, dryRun, iterations); err != nil {
		logger.Error("search worker failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, o overrides, dryRun bool, iterations int) error {
	cfg, err := config.LoadSearch(configPath)
	if err != nil {
		return err
	}
	if err := o.apply(cfg); err != nil {
		return fmt.Errorf("invalid configuration after overrides: %w", err)
	}

	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stdout))
	sink, err := logger.OpenSink(cfg.Name, cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close log sink", "error", err)
		}
	}()
	log := sink.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(cfg.Store.Kind, cfg.Store.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init %s store: %w", cfg.Store.Kind, err)
	}
	defer func() {
		if err := storage.CloseIfSupported(store); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}()

	sp, err := engine.BuildSpace(cfg)
	if err != nil {
		return err
	}
	runID := uuid.New()
	collector := metrics.NewCollector(cfg.Name)
	observers := engine.Observers{collector, storage.NewRecorder(store, sp, cfg.Name, runID, log)}

	var host engine.Host
	var sim *hostsim.Sim
	if dryRun {
		sim = hostsim.New(hostsim.Options{Checkpoints: dryRunCheckpoints})
		host = sim
	} else {
		conn, err := grpc.NewClient(cfg.Host.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("dial host %s: %w", cfg.Host.Address, err)
		}
		defer conn.Close()
		client := searchd.NewHostClient(conn)
		client.Timeout = time.Duration(cfg.Host.TimeoutMs) * time.Millisecond
		client.Retry = policy.NewRetryPolicyFromConfig(cfg.Host.Retry, searchd.Unavailable)
		host = client
	}

	ctrl, err := engine.NewFromConfig(host, cfg, log, observers)
	if err != nil {
		return err
	}
	best, ok, err := storage.LoadBest(ctx, store, cfg.Name)
	if err != nil {
		return fmt.Errorf("load best time: %w", err)
	}
	if ok {
		ctrl.SeedBest(best)
		collector.SeedBest(best)
		log.Info(fmt.Sprintf("Restored best finish time: %d", best))
	}
	logger.Info("search worker starting", "worker", cfg.Name, "run_id", runID, "dry_run", dryRun,
		"shard_offset", cfg.Shard.Offset, "shard_stride", cfg.Shard.Stride)

	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		httpSrv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           searchd.NewHTTPServer(cfg.Name, ctrl, collector.Handler()).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "error", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP shutdown error", "error", err)
			}
		}()
	}

	if dryRun {
		if err := hostsim.NewDriver(sim, ctrl).Run(ctx, iterations); err != nil {
			return fmt.Errorf("dry run: %w", err)
		}
		if best, ok := ctrl.Best(); ok {
			logger.Info("dry run finished", "iterations", iterations, "best_time", best)
		} else {
			logger.Info("dry run finished", "iterations", iterations)
		}
		return nil
	}

	// TODO: Configure gRPC server security (e.g., TLS, authentication) before exposing
	// the callback service beyond localhost.
	grpcServer := grpc.NewServer()
	search := searchd.NewSearchGRPCServer(ctrl, log)
	searchd.RegisterSearchClientServer(grpcServer, search)

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen for gRPC on %s: %w", cfg.Listen, err)
	}
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.Listen)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()
	defer grpcServer.GracefulStop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
		return nil
	case err := <-search.Fatal():
		return err
	}
}
