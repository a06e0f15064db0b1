package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/config"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/flow"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/ranking"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/selector"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/telemetry"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/transport"
)

// #region main
func main() {
	configPath := flag.String("config", os.Getenv("CRISIS_CONFIG"), "path to YAML config")
	fresh := flag.Bool("fresh", true, "clear outcomes and sealed metrics from a previous session")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	repo, err := store.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer repo.Close()
	prefs := store.New(repo, logger)
	if *fresh {
		if err := prefs.ClearSession(); err != nil {
			log.Fatalf("clear session: %v", err)
		}
	}

	recorder, err := logging.NewRecorder(repo.DB(), logger)
	if err != nil {
		log.Fatalf("decision log: %v", err)
	}
	metrics := telemetry.New()

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	machine, err := flow.New(flow.Deps{
		Catalog:   cat,
		Prefs:     prefs,
		Selector:  selector.NewSelector(prefs, rand.New(rand.NewPCG(seed, seed)), logger),
		Ranker:    ranking.New(prefs, metrics, logger),
		Recorder:  recorder,
		Telemetry: metrics,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("start session: %v", err)
	}
	defer machine.Close()

	pacer := flow.NewPacer(cfg.TransitionDelay)
	defer pacer.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, metrics, logger)
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.GRPCAddr, err)
	}
	srv := grpc.NewServer()
	transport.Register(srv, transport.NewService(machine, pacer, logger))

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		srv.GracefulStop()
	}()

	logger.Info("crisis session server ready", "addr", cfg.GRPCAddr, "db", cfg.DBPath, "seed", seed, "scenarios", cat.Count())
	if err := srv.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// #endregion main

// #region helpers
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func serveMetrics(ctx context.Context, addr string, m *telemetry.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		hs.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics listening", "addr", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server", "err", err)
	}
}

// #endregion helpers
