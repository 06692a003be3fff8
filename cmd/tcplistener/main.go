package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/httpscan/internal/config"
	"github.com/Brownie44l1/httpscan/internal/request"
	"github.com/Brownie44l1/httpscan/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr        = flag.String("addr", ":42069", "listen address")
		metricsAddr = flag.String("metrics-addr", ":9090", "metrics listen address, empty to disable")
		configPath  = flag.String("config", "", "JSON file with parser ceilings")
		capacity    = flag.Int("capacity", request.DefaultHeaderCapacity, "header lines stored per request")
		strict      = flag.Bool("strict", false, "reject header keys and values that fail validation")
		debug       = flag.Bool("debug", false, "log parse retries")
	)
	flag.Parse()

	// Ceilings are settled here, before anything parses.
	store := config.NewStore(config.Default())
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		if err := store.Set(cfg); err != nil {
			return err
		}
	}

	opts := server.DefaultOptions()
	opts.HeaderCapacity = *capacity
	opts.Strict = *strict

	srv := server.New(store, opts)
	if *debug {
		srv.Logger = server.NewLogger(os.Stdout, server.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := srv.ListenAndServe(*addr)
		if errors.Is(err, server.ErrServerClosed) {
			return nil
		}
		return err
	})

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(srv.Metrics)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			srv.Logger.Info("metrics listening", server.Field{Key: "addr", Value: *metricsAddr})
			err := metricsSrv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		srv.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if metricsSrv != nil {
			metricsSrv.Shutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Logger.Warn("forced shutdown", server.Field{Key: "error", Value: err.Error()})
		}

		snap := srv.Metrics.Snapshot()
		srv.Logger.Info("final stats",
			server.Field{Key: "requests", Value: snap.RequestsTotal},
			server.Field{Key: "retries", Value: snap.RetriesTotal},
			server.Field{Key: "rejected", Value: snap.RejectedTotal},
			server.Field{Key: "avg_parse", Value: snap.AverageParseTime},
		)
		return nil
	})

	return g.Wait()
}
