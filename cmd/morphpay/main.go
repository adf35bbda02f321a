package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MuLx10/morph-payment-sdk/pkg/chains"
	"github.com/MuLx10/morph-payment-sdk/pkg/chains/evm"
	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/linkhandler"
	"github.com/MuLx10/morph-payment-sdk/pkg/metrics"
	"github.com/MuLx10/morph-payment-sdk/pkg/sdk"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *serverConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		return err
	}

	merchant, err := sdk.New(cfg.SDK,
		sdk.WithLogger(logger),
		sdk.WithMetrics(recorder),
		sdk.WithRegistry(chains.DefaultRegistry()),
	)
	if err != nil {
		return err
	}

	network := merchant.Network()
	logger.Info("Merchant configured",
		"merchant", merchant.GetConfig().MerchantAddress,
		"network", network.Name,
		"chain_id", network.ChainID)

	var signer chains.Signer
	if cfg.SignerKey != "" {
		keySigner, err := evm.DialNetworkSigner(ctx, network, cfg.RPCURL, cfg.SignerKey, logger)
		if err != nil {
			return err
		}
		defer keySigner.Close()
		signer = keySigner
		logger.Info("Signer connected", "address", keySigner.Address().Hex())
	} else {
		logger.Warn("No SIGNER_PRIVATE_KEY set, pay endpoints will report no wallet connected")
	}

	router := mux.NewRouter()
	linkhandler.New(merchant, signer, logger).Register(router)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Shutting down")
	return srv.Shutdown(shutdownCtx)
}
