package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/api"
	"github.com/punchamoorthee/contractledger/internal/command"
	"github.com/punchamoorthee/contractledger/internal/config"
	"github.com/punchamoorthee/contractledger/internal/logging"
	"github.com/punchamoorthee/contractledger/internal/service"
	"github.com/punchamoorthee/contractledger/internal/store"
	"github.com/punchamoorthee/contractledger/internal/wealth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	logger := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := store.OpenBackend(ctx, cfg.Backend())
	if err != nil {
		logger.WithField("backend", cfg.StoreBackend).WithError(err).Fatal("open storage")
	}
	defer closeStorage()

	rates := cfg.Rates()
	ledger, err := store.Open(ctx, storage, store.Options{MaxContractors: rates.MaxContractors, Logger: logger})
	if err != nil {
		logger.WithError(err).Fatal("load ledger")
	}

	// Initialize Layers
	w := wealth.New(cfg.PriceBonusRate)
	var external service.ExternalBalance
	if cfg.ExternalFile != "" {
		external = store.NewExternalBalances(cfg.ExternalFile)
	}
	query := service.NewLeaderboardQuery(ledger, w)
	dispatcher := command.NewDispatcher(command.Services{
		Contracts: service.NewContractLedger(ledger, w, rates, logger),
		SignIn:    service.NewSignInEngine(ledger, w, rates, cfg.Location(), logger),
		Bank:      service.NewBank(ledger, external, logger),
		Query:     query,
		Wealth:    w,
	}, command.FallbackNames{}, logger)
	handler := api.NewHandler(dispatcher, query, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "backend": cfg.StoreBackend}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
	if ledger.Dirty() {
		if err := ledger.Flush(shutdownCtx); err != nil {
			logger.WithError(err).Error("final flush failed; unsaved changes lost")
			return
		}
		logger.Info("flushed pending changes")
	}
}
