package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/config"
	"github.com/mbolis/gyp-site/database"
	"github.com/mbolis/gyp-site/log"
	"github.com/mbolis/gyp-site/routes"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("main.config: ", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.LogJSON {
		log.UseJSON()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open: ", err)
	}
	defer db.Close()

	if cfg.AdminEmail != "" {
		created, err := database.EnsureAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Error("main.db.admin: ", err)
		} else if created {
			log.Infof("created admin account %s", cfg.AdminEmail)
		}
	}

	handler := routes.Wire(app.New(db, cfg))

	err = runServer(ctx, cfg, handler)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server: ", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("Listening on " + cfg.Url())
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
