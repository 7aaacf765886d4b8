package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pregador/billing"
	"pregador/config"
	"pregador/controllers"
	dbpkg "pregador/db"
	"pregador/logger"
	"pregador/mailer"
	"pregador/metrics"
	"pregador/router"
	"pregador/tools"
	"pregador/workers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.json", "arquivo de configuração")
	debug := flag.Bool("debug", false, "modo debug")
	flag.Parse()

	cfg := config.Get(*configPath)

	logr, err := logger.New(cfg.LogPath, *debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logr.Sync()

	metrics.Init()

	dbpkg.SetConfigurations(cfg)
	db, err := dbpkg.Connect()
	if err != nil {
		logr.Fatal("falha ao conectar no banco", zap.Error(err))
	}
	defer db.Close()

	plans, err := billing.DefaultCatalog()
	if err != nil {
		logr.Fatal("catálogo de planos inválido", zap.Error(err))
	}
	if err := billing.SeedPlans(db, plans); err != nil {
		logr.Fatal("falha ao semear planos", zap.Error(err))
	}
	if err := billing.GrantSuperAdmins(db, cfg.SuperAdmins); err != nil {
		logr.Fatal("falha ao aplicar super-admins", zap.Error(err))
	}

	m, err := mailer.Build(cfg)
	if err != nil {
		logr.Fatal("provedor de email inválido", zap.Error(err))
	}
	if closer, ok := m.(io.Closer); ok {
		defer closer.Close()
	}

	dispatcher := workers.NewDispatcher(m, workers.DispatcherOptions{
		QueueSize:   cfg.Mail.QueueSize,
		Workers:     cfg.Mail.Workers,
		MaxAttempts: cfg.Mail.MaxAttempts,
		Timeout:     time.Duration(cfg.Mail.TimeoutSeconds) * time.Second,
	})
	dispatcher.Start(context.Background())

	controllers.Configure(controllers.Dependencies{
		Config:   cfg,
		Notifier: dispatcher,
		AI:       tools.NewChatClient(time.Duration(cfg.AI.TimeoutSeconds) * time.Second),
	})

	if !*debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	router.Initialize(r, cfg, db)

	srv := &http.Server{
		Addr:              ":" + cfg.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("Pregador ouvindo", zap.String("port", cfg.ApiPort), zap.String("mail_provider", m.Provider()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("falha no servidor http", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("sinal de encerramento recebido", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("erro ao encerrar servidor", zap.Error(err))
	}
	dispatcher.Stop()
	logr.Info("servidor encerrado")
}
