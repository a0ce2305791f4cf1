package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botgpt/internal/supervise"
	"botgpt/pkg/config"

	"github.com/sirupsen/logrus"
)

func main() {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	cfg := config.LoadSupervisorConfig()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutting down supervisor...")
		cancel()
	}()

	delay := supervise.FixedDelay(time.Duration(cfg.RestartDelaySeconds) * time.Second)
	sup := supervise.New(cfg.ServerBin, nil, delay)

	if err := sup.Run(ctx); err != nil {
		logrus.Fatalf("Supervisor failed: %v", err)
	}

	logrus.Info("Supervisor stopped")
}
