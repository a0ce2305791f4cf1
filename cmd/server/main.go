package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botgpt/internal/api"
	"botgpt/internal/chat"
	"botgpt/internal/llm"
	"botgpt/internal/middleware"
	"botgpt/internal/store"
	"botgpt/pkg/config"
	"botgpt/pkg/db"

	"github.com/sirupsen/logrus"
)

func main() {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	cfg := config.LoadConfig()

	var st store.Store
	if cfg.UseInMemoryStore {
		logrus.Info("Using in-memory store")
		st = store.NewMemoryStore()
	} else {
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			logrus.Fatalf("Failed to connect to the database: %v", err)
		}
		pgStore, err := store.NewPostgresStore(database)
		if err != nil {
			logrus.Fatalf("Failed to initialize store: %v", err)
		}
		st = pgStore
	}
	defer st.Close()

	bootstrapDemoUser(st)

	generator := llm.NewClient(cfg)
	chatService := chat.NewService(st, generator)
	handler := api.NewHandler(st, chatService)

	mux := http.NewServeMux()
	mux.Handle("/health", middleware.CORSMiddleware(http.HandlerFunc(handler.HealthHandler)))
	mux.Handle("/api/init", middleware.CORSMiddleware(http.HandlerFunc(handler.InitUserHandler)))
	mux.Handle("/conversations", middleware.CORSMiddleware(http.HandlerFunc(handler.ConversationsHandler)))
	mux.Handle("/conversations/{id}", middleware.CORSMiddleware(http.HandlerFunc(handler.ConversationByIDHandler)))
	mux.Handle("/conversations/{id}/messages", middleware.CORSMiddleware(http.HandlerFunc(handler.SendMessageHandler)))
	mux.Handle("/conversations/{id}/messages/stream", middleware.CORSMiddleware(http.HandlerFunc(handler.StreamMessageHandler)))

	server := &http.Server{
		Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
		Handler: mux,
	}

	go func() {
		logrus.Infof("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Failed to shut down server: %v", err)
	}

	logrus.Info("Server stopped")
}

func bootstrapDemoUser(st store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := st.GetUserByEmail(ctx, api.DemoUserEmail)
	if err != nil {
		logrus.Fatalf("Failed to look up demo user: %v", err)
	}
	if user != nil {
		logrus.Infof("Demo user already exists: %s", user.Email)
		return
	}
	user, err = st.CreateUser(ctx, api.DemoUserEmail)
	if err != nil {
		logrus.Fatalf("Failed to create demo user: %v", err)
	}
	logrus.Infof("Created demo user: %s", user.Email)
}
