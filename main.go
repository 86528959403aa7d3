package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/config"
	"github.com/whisky55/rede-social/db"
	"github.com/whisky55/rede-social/media"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/routes"
	"github.com/whisky55/rede-social/social"
	"github.com/whisky55/rede-social/utils"
)

const (
	hubBuffer       = 256
	shutdownTimeout = 10 * time.Second
)

// @title API Rede Social
// @version 1.0
// @description Posts, likes, abonnements, feed et événements temps réel
// @host localhost:8080
// @BasePath /
// @SecurityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Entrez le JWT avec le préfixe Bearer: Bearer <JWT>
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration invalide: ", err)
	}

	utils.ConfigureLogger(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialiser le stockage
	st, err := db.Open(ctx, cfg)
	if err != nil {
		utils.LogError(err, "Error opening store")
		log.Fatal("Impossible d'ouvrir le stockage: ", err)
	}

	hub := realtime.NewHub(hubBuffer)

	var bridge *realtime.RedisBridge
	if cfg.RedisURL != "" {
		client, err := realtime.NewRedisClient(cfg.RedisURL)
		if err != nil {
			utils.LogError(err, "Redis indisponible, les événements restent locaux à cette instance")
		} else {
			bridge = realtime.NewRedisBridge(client, hub, realtime.DefaultRedisChannel)
			if err := bridge.Start(); err != nil {
				utils.LogError(err, "Error starting redis bridge")
				_ = client.Close()
				bridge = nil
			}
		}
	}

	// Initialiser le nettoyage des images
	cleaner, err := media.New(ctx, cfg)
	if err != nil {
		utils.LogError(err, "Avertissement: initialisation du stockage d'images a échoué, les anciennes images ne seront pas supprimées")
		cleaner = media.Noop{}
	}

	svc := social.NewService(st, hub, cleaner, social.Options{
		Timeout:     cfg.StoreTimeout,
		MaxAttempts: cfg.TxMaxAttempts,
		Backoff:     cfg.TxBackoff,
		PageSize:    cfg.FeedPageSize,
	})

	r := routes.SetupRouter(routes.Deps{
		Service:     svc,
		Hub:         hub,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		utils.LogInfo("Server listening on :" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Erreur lors du démarrage du serveur: ", err)
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// les websockets sont fermés par le hub, Shutdown n'attend pas les connexions détournées
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Error during server shutdown")
	}
	if bridge != nil {
		if err := bridge.Close(); err != nil {
			utils.LogError(err, "Error closing redis bridge")
		}
	}
	if err := st.Close(shutdownCtx); err != nil {
		utils.LogError(err, "Error closing store")
	}
	utils.LogSuccess("Server stopped")
}
