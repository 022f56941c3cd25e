package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
	"github.com/teenyweeny/urlshortener/internal/api"
	"github.com/teenyweeny/urlshortener/internal/monitor"
)

// shutdownTimeout laisse aux requêtes en cours et au dernier sweep le temps de finir.
const shutdownTimeout = 10 * time.Second

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de raccourcissement d'URLs et la purge des liens expirés.",
	Long: `Cette commande ouvre le store configuré, démarre la purge planifiée
des liens expirés, configure les APIs puis lance le serveur HTTP.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		log := cmd.Log
		cfg := cmd.Cfg

		// Ouvrir le store et initialiser le service métier
		linkService, closeRepo, err := cmd.OpenLinkService(cobraCmd.Context())
		if err != nil {
			log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("échec de l'ouverture du store")
		}
		defer func() {
			if err := closeRepo(); err != nil {
				log.Error().Err(err).Msg("échec de la fermeture du store")
			}
		}()
		log.Info().Str("driver", cfg.Store.Driver).Msg("service de liens initialisé")

		// Initialiser et lancer la purge planifiée des liens expirés.
		sweeper, err := monitor.NewExpirySweeper(linkService, cfg.Purge.Schedule, log)
		if err != nil {
			log.Fatal().Err(err).Msg("configuration de purge invalide")
		}
		sweeper.Start()

		// Configurer le routeur Gin et les handlers API.
		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		api.SetupRoutes(router, linkService, log)
		log.Info().Msg("routes API configurées")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:              serverAddr,
			Handler:           api.WithCORS(router, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Démarrer le serveur dans une goroutine pour ne pas bloquer.
		go func() {
			log.Info().Str("addr", serverAddr).Str("base_url", linkService.BaseURL()).Msg("démarrage du serveur")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("échec du démarrage du serveur")
			}
		}()

		// Attendre Ctrl+C ou un signal d'arrêt.
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("signal d'arrêt reçu, arrêt du serveur...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Arrêt propre du serveur HTTP puis de la purge.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("arrêt forcé du serveur")
		}
		if err := sweeper.Stop(ctx); err != nil {
			log.Error().Err(err).Msg("la purge ne s'est pas arrêtée à temps")
		}

		log.Info().Msg("serveur arrêté proprement")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
