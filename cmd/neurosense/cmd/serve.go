package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/neurosense/assessment-service/internal/config"
	"github.com/neurosense/assessment-service/internal/handlers"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/utils"
)

const shutdownTimeout = 15 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Start the REST API and the /api/v1/voice/ws WebSocket endpoint.

The store, cache, event publisher and speech providers are chosen from
configuration. With STORE_DRIVER=memory the demo accounts are seeded.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx, os.Stdout)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.LoggerMiddleware(a.logger), utils.ContextLogger(a.logger), gin.Recovery())

	var remote speech.Synthesizer
	if a.cfg.TTSMode == config.TTSModeRemote {
		remote = a.synth
	}
	hm := handlers.NewHandlerManager(a.services, handlers.VoiceSocketConfig{
		Synthesizer: remote,
		SpeechLang:  a.cfg.STTLanguage,
	}, a.logger)
	hm.SetupRoutes(router)

	port := a.cfg.Port
	if servePort != "" {
		port = servePort
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting",
			"port", port,
			"environment", a.cfg.Environment,
			"store", a.cfg.StoreDriver,
			"stt_providers", a.relay.Providers(),
			"tts_mode", a.cfg.TTSMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Graceful shutdown failed", "error", err)
		return err
	}
	return nil
}
