package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amalgamconnect/docqa/logger"
	"github.com/amalgamconnect/docqa/server"
	"github.com/amalgamconnect/docqa/sites"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive question page",
	Long:  `Start an HTTP server rendering the document question page and the mapping sections.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			settings.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		var geocoder sites.Geocoder
		if settings.Geocoding.Enabled {
			geocoder, err = sites.NewNominatim(settings.Geocoding.BaseURL, settings.Geocoding.UserAgent)
			if err != nil {
				return err
			}
		}

		srv := server.NewServer(newHandler(settings), geocoder, settings)

		httpServer := &http.Server{
			Addr:         settings.Server.Addr,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: time.Duration(settings.LLM.APITimeout)*time.Second + 30*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Infof("Serving docqa on %s with provider %s", settings.Server.Addr, settings.LLM.Provider)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8501", "Address to listen on (overrides the settings file)")
	addLLMFlags(serveCmd)
}
