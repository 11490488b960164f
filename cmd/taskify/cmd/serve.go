package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"taskify/internal/bot"
	httpapi "taskify/internal/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, the chat bot and the reminder timers",
	Long:  "Restores every reminder, purge and the daily sweep from storage, then serves the HTTP API and the Telegram bot until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a.facility.Start()
		if err := a.tasks.OnBootCompleted(ctx); err != nil {
			return err
		}

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Recover())
		httpapi.Register(e, httpapi.NewHandler(a.tasks))

		go func() {
			log.Printf("HTTP server listening on %s", a.cfg.HTTPAddr)
			if err := e.Start(a.cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("server stopped: %v", err)
				stop()
			}
		}()

		if a.botAPI != nil {
			telegramBot := bot.New(a.botAPI, a.tasks, a.cfg.TelegramChatID)
			go func() {
				if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("bot stopped with error: %v", err)
				}
			}()
		}

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		log.Println("Shutdown complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
