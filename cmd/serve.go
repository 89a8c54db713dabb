package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/soprim/pricebot/internal/fetcher"
	"github.com/soprim/pricebot/internal/handler"
	"github.com/soprim/pricebot/internal/ocr"
	"github.com/soprim/pricebot/pkg/llm"
	"github.com/soprim/pricebot/pkg/whatsapp"
)

var servePort int

// inboundHandler processes one parsed webhook message.
type inboundHandler interface {
	Handle(ctx context.Context, msg whatsapp.InboundMessage) error
}

// handleTimeout bounds one message's full resolution, scraper phases
// included.
const handleTimeout = 10 * time.Minute

func newRouter(h inboundHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Post("/webhook/whatsapp", func(w http.ResponseWriter, req *http.Request) {
		msg, err := whatsapp.ParseInbound(req)
		if err != nil {
			http.Error(w, "invalid webhook payload", http.StatusBadRequest)
			return
		}

		// Twilio retries on slow responses, so acknowledge now and
		// resolve in the background.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
			defer cancel()
			if err := h.Handle(ctx, *msg); err != nil {
				zap.L().Error("message handling failed",
					zap.String("from", msg.From),
					zap.Error(err),
				)
			}
		}()

		w.WriteHeader(http.StatusOK)
	})

	return r
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WhatsApp webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()
		defer env.Runner.Reap(context.Background())

		sender := whatsapp.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From)
		assistant := llm.NewAssistant(llm.NewClient(cfg.LLM.Key), cfg.LLM.Model)

		var extractor ocr.Extractor
		ex, err := ocr.NewExtractor(cfg.OCR.Provider, cfg.OCR.MistralKey, cfg.OCR.TesseractPath,
			fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}))
		if err != nil {
			zap.L().Warn("ocr disabled", zap.Error(err))
		} else {
			extractor = ex
		}

		h := handler.New(env.Resolver, assistant, sender, env.Store, extractor, env.Pricer, handler.Options{
			AllowedNumbers:   cfg.Handler.AllowedNumbers,
			RateLimit:        rate.Every(time.Duration(cfg.Handler.RateIntervalMS) * time.Millisecond),
			RateBurst:        cfg.Handler.RateBurst,
			HistoryLimit:     cfg.Handler.HistoryLimit,
			ContextThreshold: cfg.Resolve.ContextThreshold,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(h),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
