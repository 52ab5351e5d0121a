// Command blockus-local serves Blockus tables over websockets without a
// Nakama server, for hot-seat play and bot testing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"blockus/internal/app"
	"blockus/internal/bot"
	"blockus/internal/config"
	"blockus/internal/ports/ws"

	"github.com/heroiclabs/nakama-common/runtime"
)

// stdLogger adapts the standard logger to runtime.Logger.
type stdLogger struct {
	l      *log.Logger
	fields map[string]interface{}
}

func (s stdLogger) print(level, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if len(s.fields) > 0 {
		keys := make([]string, 0, len(s.fields))
		for k := range s.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, s.fields[k]))
		}
		msg += " " + strings.Join(parts, " ")
	}
	s.l.Printf("%-5s %s", level, msg)
}

func (s stdLogger) Debug(format string, v ...interface{}) { s.print("DEBUG", format, v...) }
func (s stdLogger) Info(format string, v ...interface{})  { s.print("INFO", format, v...) }
func (s stdLogger) Warn(format string, v ...interface{})  { s.print("WARN", format, v...) }
func (s stdLogger) Error(format string, v ...interface{}) { s.print("ERROR", format, v...) }

func (s stdLogger) WithField(key string, v interface{}) runtime.Logger {
	return s.WithFields(map[string]interface{}{key: v})
}

func (s stdLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(s.fields)+len(fields))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return stdLogger{l: s.l, fields: merged}
}

func (s stdLogger) Fields() map[string]interface{} { return s.fields }

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "data/game_config.json", "game config file")
	identitiesPath := flag.String("bots", "data/bot_identities.json", "bot identities file")
	boardSize := flag.Int("board", 0, "board size override (0 keeps the configured size)")
	origins := flag.String("origins", "", "comma separated list of allowed websocket origins")
	flag.Parse()

	logger := stdLogger{l: log.New(os.Stderr, "blockus ", log.LstdFlags)}

	if err := config.LoadGameConfig(*configPath); err != nil {
		logger.Warn("Using default game config: %v", err)
	}
	cfg := config.GetGameConfig()
	if *boardSize > 0 {
		cfg.BoardSize = *boardSize
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config: %v", err)
		os.Exit(1)
	}
	if err := bot.LoadIdentities(*identitiesPath); err != nil {
		logger.Warn("Could not load bot identities, using fallback bots: %v", err)
	}

	hub := ws.NewHub(logger, app.NewService(cfg.BoardSize), strings.Split(*origins, ","))
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Listening on %s (board=%d)", *addr, cfg.BoardSize)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
