package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	bridge "vintageshock/bridge"
	servernet "vintageshock/bridge/internal/net"
	"vintageshock/bridge/logging"
	logginglifecycle "vintageshock/bridge/logging/lifecycle"
	loggingsinks "vintageshock/bridge/logging/sinks"
)

type Config struct {
	Viper  *viper.Viper
	Logger *log.Logger
}

// LoadSettings maps the viper tree into a Settings snapshot. A failed load
// falls back to defaults; the caller decides whether to log the error.
func LoadSettings(v *viper.Viper) (bridge.Settings, error) {
	settings := bridge.DefaultSettings()
	if v == nil {
		return settings, nil
	}
	if err := v.Unmarshal(&settings); err != nil {
		return bridge.DefaultSettings(), fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}

// Run wires logging, settings, the hub, and the HTTP server, then serves
// until the context is cancelled. SIGHUP performs the same explicit reload
// as POST /reload.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	v := cfg.Viper
	if v == nil {
		v = viper.GetViper()
	}

	logConfig := loggingConfigFromViper(v)
	sinks := []logging.NamedSink{}
	if logConfig.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingsinks.NewConsoleSink(os.Stdout)})
	}
	if logConfig.HasSink("json") && logConfig.JSON.FilePath != "" {
		file, err := os.OpenFile(logConfig.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Printf("cannot open json log file %s: %v", logConfig.JSON.FilePath, err)
		} else {
			sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingsinks.NewJSONSink(file, logConfig.JSON.FlushInterval)})
		}
	}

	router, err := logging.NewRouter(nil, logConfig, sinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	settings, err := LoadSettings(v)
	if err != nil {
		logger.Printf("settings load failed, using defaults: %v", err)
		logginglifecycle.SettingsLoadFailed(ctx, router, logginglifecycle.FailurePayload{Error: err.Error()})
	}
	store := bridge.NewSettingsStore(settings)

	hub := bridge.NewHub(bridge.HubConfig{
		Settings:  store,
		Publisher: logging.WithFields(router, map[string]any{"version": bridge.Version}),
		Logger:    logger,
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close hub: %v", cerr)
		}
	}()

	reload := newReloader(ctx, v, store, router)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if rerr := reload(); rerr != nil {
					logger.Printf("SIGHUP reload failed: %v", rerr)
				}
			}
		}
	}()

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		Logger: logger,
		Reload: reload,
	})

	addr := v.GetString("listen_addr")
	if addr == "" {
		addr = ":8970"
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	logginglifecycle.Started(ctx, router, logginglifecycle.StartedPayload{Addr: addr, Version: bridge.Version})
	logger.Printf("bridge listening on %s", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			return fmt.Errorf("shutdown: %w", serr)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// newReloader builds the reload func shared by POST /reload and SIGHUP.
// A failed read installs defaults so a broken config file degrades the
// bridge to a known state instead of keeping a stale snapshot.
func newReloader(ctx context.Context, v *viper.Viper, store *bridge.SettingsStore, pub logging.Publisher) func() error {
	return func() error {
		if rerr := v.ReadInConfig(); rerr != nil {
			store.Replace(bridge.DefaultSettings())
			logginglifecycle.SettingsLoadFailed(ctx, pub, logginglifecycle.FailurePayload{Error: rerr.Error()})
			return fmt.Errorf("read config: %w", rerr)
		}
		next, lerr := LoadSettings(v)
		store.Replace(next)
		if lerr != nil {
			logginglifecycle.SettingsLoadFailed(ctx, pub, logginglifecycle.FailurePayload{Error: lerr.Error()})
			return lerr
		}
		logginglifecycle.SettingsReloaded(ctx, pub, logginglifecycle.ReloadPayload{
			Enabled: next.Enabled,
			Source:  v.ConfigFileUsed(),
		})
		return nil
	}
}

func loggingConfigFromViper(v *viper.Viper) logging.Config {
	cfg := logging.DefaultConfig()
	if v == nil {
		return cfg
	}
	if sinks := v.GetStringSlice("log.sinks"); len(sinks) > 0 {
		cfg.EnabledSinks = sinks
	}
	if path := v.GetString("log.json_path"); path != "" {
		cfg.JSON.FilePath = path
	}
	if size := v.GetInt("log.buffer_size"); size > 0 {
		cfg.BufferSize = size
	}
	if v.GetBool("debug") {
		cfg.MinimumSeverity = logging.SeverityDebug
	}
	return cfg
}
