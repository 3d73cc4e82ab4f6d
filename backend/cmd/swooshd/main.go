package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"swooshui/backend/internal/api"
	"swooshui/backend/internal/config"
	"swooshui/backend/internal/logger"
	"swooshui/backend/internal/metric"
	"swooshui/backend/internal/server"
	"swooshui/internal/dom"
	"swooshui/internal/swoosh"
)

var version = "dev" // -ldflags "-X main.version=..."

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "swooshd",
		Short:         "Serves the SwooshUI menu bar",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./swooshd.yaml or $HOME/.config/swooshd/swooshd.yaml)")

	root.AddCommand(newServeCmd(&cfgFile), newPreviewCmd())
	return root
}

func newServeCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve index.html, wasm_exec.js, swooshui.wasm and the bar preview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := config.New(*cfgFile)
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			c, err := config.Load(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c)
		},
	}

	d := config.Default()
	cmd.Flags().IntP("port", "p", d.Port, "port to listen on")
	cmd.Flags().String("assets-dir", d.AssetsDir, "directory with index.html, wasm_exec.js and swooshui.wasm")
	cmd.Flags().StringSlice("origins", d.Origins, "allowed CORS origins")
	cmd.Flags().String("log-level", d.LogLevel, "debug, info, warn or error")
	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"port":       "port",
		"assets_dir": "assets-dir",
		"origins":    "origins",
		"log_level":  "log-level",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind %s: %w", flag, err)
		}
	}
	return nil
}

func serve(ctx context.Context, c config.Config) error {
	log := logger.SetDefault("swooshd", version, c.LogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	assets := os.DirFS(c.AssetsDir)
	if _, err := os.Stat(c.AssetsDir); err != nil {
		log.Warn("assets directory unavailable, serving built-in index only", "dir", c.AssetsDir, "err", err)
		assets = nil
	}

	h := api.New(ctx, api.Config{
		Assets:   assets,
		Origins:  c.Origins,
		Rate:     rate.Limit(c.RateLimit),
		Burst:    c.RateBurst,
		Log:      log,
		Metrics:  metric.NewRecorder(reg),
		Gatherer: reg,
	})

	log.Info("starting swooshd", "assets_dir", c.AssetsDir)
	return server.New(serverOptions(c, log, h)...).Serve(ctx)
}

func serverOptions(c config.Config, log *slog.Logger, h http.Handler) []server.Option {
	opts := []server.Option{
		server.WithPort(c.Port),
		server.WithReadTimeout(c.ReadTimeout),
		server.WithWriteTimeout(c.WriteTimeout),
		server.WithIdleTimeout(c.IdleTimeout),
		server.WithMaxHeaderBytes(c.MaxHeaderBytes),
		server.WithShutdownTimeout(c.ShutdownTimeout),
		server.WithLogger(log),
		server.WithErrorLog(logger.ErrorLog(log)),
		server.WithHandler("/", h),
	}
	if c.TLS() {
		opts = append(opts, server.WithTLS(server.TLSConfig{CertFile: c.TLSCert, KeyFile: c.TLSKey}))
	}
	return opts
}

func newPreviewCmd() *cobra.Command {
	var active string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the mounted bar as HTML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return preview(cmd.Context(), cmd.OutOrStdout(), clockwork.NewRealClock(), active)
		},
	}
	cmd.Flags().StringVar(&active, "active", "", "label of the menu item to select")
	return cmd
}

func preview(ctx context.Context, w io.Writer, clock clockwork.Clock, active string) error {
	doc := dom.NewHTMLDocument()
	bar, err := swoosh.Mount(ctx, doc, swoosh.WithClock(clock), swoosh.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		return err
	}
	bar.Stop()
	bar.Tick()

	if active != "" {
		if err := bar.Click(slices.Index(swoosh.Labels(), active)); err != nil {
			return fmt.Errorf("select %q: %w", active, err)
		}
	}
	return doc.Render(w)
}
