// Command imx585d is the IMX585 sensor control daemon. It drives the sensor
// over I2C, sequences its power via GPIO and exposes an HTTP control API.
// Run with --mock to use a simulated register channel (no hardware required).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/soho-enterprise/imx585-go/internal/api"
	"github.com/soho-enterprise/imx585-go/internal/events"
	"github.com/soho-enterprise/imx585-go/internal/hwconf"
	"github.com/soho-enterprise/imx585-go/internal/power"
	"github.com/soho-enterprise/imx585-go/internal/regio"
	"github.com/soho-enterprise/imx585-go/internal/sensor"
	"github.com/soho-enterprise/imx585-go/internal/zeroconf"
)

func main() {
	var (
		mock    = flag.Bool("mock", false, "use mock register channel (no I2C device required)")
		addr    = flag.String("addr", "", "HTTP listen address (overrides config)")
		cfgPath = flag.String("config", "", "board config file (TOML)")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Board config
	cfg := hwconf.Default()
	if *cfgPath != "" {
		loaded, err := hwconf.Load(*cfgPath)
		if err != nil {
			slog.Error("config load failed", "path", *cfgPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	hw, err := cfg.HW()
	if err != nil {
		slog.Error("invalid sensor configuration", "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Register channel and power sequencing
	var (
		ch    regio.Channel
		pwr   power.Sequencer
		ircut power.Filter
	)
	if *mock {
		slog.Info("using mock register channel")
		ch = regio.NewMock()
		pwr = &power.MockSequencer{}
		ircut = &power.MockFilter{}
	} else {
		slog.Info("using I2C register channel",
			"device", cfg.Bus.Device, "address", cfg.Bus.Address)
		ch, err = regio.OpenI2C(cfg.Bus.Device, cfg.Bus.Address)
		if err != nil {
			slog.Error("I2C open failed", "err", err)
			os.Exit(1)
		}
		pwr, err = power.NewGPIOSequencer(cfg.GPIO.Reset)
		if err != nil {
			slog.Error("reset GPIO setup failed", "pin", cfg.GPIO.Reset, "err", err)
			os.Exit(1)
		}
		if cfg.GPIO.IRCut != "" {
			ircut, err = power.NewGPIOFilter(cfg.GPIO.IRCut)
			if err != nil {
				slog.Error("IR-cut GPIO setup failed", "pin", cfg.GPIO.IRCut, "err", err)
				os.Exit(1)
			}
		}
	}
	defer ch.Close()

	// Sensor
	dev := sensor.New(ch, pwr, ircut, hw)
	if err := dev.Attach(ctx); err != nil {
		slog.Error("sensor attach failed", "err", err)
		os.Exit(1)
	}

	// Startup control values from the config
	applyControls := func(c *hwconf.Config) {
		vals, err := c.ControlValues()
		if err != nil {
			slog.Error("invalid control values", "err", err)
			return
		}
		for name, v := range vals {
			if err := dev.SetControlByName(ctx, name, v...); err != nil {
				slog.Warn("startup control rejected", "control", name, "err", err)
			}
		}
	}
	applyControls(cfg)

	// Event bus
	bus := events.NewBus[sensor.Status]()

	// Config watcher: reapplies [controls] on file changes
	if *cfgPath != "" {
		go func() {
			err := hwconf.Watch(ctx, *cfgPath, func(c *hwconf.Config) {
				applyControls(c)
				bus.Publish(dev.State())
			})
			if err != nil && ctx.Err() == nil {
				slog.Warn("config watcher stopped", "err", err)
			}
		}()
	}

	// Zeroconf mDNS registration
	if cfg.Server.Announce {
		hostname, _ := os.Hostname()
		port := 8585
		if parts := strings.SplitN(cfg.Server.Addr, ":", 2); len(parts) == 2 && parts[1] != "" {
			if p, err := strconv.Atoi(parts[1]); err == nil {
				port = p
			}
		}
		zc := zeroconf.New(hostname, port,
			"mono="+strconv.FormatBool(hw.Mono),
			"lanes="+strconv.Itoa(hw.Lanes))
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(dev, bus),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("imx585d listening", "addr", cfg.Server.Addr, "mock", *mock)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	// Stop streaming and release sensor power before closing the bus
	if dev.Streaming() {
		if err := dev.Stop(shutCtx); err != nil {
			slog.Warn("stream stop error", "err", err)
		}
	}

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}
