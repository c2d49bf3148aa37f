// Package profiling starts the opt-in pprof endpoint and Pyroscope continuous
// profiling.
package profiling

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	"time"

	"github.com/grafana/pyroscope-go"

	"github.com/jonesrussell/yelp-search/internal/logger"
)

const (
	defaultPprofPort       = "6060"
	defaultPyroscopeURL    = "http://pyroscope:4040"
	defaultEnvironment     = "development"
	pprofReadHeaderTimeout = 5 * time.Second
)

// Config selects which profilers run.
type Config struct {
	// PprofEnabled serves /debug/pprof on localhost:PprofPort.
	PprofEnabled bool
	PprofPort    string

	// PyroscopeEnabled pushes profiles to ServerURL.
	PyroscopeEnabled bool
	ServerURL        string
	Environment      string
	Version          string
}

// ConfigFromEnv reads ENABLE_PROFILING, PPROF_PORT, ENABLE_CONTINUOUS_PROFILING,
// PYROSCOPE_SERVER_URL, PYROSCOPE_ENVIRONMENT and APP_VERSION.
func ConfigFromEnv() Config {
	cfg := Config{
		PprofEnabled:     os.Getenv("ENABLE_PROFILING") == "true",
		PprofPort:        os.Getenv("PPROF_PORT"),
		PyroscopeEnabled: os.Getenv("ENABLE_CONTINUOUS_PROFILING") == "true",
		ServerURL:        os.Getenv("PYROSCOPE_SERVER_URL"),
		Environment:      os.Getenv("PYROSCOPE_ENVIRONMENT"),
		Version:          os.Getenv("APP_VERSION"),
	}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.PprofPort == "" {
		c.PprofPort = defaultPprofPort
	}
	if c.ServerURL == "" {
		c.ServerURL = defaultPyroscopeURL
	}
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
	if c.Version == "" {
		c.Version = "unknown"
	}
}

// Profiler holds the running profilers. The zero value is stopped.
type Profiler struct {
	pprofServer *http.Server
	pyroscope   *pyroscope.Profiler
}

// Start starts every enabled profiler. Nothing runs when both are disabled.
func Start(serviceName string, cfg Config, log logger.Logger) (*Profiler, error) {
	cfg.setDefaults()
	p := &Profiler{}

	if cfg.PprofEnabled {
		p.pprofServer = startPprof(cfg.PprofPort, log)
	}

	if cfg.PyroscopeEnabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "yelp-search." + serviceName,
			ServerAddress:   cfg.ServerURL,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
				pyroscope.ProfileGoroutines,
			},
			Tags: map[string]string{
				"environment": cfg.Environment,
				"version":     cfg.Version,
				"hostname":    hostname(),
				"go_version":  runtime.Version(),
			},
		})
		if err != nil {
			_ = p.Stop()
			return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
		}
		p.pyroscope = profiler
		log.Info("Pyroscope continuous profiling started",
			logger.String("server", cfg.ServerURL),
			logger.String("environment", cfg.Environment),
		)
	}

	return p, nil
}

// startPprof binds to localhost only.
func startPprof(port string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{
		Addr:              "localhost:" + port,
		Handler:           mux,
		ReadHeaderTimeout: pprofReadHeaderTimeout,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()

	return srv
}

// Stop stops every running profiler.
func (p *Profiler) Stop() error {
	if p == nil {
		return nil
	}

	var errs []error
	if p.pprofServer != nil {
		errs = append(errs, p.pprofServer.Close())
	}
	if p.pyroscope != nil {
		errs = append(errs, p.pyroscope.Stop())
	}
	return errors.Join(errs...)
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
