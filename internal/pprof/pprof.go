// Package pprof wires Go's profilers into the calculator commands: CPU and
// heap profiles written to files, and the /debug/pprof endpoints on a
// separate listener.
package pprof

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	netpprof "net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/julienschmidt/httprouter"
)

// Config selects which profilers run. Empty fields are disabled.
type Config struct {
	HTTPAddr    string // e.g. "localhost:6060"
	CPUProfile  string // file written while the profiler runs
	HeapProfile string // file written on Stop
}

// Enabled reports whether any profiler is configured
func (c Config) Enabled() bool {
	return c.HTTPAddr != "" || c.CPUProfile != "" || c.HeapProfile != ""
}

// Profiler manages the configured profilers
type Profiler struct {
	config   Config
	log      *logger.Logger
	cpuFile  *os.File
	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	stopped bool
}

// Start starts the configured profilers
func Start(config Config, log *logger.Logger) (*Profiler, error) {
	if log == nil {
		log = logger.Global()
	}
	p := &Profiler{config: config, log: log.WithPrefix("pprof")}

	if config.CPUProfile != "" {
		f, err := createFile(config.CPUProfile)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to start CPU profiling: %w", err)
		}
		p.cpuFile = f
		p.log.Info("writing CPU profile to %s", config.CPUProfile)
	}

	if config.HTTPAddr != "" {
		ln, err := net.Listen("tcp", config.HTTPAddr)
		if err != nil {
			p.stopCPU()
			return nil, fmt.Errorf("failed to bind pprof HTTP server: %w", err)
		}
		p.listener = ln
		p.server = &http.Server{
			Handler:           Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				p.log.Error("pprof server error: %v", err)
			}
		}()
		p.log.Info("pprof endpoints on http://%s/debug/pprof/", ln.Addr())
	}

	return p, nil
}

// Router returns the /debug/pprof routes
func Router() *httprouter.Router {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/debug/pprof/", netpprof.Index)
	router.HandlerFunc(http.MethodGet, "/debug/pprof/cmdline", netpprof.Cmdline)
	router.HandlerFunc(http.MethodGet, "/debug/pprof/profile", netpprof.Profile)
	router.HandlerFunc(http.MethodGet, "/debug/pprof/symbol", netpprof.Symbol)
	router.HandlerFunc(http.MethodPost, "/debug/pprof/symbol", netpprof.Symbol)
	router.HandlerFunc(http.MethodGet, "/debug/pprof/trace", netpprof.Trace)
	for _, name := range []string{"goroutine", "heap", "allocs", "block", "mutex", "threadcreate"} {
		router.Handler(http.MethodGet, "/debug/pprof/"+name, netpprof.Handler(name))
	}
	return router
}

// Addr returns the address of the pprof listener, or "" when disabled
func (p *Profiler) Addr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Stop stops CPU profiling, writes the heap profile and closes the
// listener. Calling Stop more than once is a no-op.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true

	var errs []error
	if err := p.stopCPU(); err != nil {
		errs = append(errs, err)
	}

	if p.config.HeapProfile != "" {
		if err := writeHeapProfile(p.config.HeapProfile); err != nil {
			errs = append(errs, err)
		} else {
			p.log.Info("wrote heap profile to %s", p.config.HeapProfile)
		}
	}

	if p.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown pprof server: %w", err))
		}
		p.server = nil
	}

	return errors.Join(errs...)
}

func (p *Profiler) stopCPU() error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpuFile.Close()
	p.cpuFile = nil
	if err != nil {
		return fmt.Errorf("failed to close CPU profile: %w", err)
	}
	return nil
}

func writeHeapProfile(path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	runtime.GC() // up-to-date allocation statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile file: %w", err)
	}
	return f, nil
}
