// socketcored is a small daemon embedding internal/socket.Stack: it
// opens the fixed-capacity socket table over the real transport
// engine, serves Prometheus metrics and a minimal JSON introspection
// endpoint, and shuts down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/config"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/mcast"
	"github.com/embedstack/socketcore/internal/metrics"
	"github.com/embedstack/socketcore/internal/msgio"
	"github.com/embedstack/socketcore/internal/resolve"
	"github.com/embedstack/socketcore/internal/sockconn"
	"github.com/embedstack/socketcore/internal/socket"
	"github.com/embedstack/socketcore/internal/sockopt"
	"github.com/embedstack/socketcore/internal/socktab"
	"github.com/embedstack/socketcore/internal/transport"
	appversion "github.com/embedstack/socketcore/internal/version"
)

// sampleInterval is how often the open-socket gauge is refreshed from
// the live table (spec's ambient metrics have no push hook on Open/
// Close, so the daemon polls instead).
const sampleInterval = 2 * time.Second

// shutdownTimeout bounds how long the admin/metrics HTTP servers are
// given to drain in-flight requests.
const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("socketcored starting",
		slog.String("version", appversion.Version),
		slog.String("admin_addr", cfg.Admin.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
		slog.Int("table_capacity", cfg.Table.Capacity),
	)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	stack := buildStack(cfg, logger)

	if err := runServers(cfg, stack, collector, reg, logger); err != nil {
		logger.Error("socketcored exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("socketcored stopped")
	return 0
}

// buildStack wires the real transport engine into every facade
// component (spec §6/C1-C10), exactly mirroring internal/socket's own
// construction in socket_test.go but against a live transport instead
// of test fakes.
func buildStack(cfg *config.Config, logger *slog.Logger) *socket.Stack {
	tr := transport.NewTransport()

	limits := socktab.BufferLimits{
		DefaultSndBuf: cfg.Table.SndBufDefault,
		DefaultRcvBuf: cfg.Table.RcvBufDefault,
		MaxSndBuf:     cfg.Table.SndBufDefault * 16,
		MaxRcvBuf:     cfg.Table.RcvBufDefault * 16,
		DefaultMSS:    socktab.DefaultBufferLimits.DefaultMSS,
	}

	table := socktab.New(cfg.Table.Capacity, limits, transport.NewPortAllocator(), nil)
	tr.AttachTable(table)

	mcastEngine := mcast.NewEngine(mcast.Bounds{
		MaxGroups:  cfg.Mcast.MaxGroupsPerSocket,
		MaxSources: cfg.Mcast.MaxSourcesPerGroup,
	})
	mcastFilter := mcast.NewFilter(mcastEngine, tr)

	optEngine := sockopt.NewEngine(table, mcastFilter, tr, sockopt.DefaultFeatures)
	pipeline := msgio.NewPipeline(table, tr, tr)
	conn := sockconn.NewConn(table, tr)
	res := resolve.NewResolve(dnsResolver{}, localInterfaces(logger))

	return socket.NewStack(table, optEngine, pipeline, conn, res)
}

// localInterfaces enumerates the host's network interfaces for
// if_nametoindex/if_indextoname (spec §4.8). Enumeration failures are
// logged and yield an empty list rather than aborting startup.
func localInterfaces(logger *slog.Logger) []resolve.Interface {
	ifaces, err := net.Interfaces()
	if err != nil {
		logger.Warn("failed to enumerate network interfaces", slog.String("error", err.Error()))
		return nil
	}
	out := make([]resolve.Interface, 0, len(ifaces))
	for _, ifi := range ifaces {
		out = append(out, resolve.Interface{Name: ifi.Name})
	}
	return out
}

// dnsResolver implements resolve.Resolver using the standard library's
// DNS client, the out-of-scope external collaborator resolve.Resolve
// delegates to (spec §4.8, §1).
type dnsResolver struct{}

func (dnsResolver) Lookup(node string, family addr.Family) (addr.Addr, errno.Status) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIP(ctx, lookupNetwork(family), node)
	if err != nil {
		return addr.Addr{}, errno.StatusUnreachable
	}
	if len(ips) == 0 {
		return addr.Addr{}, errno.StatusUnreachable
	}

	na, ok := netip.AddrFromSlice(ips[0])
	if !ok {
		return addr.Addr{}, errno.StatusUnreachable
	}
	return addr.FromNetip(na.Unmap()), errno.StatusOK
}

func (dnsResolver) Reverse(a addr.Addr) (string, errno.Status) {
	na, ok := a.Netip()
	if !ok {
		return "", errno.StatusInvalidParameter
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(ctx, na.String())
	if err != nil || len(names) == 0 {
		return "", errno.StatusUnreachable
	}
	return names[0], errno.StatusOK
}

func lookupNetwork(family addr.Family) string {
	switch family {
	case addr.V4:
		return "ip4"
	case addr.V6:
		return "ip6"
	default:
		return "ip"
	}
}

// -------------------------------------------------------------------------
// Servers — admin introspection + Prometheus metrics
// -------------------------------------------------------------------------

func runServers(
	cfg *config.Config,
	stack *socket.Stack,
	collector *metrics.Collector,
	reg *prometheus.Registry,
	logger *slog.Logger,
) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	adminSrv := newAdminServer(cfg.Admin, stack)
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	lc := net.ListenConfig{}

	g.Go(func() error {
		logger.Info("admin server listening", slog.String("addr", cfg.Admin.Addr))
		return listenAndServe(gCtx, &lc, adminSrv, cfg.Admin.Addr)
	})

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(gCtx, &lc, metricsSrv, cfg.Metrics.Addr)
	})

	g.Go(func() error {
		sampleOpenSockets(gCtx, stack, collector)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, adminSrv, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// sampleOpenSockets polls the socket table every sampleInterval and
// refreshes the per-kind open-socket gauge, since Stack.Socket/Close
// don't themselves call into the metrics collector (spec §6's facade
// has no observability hook of its own).
func sampleOpenSockets(ctx context.Context, stack *socket.Stack, collector *metrics.Collector) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts := map[string]int{}
			stack.Table.ForEach(func(sock *socktab.Socket) {
				counts[sock.Kind.String()]++
			})
			collector.OpenSockets.Reset()
			for kind, n := range counts {
				collector.OpenSockets.WithLabelValues(kind).Set(float64(n))
			}
		}
	}
}

// socketView is the JSON shape served by the admin introspection
// endpoint (spec §4.8/ambient: "a minimal JSON introspection endpoint").
type socketView struct {
	Descriptor int    `json:"descriptor"`
	Kind       string `json:"kind"`
	Local      string `json:"local"`
	Remote     string `json:"remote"`
}

// groupView reports one socket's joined multicast groups, serving
// cmd/socketctl's "mcast" subcommand.
type groupView struct {
	Descriptor int      `json:"descriptor"`
	Groups     []string `json:"groups"`
}

func newAdminServer(cfg config.AdminConfig, stack *socket.Stack) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/sockets", func(w http.ResponseWriter, r *http.Request) {
		var views []socketView
		stack.Table.ForEach(func(sock *socktab.Socket) {
			views = append(views, socketView{
				Descriptor: sock.Descriptor,
				Kind:       sock.Kind.String(),
				Local:      sock.Local.Addr.String(),
				Remote:     sock.Remote.Addr.String(),
			})
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	})

	mux.HandleFunc("/groups", func(w http.ResponseWriter, r *http.Request) {
		var views []groupView
		stack.Table.ForEach(func(sock *socktab.Socket) {
			if len(sock.Mcast.Groups) == 0 {
				return
			}
			gv := groupView{Descriptor: sock.Descriptor}
			for _, g := range sock.Mcast.Groups {
				gv.Groups = append(gv.Groups, g.Addr.String())
			}
			views = append(views, gv)
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	})

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func gracefulShutdown(ctx context.Context, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
