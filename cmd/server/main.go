// Screener runs scored triage conversations with inbound meeting requests.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/health"
	"github.com/linnemanlabs/go-core/httpmw"
	"github.com/linnemanlabs/go-core/httpserver"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/metrics"
	"github.com/linnemanlabs/go-core/opshttp"
	"github.com/linnemanlabs/go-core/otelx"
	"github.com/linnemanlabs/go-core/prof"
	v "github.com/linnemanlabs/go-core/version"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/screener/internal/authmw"
	vc "github.com/linnemanlabs/screener/internal/cfg"
	"github.com/linnemanlabs/screener/internal/llm/claude"
	"github.com/linnemanlabs/screener/internal/notify/slack"
	"github.com/linnemanlabs/screener/internal/postgres"
	"github.com/linnemanlabs/screener/internal/triage"
	"github.com/linnemanlabs/screener/internal/triageapi"
)

const (
	appName   = "screener"
	component = "server"
	envPrefix = "SCREENER_"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

// configs groups every package's flag-backed config.
type configs struct {
	app   vc.Config
	http  httpserver.Config
	mw    httpmw.Config
	log   log.Config
	ops   opshttp.Config
	prof  prof.Config
	trace otelx.Config
}

func (c *configs) register(fs *flag.FlagSet) {
	c.app.RegisterFlags(fs)
	c.http.RegisterFlags(fs)
	c.mw.RegisterFlags(fs)
	c.log.RegisterFlags(fs)
	c.ops.RegisterFlags(fs)
	c.prof.RegisterFlags(fs)
	c.trace.RegisterFlags(fs)
}

func (c *configs) validate() error {
	if err := errors.Join(
		c.app.Validate(),
		c.http.Validate(),
		c.mw.Validate(),
		c.log.Validate(),
		c.ops.Validate(),
		c.prof.Validate(),
		c.trace.Validate(),
	); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if c.app.APIPort == c.ops.Port {
		return fmt.Errorf("http and admin ports must differ (both %d)", c.app.APIPort)
	}
	return nil
}

func run() error {
	// .env is optional; values already in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v.AppName = appName
	v.Component = component
	vi := v.Get()

	var c configs
	c.register(flag.CommandLine)
	var showVersion bool
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()
	if showVersion {
		fmt.Printf(
			"%s (%s) %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%v)\n",
			vi.AppName, vi.Component, vi.Version, vi.Commit, vi.CommitDate, vi.BuildId, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty,
		)
		return nil
	}

	// env fills only flags not set on the command line
	cfg.FillFromEnv(flag.CommandLine, envPrefix, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	if err := c.validate(); err != nil {
		return err
	}

	lg, err := log.New(c.log.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	L := lg.With("component", vi.Component)
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"build_id", vi.BuildId,
		"go_version", vi.GoVersion,
		"http_port", c.app.APIPort,
		"admin_port", c.ops.Port,
		"enable_pprof", c.ops.EnablePprof,
		"enable_pyroscope", c.prof.EnablePyroscope,
		"enable_tracing", c.trace.EnableTracing,
		"trace_sample", c.trace.TraceSample,
		"otlp_endpoint", c.trace.OTLPEndpoint,
		"trusted_proxy_hops", c.mw.TrustedProxyHops,
		"api_auth", c.app.APIToken != "",
		"embeddings", c.app.GeminiAPIKey != "",
	)

	// profiling starts first so the whole lifetime is captured
	profOpts := c.prof.ToOptions()
	profOpts.AppName = v.AppName
	profOpts.Tags = map[string]string{
		"app":       v.AppName,
		"component": v.Component,
		"version":   vi.Version,
		"commit":    vi.Commit,
		"build_id":  vi.BuildId,
	}
	stopProf, profErr := prof.Start(ctx, profOpts)
	if profErr != nil {
		L.Error(ctx, profErr, "pyroscope start failed", "pyro_server", c.prof.PyroServer)
	}
	if stopProf == nil {
		stopProf = func() {}
	}
	defer stopProf()

	traceOpts := c.trace.ToOptions()
	traceOpts.Service = v.AppName
	traceOpts.Component = v.Component
	traceOpts.Version = v.Version
	shutdownOtel, err := otelx.Init(ctx, traceOpts)
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	if shutdownOtel == nil {
		shutdownOtel = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownOtel(context.Background()) }()

	// span ids are attached to profile samples
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(otel.GetTracerProvider()))

	m := metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, component, &vi)
	m.SetProfilingActive(profErr == nil && c.prof.EnablePyroscope)

	svc, cleanup, err := buildService(ctx, &c.app, m.Registry(), L)
	if err != nil {
		return err
	}
	defer cleanup()

	// readiness fails once draining starts so the load balancer stops routing here
	var gate health.ShutdownGate
	readiness := health.All(gate.Probe())
	liveness := health.Fixed(true, "")

	opsOpts := c.ops.ToOptions()
	opsOpts.Metrics = m.Handler()
	opsOpts.Health = liveness
	opsOpts.Readiness = readiness
	opsOpts.UseRecoverMW = true
	opsOpts.OnPanic = m.IncHttpPanic

	// the ops listener is for internal monitoring only
	stopOps, err := opshttp.Start(ctx, L, opsOpts)
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		return err
	}

	tokens := authmw.ParseTokens(c.app.APIToken)
	if len(tokens) == 0 {
		L.Warn(ctx, "api-token not set, /api/v1 is unauthenticated")
	}
	api := triageapi.New(L, svc, authmw.BearerToken(tokens...))
	h := newHandler(api, health.HealthzHandler(liveness), health.ReadyzHandler(readiness), m.Middleware, L, c.mw.TrustedProxyHops)

	httpOpts, err := c.http.ToOptions()
	if err != nil {
		L.Error(ctx, err, "invalid http config")
		return err
	}
	stopAPI, err := httpserver.Start(ctx, fmt.Sprintf(":%d", c.app.APIPort), h, L, httpOpts)
	if err != nil {
		L.Error(ctx, err, "failed to start api http listener")
		return err
	}

	if err := notifySystemd(); err != nil {
		// systemd kills us after its own timeout if this mattered
		L.Warn(ctx, "failed to notify systemd of readiness", "error", err)
	}

	<-ctx.Done()

	bg := context.Background()
	L.Info(bg, "shutdown signal received")
	gate.Set("draining")
	drain(L, time.Duration(c.app.DrainSeconds)*time.Second)

	shutdown(L, time.Duration(c.app.ShutdownBudgetSeconds)*time.Second, []stopFn{
		{"api http server", stopAPI},
		{"ops http server", stopOps},
		{"otel", shutdownOtel},
	})

	L.Info(bg, "shutdown complete")
	return nil
}

// buildService wires storage, collaborators, engine and service. cleanup
// releases everything opened here.
func buildService(ctx context.Context, c *vc.Config, reg prometheus.Registerer, L log.Logger) (*triage.Service, func(), error) {
	var closers []closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*triage.Service, func(), error) {
		cleanup()
		return nil, nil, err
	}

	thresholds, err := c.LoadThresholds(c.ThresholdsFile)
	if err != nil {
		return fail(err)
	}
	L.Info(ctx, "thresholds loaded",
		"file", c.ThresholdsFile,
		"min_turns", thresholds.Trigger.MinTurns,
		"max_turns", thresholds.Trigger.MaxTurns,
	)

	store, closeStore, err := openStore(ctx, c, L)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)

	corpus, closeCorpus, err := openCorpus(ctx, c, L)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeCorpus)

	embedder, err := openEmbedder(ctx, c, L)
	if err != nil {
		return fail(fmt.Errorf("gemini embedder: %w", err))
	}

	// one client serves as evaluator and responder
	llm := claude.New(claude.Config{
		APIKey:     c.ClaudeAPIKey,
		Model:      c.ClaudeModel,
		Timeout:    time.Duration(c.EvaluatorTimeoutSeconds) * time.Second,
		MaxRetries: c.EvaluatorMaxRetries,
	}, L)
	L.Info(ctx, "initialized LLM provider", "provider", "claude", "model", c.ClaudeModel)

	tm := triage.NewMetrics(reg)

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screener_db_query_duration_seconds",
		Help:    "Duration of individual database queries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "outcome"})
	reg.MustRegister(dbQueryDuration)
	postgres.SetQueryObserver(postgres.QueryObserverFunc(
		func(_ context.Context, method, route, outcome string, dur time.Duration) {
			dbQueryDuration.WithLabelValues(method, route, outcome).Observe(dur.Seconds())
		},
	))

	deps := triage.Deps{Evaluator: llm, Responder: llm, Corpus: corpus}
	if embedder != nil {
		deps.Embedder = embedder
	}
	engine := triage.NewEngine(thresholds, deps, L, tm.Hooks())

	var notifier triage.Notifier
	if c.SlackWebhookURL != "" {
		notifier = slack.New(c.SlackWebhookURL, L)
		L.Info(ctx, "notifier enabled", "type", "slack")
	}

	return triage.NewService(store, engine, notifier, tm, L), cleanup, nil
}

// drain waits for the load balancer to notice the failing readiness probe.
// A second signal cuts it short.
func drain(L log.Logger, d time.Duration) {
	ctx := context.Background()
	L.Info(ctx, "draining", "drain_seconds", d.Seconds())
	force := make(chan os.Signal, 1)
	signal.Notify(force, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(force)
	select {
	case <-time.After(d):
		L.Info(ctx, "drain period complete")
	case <-force:
		L.Warn(ctx, "second signal received, skipping drain")
	}
}

type stopFn struct {
	name string
	fn   func(context.Context) error
}

// shutdown stops components in order, each with an equal slice of budget.
func shutdown(L log.Logger, budget time.Duration, fns []stopFn) {
	if len(fns) == 0 {
		return
	}
	per := budget / time.Duration(len(fns))
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	for _, s := range fns {
		cctx, ccancel := context.WithTimeout(ctx, per)
		if err := s.fn(cctx); err != nil {
			L.Error(context.Background(), err, s.name+" shutdown")
		}
		ccancel()
	}
}

func notifySystemd() error {
	// set by systemd for Type=notify units
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set, skipping systemd notify")
	}
	conn, err := net.Dial("unixgram", addr) //nolint:gosec,noctx // addr comes from systemd; unixgram dial has no context variant
	if err != nil {
		return fmt.Errorf("systemd notify failed: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if _, err := conn.Write([]byte("READY=1")); err != nil {
		return fmt.Errorf("systemd notify failed: write failed: %w", err)
	}
	return nil
}
