package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/OIRNOIR/oproxy-go/internal/config"
	"github.com/OIRNOIR/oproxy-go/internal/metrics"
	"github.com/OIRNOIR/oproxy-go/internal/model"
	"github.com/OIRNOIR/oproxy-go/internal/rawhttp"
	"github.com/OIRNOIR/oproxy-go/internal/relay"
	"github.com/OIRNOIR/oproxy-go/internal/timex"
	"github.com/OIRNOIR/oproxy-go/internal/tunnel"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type fetchCmd struct {
	Target string `kong:"arg,required,help='Target endpoint URL to tunnel to.'"`

	Method string   `kong:"short='X',help='HTTP method (default GET).'"`
	Header []string `kong:"short='H',help='Request header as name:value. Repeatable.'"`
	Data   string   `kong:"short='d',help='Request body.'"`

	Mode           string `kong:"help='Request mode, forwarded to the relay.'"`
	Credentials    string `kong:"help='Credentials policy, forwarded to the relay.'"`
	Redirect       string `kong:"help='Redirect policy for the relay to apply at the target.'"`
	Referrer       string `kong:"help='Request referrer, forwarded to the relay.'"`
	ReferrerPolicy string `kong:"help='Referrer policy, forwarded to the relay.'"`
	Integrity      string `kong:"help='Subresource integrity value, forwarded to the relay.'"`
	Keepalive      *bool  `kong:"help='Keepalive flag, forwarded to the relay. Omitted when unset.'"`

	Timeout      string `kong:"short='t',help='Overall deadline as a duration expression (e.g. 30s, 2m, 1h30m).'"`
	Include      bool   `kong:"short='i',help='Print response status and headers before the body.'"`
	ProxyHeaders bool   `kong:"help='Print the relay metadata headers to stderr.'"`
	ShowMetrics  bool   `kong:"help='Dump Prometheus metrics to stderr after the call.'"`
}

type parseCmd struct {
	File string `kong:"arg,optional,help='File with a raw HTTP/1.x response; empty or - reads stdin.'"`
}

var cli struct {
	config.CLI

	Fetch fetchCmd `kong:"cmd,help='Tunnel one HTTP request through the relay.'"`
	Parse parseCmd `kong:"cmd,help='Parse a raw HTTP/1.x response into its structured form.'"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("oproxy"),
		kong.Description("HTTP tunneling client: requests a target through a fixed relay endpoint."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	switch {
	case strings.HasPrefix(kctx.Command(), "parse"):
		os.Exit(runParse(&cli.Parse))
	default:
		os.Exit(runFetch())
	}
}

// runFetch wires the tunnel stack with fx and performs one tunneled request.
func runFetch() int {
	exit := 0

	app := fx.New(
		fx.Provide(
			func() *config.CLI { return &cli.CLI },
			config.Load,
			newLogger,
			newMetrics,
			relay.NewClient,
			newTunnelClient,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
		}),
		fx.Invoke(warnConfigPermissions),
		fx.Invoke(func(lc fx.Lifecycle, sd fx.Shutdowner, tc *tunnel.Client, m *metrics.Metrics, logger *slog.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						exit = fetch(&cli.Fetch, tc, m, logger)
						_ = sd.Shutdown()
					}()
					return nil
				},
			})
		}),
	)

	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "oproxy: %v\n", err)
		return 2
	}

	app.Run()
	return exit
}

// fetch performs the tunneled request and writes the response out.
func fetch(cmd *fetchCmd, tc *tunnel.Client, m *metrics.Metrics, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := buildOptions(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oproxy: %v\n", err)
		return 2
	}

	call := func(ctx context.Context) (*model.Response, error) {
		return tc.Tunnel(ctx, cmd.Target, opts)
	}

	var resp *model.Response
	if cmd.Timeout != "" {
		d, perr := timex.ParseExpression(cmd.Timeout)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "oproxy: %v\n", perr)
			return 2
		}
		// Wire the shared cancellation through the race so the losing
		// tunnel call is actually aborted, not just abandoned; a loser
		// that still completes gets its body released by the race itself.
		raceCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		resp, err = timex.RaceCleanup(raceCtx, d, call, func(late *model.Response) {
			_, _ = io.Copy(io.Discard, late.Body)
			_ = late.Body.Close()
		})
		if errors.Is(err, timex.ErrTimeout) {
			cancel()
		}
	} else {
		resp, err = call(ctx)
	}

	if err != nil {
		logger.Error("tunnel call failed", "target", cmd.Target, "err", err)
		fmt.Fprintf(os.Stderr, "oproxy: %v\n", mapError(err))
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	if cmd.ProxyHeaders {
		writeHeaderBlock(os.Stderr, resp.ProxyHeader)
	}
	if cmd.Include {
		fmt.Fprintf(os.Stdout, "%d %s\n", resp.StatusCode, resp.Status)
		writeHeaderBlock(os.Stdout, resp.Header)
		fmt.Fprintln(os.Stdout)
	}
	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		logger.Error("reading response body", "err", err)
		return 1
	}

	if cmd.ShowMetrics && m != nil {
		dumpMetrics(os.Stderr, m)
	}
	return 0
}

// runParse feeds a raw response blob through the parser and prints the
// structured result in the same layout fetch --include uses.
func runParse(cmd *parseCmd) int {
	var (
		raw []byte
		err error
	)
	if cmd.File == "" || cmd.File == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(cmd.File)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "oproxy: %v\n", err)
		return 2
	}

	resp, err := rawhttp.Parse(string(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "oproxy: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stdout, "%d %s\n", resp.StatusCode, resp.Status)
	writeHeaderBlock(os.Stdout, resp.Header)
	fmt.Fprintln(os.Stdout)
	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		fmt.Fprintf(os.Stderr, "oproxy: %v\n", err)
		return 1
	}
	return 0
}

// buildOptions maps fetch flags onto RequestOptions, leaving everything the
// caller did not set as unset.
func buildOptions(cmd *fetchCmd) (*model.RequestOptions, error) {
	opts := &model.RequestOptions{
		Method:         cmd.Method,
		Mode:           cmd.Mode,
		Credentials:    cmd.Credentials,
		Redirect:       cmd.Redirect,
		Referrer:       cmd.Referrer,
		ReferrerPolicy: cmd.ReferrerPolicy,
		Integrity:      cmd.Integrity,
		Keepalive:      cmd.Keepalive,
	}

	if cmd.Data != "" {
		opts.Body = strings.NewReader(cmd.Data)
	}

	if len(cmd.Header) > 0 {
		opts.Header = make(http.Header, len(cmd.Header))
		for _, h := range cmd.Header {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				return nil, fmt.Errorf("malformed header %q, want name:value", h)
			}
			opts.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		}
	}

	return opts, nil
}

// mapError turns well-known error kinds into short operator-facing messages.
func mapError(err error) string {
	switch {
	case errors.Is(err, timex.ErrTimeout):
		return "tunnel call timed out"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, context.DeadlineExceeded):
		return "tunnel call deadline exceeded"
	default:
		return err.Error()
	}
}

func writeHeaderBlock(w io.Writer, h http.Header) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range h[name] {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
	}
}

func dumpMetrics(w io.Writer, m *metrics.Metrics) {
	mfs, err := m.Registry.Gather()
	if err != nil {
		fmt.Fprintf(os.Stderr, "oproxy: gather metrics: %v\n", err)
		return
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		_ = enc.Encode(mf)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	default:
		h = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(h)
}

// newMetrics provides the registry; disabled metrics surface as nil, which
// the relay transport treats as "record nothing".
func newMetrics(cfg *config.Config) *metrics.Metrics {
	if !cfg.Metrics.Enabled && !cli.Fetch.ShowMetrics {
		return nil
	}
	return metrics.New()
}

func newTunnelClient(cfg *config.Config, rc *relay.Client, logger *slog.Logger) (*tunnel.Client, error) {
	return tunnel.NewClient(cfg.Relay.URL, rc, logger)
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}
