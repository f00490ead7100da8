// Command hurriaid-cli runs one assessment for a ZIP code and prints it as JSON.
//
// Usage:
//
//	go run ./cmd/hurriaid-cli -zip 33101 -offline -rumors claims.txt -data-dir data
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ernestobalbinse/HurriAid/internal/app"
	"github.com/ernestobalbinse/HurriAid/internal/config"
	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
	"github.com/ernestobalbinse/HurriAid/internal/pipeline"
	"github.com/ernestobalbinse/HurriAid/internal/rumor"
)

type options struct {
	zip        string
	offline    bool
	rumorsPath string
	dataDir    string
}

// output is the document printed on stdout.
type output struct {
	Assessment domain.Assessment   `json:"assessment"`
	Rumors     *domain.RumorReport `json:"rumors,omitempty"`
	RumorError string              `json:"rumor_error,omitempty"`
}

func main() {
	var opts options
	flag.StringVar(&opts.zip, "zip", "", "5-digit ZIP code to assess")
	flag.BoolVar(&opts.offline, "offline", false, "use only the local data directory")
	flag.StringVar(&opts.rumorsPath, "rumors", "", "file of claims to check, one per line")
	flag.StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides DATA_DIR)")
	flag.Parse()

	if opts.zip == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, opts, cfg, observability.NewMetrics(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, opts options, cfg *config.Config, metrics *observability.Metrics, stdout, stderr io.Writer) int {
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	logger := observability.NewLoggerTo(stderr, cfg)

	services, err := app.New(ctx, cfg, metrics, logger)
	if err != nil {
		fmt.Fprintf(stderr, "initialize: %v\n", err)
		return 1
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Error("service close error", "error", err)
		}
	}()

	out := output{
		Assessment: services.Coordinator.Assess(ctx, pipeline.AssessRequest{ZIP: opts.zip, Offline: opts.offline}),
	}
	failed := out.Assessment.Failed()

	if opts.rumorsPath != "" {
		text, err := os.ReadFile(opts.rumorsPath)
		if err == nil {
			var report domain.RumorReport
			report, err = services.Rumors.Check(ctx, rumor.Request{Text: string(text), Offline: opts.offline})
			if err == nil {
				out.Rumors = &report
			}
		}
		if err != nil {
			out.RumorError = err.Error()
			failed = true
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "encode output: %v\n", err)
		return 1
	}
	if failed {
		return 1
	}
	return 0
}
