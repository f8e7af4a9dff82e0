package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/autoval/autoval/pkg/config"
	"github.com/autoval/autoval/pkg/surface"
	"github.com/autoval/autoval/pkg/valuation"
)

func newValueCmd() *cobra.Command {
	var (
		requestPath string
		tablesPath  string
		outputFmt   string
		showNeutral bool
		db          dbFlags
	)

	cmd := &cobra.Command{
		Use:   "value",
		Short: "Value a vehicle and print the adjustment breakdown",
		Long: `Reads a valuation request (JSON) from a file or stdin, runs every
adjustment factor, and prints the predicted price, confidence, price range
and the per-factor breakdown.`,
		Example: `  autoval value --request camry.json
  cat camry.json | autoval value --request - --output json
  autoval value --request camry.json --db-driver postgres --dsn postgres://localhost/autoval`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runValue(cmd.Context(), cfg, valueOpts{
				requestPath: requestPath,
				tablesPath:  tablesPath,
				outputFmt:   outputFmt,
				showNeutral: showNeutral,
				db:          db,
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&requestPath, "request", "", "Request JSON file, or - for stdin (required)")
	cmd.Flags().StringVar(&tablesPath, "tables", "", "Reference tables YAML (default: config, then bundled seed)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&showNeutral, "show-neutral", false, "List factors that left the price unchanged")
	db.register(cmd, "")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

type valueOpts struct {
	requestPath string
	tablesPath  string
	outputFmt   string
	showNeutral bool
	db          dbFlags
}

func runValue(ctx context.Context, cfg *config.Config, opts valueOpts, stdin io.Reader, stdout io.Writer) error {
	renderer, err := surface.ForFormat(opts.outputFmt)
	if err != nil {
		return err
	}
	if t, ok := renderer.(*surface.TerminalRenderer); ok {
		t.ShowNeutral = opts.showNeutral
	}

	req, err := readRequest(opts.requestPath, stdin)
	if err != nil {
		return err
	}

	src, closeSrc, err := tableSource(cfg, opts.tablesPath, opts.db)
	if err != nil {
		return err
	}
	defer closeSrc()

	engine, err := newEngine(cfg, src)
	if err != nil {
		return err
	}

	b, err := engine.Value(ctx, req)
	if err != nil {
		return err
	}
	return renderer.Render(stdout, b)
}

func readRequest(path string, stdin io.Reader) (*valuation.Request, error) {
	var r io.Reader
	switch path {
	case "":
		return nil, fmt.Errorf("--request is required")
	case "-":
		r = stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading request: %w", err)
		}
		defer f.Close()
		r = f
	}

	// Same decoding policy as the API: unknown keys are ignored and
	// unparseable optional attributes are left unset.
	var req valuation.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}
	return &req, nil
}
