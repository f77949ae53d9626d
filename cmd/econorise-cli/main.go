// Command econorise-cli talks to the EconoRise backend from a terminal.
//
//	econorise-cli [global flags] <command> [flags]
//
// Every command prints JSON on stdout. Backend failures are printed as
// {"error": ...} and exit with status 1.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"econorise/internal/api"
	"econorise/internal/cli"
	"econorise/internal/config"
	"econorise/internal/core"
	"econorise/internal/log"

	"golang.org/x/sync/errgroup"
)

const usage = `usage: econorise-cli [-api URL] [-timeout D] [-v] <command> [flags]

commands:
  parse              parse "<amount> income|expense" lines locally
  assess             score a loan application
  financial-health   analyze parsed transactions
  indicators         unemployment and consumer price series
  market             market data documents
  development        population series for a country
  health             report whether the backend is reachable
  dashboard          fetch every read-only section concurrently
`

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("econorise-cli", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }

	baseURL := global.String("api", envOr("ECONORISE_API_BASE_URL", config.DefaultAPIBaseURL), "backend base URL")
	timeout := global.Duration("timeout", 30*time.Second, "per-request timeout")
	verbose := global.Bool("v", false, "log requests to stderr")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	logger := cli.SetupLoggerTo(stderr, level)

	client, err := api.New(*baseURL, api.WithTimeout(*timeout), api.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "invalid -api: %v\n", err)
		return 2
	}

	c := &commands{client: client, stdin: stdin, out: stdout, logger: logger}
	cmd, rest := global.Arg(0), global.Args()[1:]

	var runErr error
	switch cmd {
	case "parse":
		runErr = c.parse(rest)
	case "assess":
		runErr = c.assess(ctx, rest)
	case "financial-health":
		runErr = c.financialHealth(ctx, rest)
	case "indicators":
		runErr = c.indicators(ctx)
	case "market":
		runErr = c.market(ctx)
	case "development":
		runErr = c.development(ctx, rest)
	case "health":
		runErr = c.health(ctx)
	case "dashboard":
		runErr = c.dashboard(ctx, rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		global.Usage()
		return 2
	}

	var uerr usageError
	switch {
	case runErr == nil:
		return 0
	case errors.As(runErr, &uerr):
		fmt.Fprintln(stderr, uerr.Error())
		return 2
	default:
		_ = c.print(errorOutput(runErr))
		return 1
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

type commands struct {
	client *api.Client
	stdin  io.Reader
	out    io.Writer
	logger *log.Logger
}

func (c *commands) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// text returns the flag value, or stdin when the value is "-".
func (c *commands) text(value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	b, err := io.ReadAll(c.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func (c *commands) parse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	data := fs.String("data", "-", `transaction lines, "-" reads stdin`)
	if err := fs.Parse(args); err != nil {
		return usageError("parse: " + err.Error())
	}
	text, err := c.text(*data)
	if err != nil {
		return err
	}

	transactions, err := core.ParseTransactionsStrict(text)
	if err != nil {
		return err
	}
	income, expenses := core.Totals(transactions)
	return c.print(map[string]any{
		"transactions": transactions,
		"income":       income,
		"expenses":     expenses,
	})
}

func (c *commands) assess(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("assess", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	description := fs.String("description", "", "business description")
	data := fs.String("data", "-", `transaction history text, "-" reads stdin`)
	if err := fs.Parse(args); err != nil {
		return usageError("assess: " + err.Error())
	}
	text, err := c.text(*data)
	if err != nil {
		return err
	}

	req := core.AssessmentRequest{BusinessDescription: *description, TransactionData: text}
	if err := req.Validate(); err != nil {
		return usageError("assess: " + err.Error())
	}

	resp, err := c.client.AssessEligibility(ctx, req)
	if err != nil {
		return err
	}
	score := core.ClampScore(resp.LoanEligibilityScore)
	return c.print(map[string]any{
		"loan_eligibility_score": resp.LoanEligibilityScore,
		"score_label":            core.ScoreLabel(score),
		"approval":               core.ApprovalStatus(score),
		"key_risk_factors":       resp.KeyRiskFactors,
		"recommendation":         resp.Recommendation,
	})
}

func (c *commands) financialHealth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("financial-health", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	data := fs.String("data", "-", `transaction lines, "-" reads stdin`)
	if err := fs.Parse(args); err != nil {
		return usageError("financial-health: " + err.Error())
	}
	text, err := c.text(*data)
	if err != nil {
		return err
	}

	// Nothing parseable means nothing to send.
	transactions, err := core.ParseTransactionsStrict(text)
	if err != nil {
		return err
	}
	result, err := c.client.GetFinancialHealth(ctx, transactions)
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *commands) indicators(ctx context.Context) error {
	result, err := c.client.GetEconomicIndicators(ctx)
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *commands) market(ctx context.Context) error {
	items, err := c.client.GetMarketData(ctx)
	if err != nil {
		return err
	}
	return c.print(items)
}

func (c *commands) development(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("development", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	country := fs.String("country", "", "ISO-3166 alpha-3 code, empty uses the backend default")
	if err := fs.Parse(args); err != nil {
		return usageError("development: " + err.Error())
	}

	result, err := c.client.GetDevelopmentIndicators(ctx, strings.ToUpper(*country))
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *commands) health(ctx context.Context) error {
	online := c.client.CheckHealth(ctx)
	return c.print(map[string]any{
		"online":   online,
		"base_url": c.client.BaseURL(),
	})
}

// section is one dashboard entry. Exactly one of Data and Error is set.
type section struct {
	Data  any    `json:"data,omitempty"`
	Error *fault `json:"error,omitempty"`
}

type fault struct {
	Kind    string `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

func newFault(err error) *fault {
	f := &fault{Kind: "internal", Message: err.Error()}
	if errors.Is(err, core.ErrNoValidTransactions) {
		f.Kind = "validation"
	}
	if apiErr, ok := api.AsError(err); ok {
		f.Kind = apiErr.Kind.String()
		f.Status = apiErr.Status
	}
	return f
}

func errorOutput(err error) map[string]*fault {
	return map[string]*fault{"error": newFault(err)}
}

func (c *commands) dashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	country := fs.String("country", "", "country for the development section")
	if err := fs.Parse(args); err != nil {
		return usageError("dashboard: " + err.Error())
	}

	var (
		economic, market, development section
		online                        bool
	)

	// Sections fail independently: each goroutine records its error in its
	// own section and returns nil, so the group only joins them.
	var g errgroup.Group
	g.Go(func() error {
		economic = fetch(func() (any, error) { return c.client.GetEconomicIndicators(ctx) })
		return nil
	})
	g.Go(func() error {
		market = fetch(func() (any, error) { return c.client.GetMarketData(ctx) })
		return nil
	})
	g.Go(func() error {
		development = fetch(func() (any, error) {
			return c.client.GetDevelopmentIndicators(ctx, strings.ToUpper(*country))
		})
		return nil
	})
	g.Go(func() error {
		online = c.client.CheckHealth(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.Debug("Dashboard fetched",
		"economic_ok", economic.Error == nil,
		"market_ok", market.Error == nil,
		"development_ok", development.Error == nil,
		log.FieldOnline, online)

	return c.print(map[string]any{
		"online":                 online,
		"economic_indicators":    economic,
		"market_data":            market,
		"development_indicators": development,
	})
}

func fetch(get func() (any, error)) section {
	v, err := get()
	if err != nil {
		return section{Error: newFault(err)}
	}
	return section{Data: v}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
