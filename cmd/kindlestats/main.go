package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"kindlestats/lib/opsecrets"
	"kindlestats/lib/restyutil"
	"kindlestats/lib/scrapers/kindle"
	"kindlestats/lib/serviceutil"
	"kindlestats/lib/telemetry"
	"kindlestats/lib/timezone"
	"kindlestats/services/reading"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const dataDir = "data"

var debug *bool

var rootCmd = &cobra.Command{
	Use:   "kindlestats",
	Short: "kindlestats pulls reading activity off the Kindle parent dashboard and maintains a local history.",
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd.Context(), *debug)
	},
}

func init() {
	debug = rootCmd.Flags().Bool("debug", false, "Enable verbose logging and capture raw HTTP exchanges under data/debug.")
}

func run(ctx context.Context, debug bool) {
	telemetry.InitSlog(debug)

	tel, err := telemetry.SetupFromEnv(ctx, "kindlestats")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := reading.LoadConfig("config.json5", os.Stdin, os.Stdout)
	if err != nil {
		serviceutil.Fatal("failed to load config", err)
	}

	client, err := kindle.NewClient(kindle.ClientOptions{
		Credentials: opsecrets.Client{Vault: cfg.OpVault, Item: cfg.OpItem},
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize dashboard client", err)
	}
	if debug {
		runId := timezone.Now().Format("2006-01-02T150405")
		client.SetDebugOutput(restyutil.NewFilesystemOutput(
			filepath.Join(dataDir, "debug", runId),
		))
	}

	if err := client.Login(ctx); err != nil {
		serviceutil.Fatal("failed to sign in to the dashboard", err)
	}

	summary, err := reading.Run(ctx, client, reading.NewStore(dataDir), reading.Options{})
	if err != nil {
		serviceutil.Fatal("run failed", err)
	}

	printSummary(summary)
}

func printSummary(s reading.Summary) {
	dateRange := "no activity yet"
	if s.TotalDays > 0 {
		dateRange = fmt.Sprintf("%s to %s", s.FirstDate, s.LastDate)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"fetched days", s.FetchedDays},
		{"total days", s.TotalDays},
		{"new days", s.NewDays},
		{"date range", dateRange},
		{"raw fetch", s.FetchPath},
	})
	t.Render()
}

func main() {
	ctx := serviceutil.SignalContext()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
