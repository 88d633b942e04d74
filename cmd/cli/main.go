package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"esgdash/adapters/export"
	"esgdash/app"
	"esgdash/domain/table"
	"esgdash/internal"
	"esgdash/internal/config"
	"esgdash/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cli struct {
	dataDir     string
	catalogFile string
	c           *container.Container
}

func newRootCmd() *cobra.Command {
	a := &cli{}
	rootCmd := &cobra.Command{
		Use:           "esgdash-cli",
		Short:         "Validate, inspect and export ESG dashboard datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.c != nil {
				return a.c.Shutdown()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Directory holding dataset files (default $DATA_DIR or ./data)")
	rootCmd.PersistentFlags().StringVar(&a.catalogFile, "catalog", "", "Dataset catalog YAML (default: built-in catalog)")

	rootCmd.AddCommand(
		a.newValidateCmd(),
		a.newShowCmd(),
		a.newAdjustCmd(),
		a.newExportCmd(),
		a.newSummarizeCmd(),
	)
	return rootCmd
}

func (a *cli) init(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.Data.Dir = a.dataDir
	}
	if a.catalogFile != "" {
		if cfg.Catalog, err = config.LoadCatalog(a.catalogFile); err != nil {
			return err
		}
	}
	cfg.Metrics.Enabled = false

	a.c, err = container.New(ctx, cfg, internal.DefaultLogger)
	return err
}

func (a *cli) newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [dataset...]",
		Short: "Load datasets and report columns, row counts and problems",
		Long: `Load each dataset (all catalog datasets by default) and print its columns,
row count, status and any missing columns or unreadable values.

Example: esgdash-cli validate risk_data kpi_data --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = a.c.Config.Catalog.Names()
			}
			results := a.c.Loader.LoadAll(cmd.Context(), names)

			out := cmd.OutOrStdout()
			failed := 0
			for i, res := range results {
				fmt.Fprintf(out, "%s: %s, %d rows\n", names[i], res.Status, res.Table.Len())
				if cols := res.Table.Columns(); len(cols) > 0 {
					fmt.Fprintf(out, "  columns: %s\n", strings.Join(cols, ", "))
				}
				if len(res.Missing) > 0 {
					fmt.Fprintf(out, "  missing: %s\n", strings.Join(res.Missing, ", "))
				}
				for _, d := range res.Diagnostics {
					fmt.Fprintf(out, "  %s\n", d)
				}
				if !res.OK() {
					failed++
				}
			}
			if strict && failed > 0 {
				return fmt.Errorf("%d of %d datasets failed validation", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any dataset is degraded or empty")
	return cmd
}

func (a *cli) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [dataset]",
		Short: "Print a dataset page: headline figures and the computed table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.c.Pipeline.Run(cmd.Context(), args[0], nil)
			return printPage(cmd.OutOrStdout(), res, false)
		},
	}
}

func (a *cli) newAdjustCmd() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "adjust [dataset]",
		Short: "Recompute a dataset with what-if values for its adjustable column",
		Long: `Recompute a dataset with overrides for its adjustable column. Rows are
addressed by index or label; values are clamped to the configured bound.

Example: esgdash-cli adjust risk_data --set Flood=2000000 --set 1=250000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			res := a.c.Pipeline.RunForm(cmd.Context(), args[0], values)
			return printPage(cmd.OutOrStdout(), res, true)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Override as row=value, repeatable")
	return cmd
}

func (a *cli) newExportCmd() *cobra.Command {
	var (
		format   string
		outPath  string
		chart    int
		adjusted bool
		sets     []string
	)

	cmd := &cobra.Command{
		Use:   "export [dataset]",
		Short: "Write a dataset as CSV, XLSX, a PNG chart or a text summary",
		Long: `Write the computed (or, with --adjusted, the adjusted) table of a dataset.

Example: esgdash-cli export risk_data --format png --chart 1 --set Flood=2000000 --out impact.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			res := a.c.Pipeline.RunForm(cmd.Context(), args[0], values)
			if res.Empty() {
				return fmt.Errorf("%s", res.SummaryText())
			}

			w := cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outPath, err)
				}
				defer f.Close()
				w = f
			}

			t := res.Table()
			if adjusted {
				t = res.AdjustedTable()
			}
			switch strings.ToLower(format) {
			case "csv":
				return export.CSVExporter{}.Export(w, t)
			case "xlsx":
				return export.XLSXExporter{}.Export(w, t)
			case "png":
				data, err := res.Chart(chart)
				if err != nil {
					return err
				}
				return export.NewPNGChart(a.c.Config.Catalog.Theme).Render(w, data)
			case "txt":
				return export.SummaryText(w, res.SummaryLines())
			}
			return fmt.Errorf("unknown format %q (use csv, xlsx, png or txt)", format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv, xlsx, png or txt")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output file, - for stdout")
	cmd.Flags().IntVar(&chart, "chart", 0, "Chart index for --format png")
	cmd.Flags().BoolVar(&adjusted, "adjusted", false, "Export the adjusted table")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Override as row=value, repeatable")
	return cmd
}

func (a *cli) newSummarizeCmd() *cobra.Command {
	var dataset string

	cmd := &cobra.Command{
		Use:   "summarize [text|-]",
		Short: "Summarize text, stdin or a dataset's headline figures",
		Long: `Send text to the configured summarizer (OPENAI_API_KEY). Use - to read
stdin, or --dataset to summarize a dataset page.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case dataset != "":
				text = a.c.Pipeline.Run(cmd.Context(), dataset, nil).SummaryText()
			case len(args) == 1 && args[0] == "-":
				data, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			case len(args) == 1:
				text = args[0]
			}

			summary, err := a.c.Summaries.Summarize(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "Summarize this dataset's headline figures")
	return cmd
}

// parseSets turns repeated row=value flags into form values
func parseSets(sets []string) (map[string]string, error) {
	values := make(map[string]string, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --set %q, want row=value", s)
		}
		values[strings.TrimSpace(key)] = value
	}
	return values, nil
}

func printPage(w io.Writer, res *app.PageResult, adjusted bool) error {
	fmt.Fprintf(w, "%s [%s]\n", res.Dataset.Title, res.Status)
	for _, line := range res.SummaryLines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "  ! %s\n", d)
	}
	if res.Empty() {
		return nil
	}

	fmt.Fprintln(w)
	t := res.Table()
	if adjusted {
		t = res.AdjustedTable()
	}
	return printTable(w, t)
}

func printTable(w io.Writer, t *table.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	columns := t.Columns()
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for i := 0; i < t.Len(); i++ {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = t.Value(i, col).String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
