package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"usdataexplorer/internal/app"
	"usdataexplorer/internal/config"
	"usdataexplorer/internal/datasets"
	"usdataexplorer/internal/exporter"
	"usdataexplorer/internal/files"
	"usdataexplorer/internal/infrastructure"
	"usdataexplorer/internal/services"
	"usdataexplorer/internal/tabular"
	"usdataexplorer/pkg/contracts"
	api "usdataexplorer/pkg/contracts/api/v1"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "explorer",
		Short: "US election, EV and border crossing data explorer",
		Long: `explorer loads the public US election results, electric vehicle
registration and border crossing CSV files and serves the derived views
over HTTP.

The aggregate and export commands work on any CSV file without a server.`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (default: $EXPLORER_CONFIG or config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for one-shot commands")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(aggregateCmd(opts))
	root.AddCommand(exportCmd(opts))
	root.AddCommand(datasetsCmd(opts))
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configFile != "" {
		return config.LoadFrom(o.configFile)
	}
	return config.Load()
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return infrastructure.NewLogger(cmd.ErrOrStderr(), o.logLevel)
}

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cfg, nil)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}
}

// aggregateOptions are the flags shared by aggregate and export
type aggregateOptions struct {
	file      string
	group     string
	value     string
	category  string
	top       int
	threshold float64
	lenient   bool
}

func (a *aggregateOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.file, "file", "f", "", "CSV file to read")
	cmd.Flags().StringVarP(&a.group, "group", "g", "", "comma separated columns to group by")
	cmd.Flags().StringVar(&a.value, "value", "", "numeric column to sum (default: count rows)")
	cmd.Flags().StringVar(&a.category, "category", "", "column to break each group down by")
	cmd.Flags().IntVar(&a.top, "top", 0, "keep only the largest N groups (0 keeps all)")
	cmd.Flags().Float64Var(&a.threshold, "threshold", 0, "drop groups below this percent of the total")
	cmd.Flags().BoolVar(&a.lenient, "lenient", false, "keep rows whose field count differs from the header")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("group")
}

func (a *aggregateOptions) run(ctx context.Context, logger *slog.Logger) (*api.AggregateResponse, error) {
	f, err := os.Open(a.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	started := time.Now()
	parsed, err := tabular.ParseReader(ctx, f, tabular.Options{Lenient: a.lenient})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", a.file, err)
	}
	logger.Info("parsed file",
		slog.String("file", a.file),
		slog.Int("rows", parsed.Stats.Parsed),
		slog.Int("dropped", parsed.Stats.Dropped),
		slog.Duration("duration", time.Since(started)))

	req := api.AggregateRequest{
		Dataset:   datasetLabel(a.file),
		GroupBy:   splitColumns(a.group),
		Value:     a.value,
		Category:  a.category,
		Top:       a.top,
		Threshold: a.threshold,
	}
	if len(req.GroupBy) == 0 {
		return nil, fmt.Errorf("--group needs at least one column")
	}
	return services.AggregateRecords(parsed.Headers, parsed.Records, req)
}

func aggregateCmd(opts *rootOptions) *cobra.Command {
	agg := &aggregateOptions{}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Group a CSV file and rank the groups",
		Long: `Group the rows of a CSV file by one or more columns and print the
groups ranked by total.

Example:
  explorer aggregate -f ev.csv -g Make --top 10
  explorer aggregate -f border.csv -g Border --value Value --category Measure`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := agg.run(cmd.Context(), opts.logger(cmd))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			return printAggregate(cmd.OutOrStdout(), resp)
		},
	}
	agg.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")
	return cmd
}

func printAggregate(w io.Writer, resp *api.AggregateResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tTOTAL\tSHARE\tROWS\n", strings.ToUpper(strings.Join(resp.GroupBy, " / ")))
	for _, row := range resp.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\t%s\n",
			row.Key, humanize.CommafWithDigits(row.Total, 2), row.Percent, humanize.Comma(int64(row.Rows)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s groups, total %s\n",
		humanize.Comma(int64(resp.Groups)), humanize.CommafWithDigits(resp.Total, 2))
	return err
}

func exportCmd(opts *rootOptions) *cobra.Command {
	agg := &aggregateOptions{}
	var format, out, dsn, table string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Aggregate a CSV file and write the result",
		Long: `Aggregate a CSV file like the aggregate command and write the ranked
groups as csv, xlsx or json, or into a sqlite or postgres table.

Example:
  explorer export -f ev.csv -g Make,Model --format xlsx --out models.xlsx
  explorer export -f border.csv -g Border --value Value --format postgres --dsn postgres://...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			resp, err := agg.run(cmd.Context(), opts.logger(cmd))
			if err != nil {
				return err
			}
			t := exporter.FromAggregate(services.ExportName(resp.Dataset, resp.GroupBy), *resp)
			if table == "" {
				table = t.Name
			}

			if f.IsFile() {
				return writeFile(cmd, f, out, t)
			}
			return writeDatabase(cmd, f, out, dsn, table, t)
		},
	}
	agg.register(cmd)
	cmd.Flags().StringVar(&format, "format", string(exporter.FormatCSV), "csv, xlsx, json, sqlite or postgres")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout, or <name>.db for sqlite)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string for postgres")
	cmd.Flags().StringVar(&table, "table", "", "database table (default: export name)")
	return cmd
}

func writeFile(cmd *cobra.Command, format exporter.Format, out string, t exporter.Table) error {
	writer, err := exporter.WriterFor(format)
	if err != nil {
		return err
	}
	if out == "" {
		return writer.Write(cmd.OutOrStdout(), t)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := writer.Write(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	var size string
	if info, err := os.Stat(out); err == nil {
		size = humanize.IBytes(uint64(info.Size()))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s rows to %s (%s)\n", humanize.Comma(int64(len(t.Rows))), out, size)
	return nil
}

func writeDatabase(cmd *cobra.Command, format exporter.Format, out, dsn, table string, t exporter.Table) error {
	driver := exporter.DriverSQLite
	if format == exporter.FormatPostgres {
		driver = exporter.DriverPostgres
		if dsn == "" {
			return fmt.Errorf("postgres export needs --dsn")
		}
	} else if dsn == "" {
		dsn = out
		if dsn == "" {
			dsn = t.Name + format.Extension()
		}
	}

	db, err := exporter.OpenDB(cmd.Context(), driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := exporter.NewSQLWriter(db, driver, table).Write(cmd.Context(), t)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s rows to %s table %q\n", humanize.Comma(int64(rows)), driver, table)
	return nil
}

func datasetsCmd(opts *rootOptions) *cobra.Command {
	var load bool

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the registered datasets and where they are read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd)

			paths, err := cfg.ResolvePaths()
			if err != nil {
				return err
			}
			manager := files.NewManager(paths, logger)
			source, err := datasets.NewSource(cfg.Datasets, manager, logger)
			if err != nil {
				return err
			}
			cache := datasets.NewCache(datasets.NewRegistry(cfg.Datasets.Files()), source, datasets.Options{
				Lenient:         cfg.Datasets.Lenient,
				WarmConcurrency: cfg.Datasets.WarmConcurrency,
			}, logger, nil)

			var warmErr error
			if load {
				warmErr = cache.Warm(cmd.Context())
			}

			var inventory map[string]*files.FileInfo
			if cfg.Datasets.Source == "file" {
				discovery := files.NewDiscovery(paths.DataDir)
				if inventory, err = discovery.Inventory("", cfg.Datasets.Files()); err != nil {
					return err
				}
				if found, err := discovery.FindCSVFiles(""); err == nil {
					if latest, ok := files.GetLatestFile(found); ok {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %d CSV files, newest %s (%s)\n\n",
							paths.DataDir, len(found), latest.Name, humanize.Time(latest.ModTime))
					}
				}
			}
			if err := printStatus(cmd.OutOrStdout(), cache.Status(), inventory); err != nil {
				return err
			}
			return warmErr
		},
	}
	cmd.Flags().BoolVar(&load, "load", false, "load and parse every dataset")
	return cmd
}

// printStatus writes one line per dataset. inventory is nil for remote
// sources; a dataset whose file is absent from it shows "missing".
func printStatus(w io.Writer, statuses []datasets.Status, inventory map[string]*files.FileInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tSTATE\tROWS\tDROPPED\tSIZE\tLOADED\tLOCATION")
	for _, st := range statuses {
		loaded := "-"
		if st.LoadedAt != nil {
			loaded = humanize.Time(*st.LoadedAt)
		}
		size := "-"
		if inventory != nil {
			size = "missing"
			if f := inventory[st.Key]; f != nil {
				size = humanize.IBytes(uint64(f.Size))
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			st.Key, st.State, humanize.Comma(int64(st.Rows)), humanize.Comma(int64(st.Dropped)), size, loaded, st.Location)
		if st.Error != "" {
			fmt.Fprintf(tw, "\t%s\t\t\t\t\t\n", st.Error)
		}
	}
	return tw.Flush()
}

func splitColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// datasetLabel names an ad-hoc aggregation after its file
func datasetLabel(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
