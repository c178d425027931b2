package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"yashubustudio/catalog-search/catalog"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("catalog-cli: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "catalog-cli",
		Usage: "Search a product catalog through a synonym dictionary",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.json (default: ./config.json)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (console, json)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "search",
				Usage:  "Run a query against the catalog and export the matching rows",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text, e.g. 'fan + >100V #blower'",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "dictionary",
						Aliases: []string{"d"},
						Usage:   "Dictionary spreadsheet (CSV/TSV/XLSX); defaults to the configured path",
					},
					&cli.StringFlag{
						Name:  "catalog",
						Usage: "Catalog spreadsheet (CSV/TSV/XLSX); defaults to the configured path",
					},
					&cli.StringFlag{
						Name:  "sheet",
						Usage: "Catalog sheet name for XLSX files (default: first sheet)",
					},
					&cli.BoolFlag{
						Name:  "direct",
						Usage: "Search the catalog directly without the dictionary",
					},
					&cli.BoolFlag{
						Name:  "fallback",
						Usage: "Retry as a direct search when the dictionary has no match",
					},
					&cli.IntSliceFlag{
						Name:  "columns",
						Usage: "Catalog column indices to search (-1 selects every text column)",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "CSV file to write results (default uses --output-dir/result_*.csv)",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "Directory where result CSVs are written when --output is omitted",
						Value: "csv",
					},
					&cli.BoolFlag{
						Name:  "stdout",
						Usage: "Print the matching rows to STDOUT instead of a file",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Show the columns and row count of a spreadsheet",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Spreadsheet to inspect (CSV/TSV/XLSX)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "sheet",
						Usage: "Sheet name for XLSX files (default: first sheet)",
					},
					&cli.BoolFlag{
						Name:  "no-header",
						Usage: "Treat the first row as data",
					},
					&cli.BoolFlag{
						Name:  "dictionary",
						Usage: "Also report the synonyms the file yields as a dictionary",
					},
					&cli.StringSliceFlag{
						Name:  "unit",
						Usage: "Resolve a unit token through the file as a dictionary (repeatable)",
					},
				},
			},
		},
	}
}

// loadSettings reads the config file and applies the global flag overrides.
func loadSettings(c *cli.Context) (catalog.Config, zerolog.Logger, error) {
	cfg, err := catalog.LoadConfig(strings.TrimSpace(c.String("config")))
	if err != nil {
		return cfg, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if level := strings.TrimSpace(c.String("log-level")); level != "" {
		cfg.Log.Level = level
	}
	if format := strings.TrimSpace(c.String("log-format")); format != "" {
		cfg.Log.Format = format
	}
	cfg.Log.Output = c.App.ErrWriter
	catalog.SetColumnCandidates(cfg.Columns)
	return cfg, catalog.NewLogger(cfg.Log), nil
}

func searchCommand(c *cli.Context) error {
	cfg, logger, err := loadSettings(c)
	if err != nil {
		return err
	}
	query := c.String("query")
	dictPath := firstNonEmpty(c.String("dictionary"), cfg.DictionaryPath)
	catalogPath := firstNonEmpty(c.String("catalog"), cfg.CatalogPath)
	if catalogPath == "" {
		return errors.New("missing required --catalog file")
	}
	viaDictionary := cfg.ViaDictionary
	if c.IsSet("direct") {
		viaDictionary = !c.Bool("direct")
	}

	engine := catalog.NewEngine(logger)
	if dictPath != "" {
		dict, err := catalog.LoadDataset(dictPath)
		if err != nil {
			return fmt.Errorf("read dictionary: %w", err)
		}
		if err := engine.LoadDictionary(dict); err != nil {
			return err
		}
	}
	items, err := catalog.LoadDatasetWithOptions(catalogPath, catalog.LoadOptions{Sheet: c.String("sheet")})
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if err := engine.LoadCatalog(items); err != nil {
		return err
	}
	columns := c.IntSlice("columns")
	if len(columns) == 0 {
		columns = cfg.SearchColumns
	}
	engine.SetColumns(columns)

	out := engine.Search(query, viaDictionary)
	if out.Status == catalog.StatusNoDictionaryMatch && c.Bool("fallback") {
		logger.Info().Str("query", query).Msg("no dictionary match, retrying direct search")
		out = engine.Search(query, false)
	}
	if !out.Status.Success() {
		if out.Err != nil {
			return fmt.Errorf("search %q (%s): %w", query, out.Status, out.Err)
		}
		printOutcome(c.App.Writer, engine.Dictionary(), out)
		if out.Status == catalog.StatusNoDictionaryMatch {
			if terms := engine.SuggestTerms(query, 3); len(terms) > 0 {
				fmt.Fprintf(c.App.Writer, "did you mean: %s\n", strings.Join(terms, ", "))
			}
		}
		return nil
	}

	preview, err := previewColumns(cfg, engine.Catalog())
	if err != nil {
		return err
	}
	if c.Bool("stdout") {
		printOutcome(c.App.Writer, engine.Dictionary(), out)
		return catalog.WriteRowsCSV(c.App.Writer, engine.Catalog(), out.Rows, preview)
	}
	outputPath, err := resolveOutputPath(strings.TrimSpace(c.String("output")), strings.TrimSpace(c.String("output-dir")))
	if err != nil {
		return err
	}
	if err := writeResultCSV(outputPath, engine.Catalog(), out.Rows, preview); err != nil {
		return err
	}
	printOutcome(c.App.Writer, engine.Dictionary(), out)
	fmt.Fprintf(c.App.Writer, "saved %d rows to %s\n", len(out.Rows), outputPath)
	return nil
}

func inspectCommand(c *cli.Context) error {
	_, logger, err := loadSettings(c)
	if err != nil {
		return err
	}
	path := strings.TrimSpace(c.String("file"))
	ds, err := catalog.LoadDatasetWithOptions(path, catalog.LoadOptions{
		Sheet:    c.String("sheet"),
		NoHeader: c.Bool("no-header"),
	})
	if err != nil {
		return err
	}
	logger.Debug().Str("file", path).Int("rows", ds.Len()).Msg("dataset read")

	w := c.App.Writer
	text := catalog.TextColumns(ds)
	fmt.Fprintf(w, "%s: %d rows, %d columns\n", ds.Name, ds.Len(), ds.Width())
	for col := 0; col < ds.Width(); col++ {
		kind := "non-text"
		if containsInt(text, col) {
			kind = "text"
		}
		fmt.Fprintf(w, "  [%d] %s (%s)\n", col, ds.ColumnName(col), kind)
	}
	if preview := catalog.SuggestPreviewColumns(ds); len(preview) > 0 {
		fmt.Fprintf(w, "suggested preview columns: %v\n", preview)
	}
	units := c.StringSlice("unit")
	if !c.Bool("dictionary") && len(units) == 0 {
		return nil
	}
	engine := catalog.NewEngine(logger)
	if err := engine.LoadDictionary(ds); err != nil {
		return err
	}
	fmt.Fprintf(w, "synonyms: %d\n", engine.SynonymCount())
	for _, token := range units {
		if canonical, ok := engine.ResolveUnit(token); ok {
			fmt.Fprintf(w, "unit %s: %s\n", token, canonical)
		} else {
			fmt.Fprintf(w, "unit %s: unknown\n", token)
		}
	}
	return nil
}

// previewColumns returns the catalog columns written to the result; nil means all.
func previewColumns(cfg catalog.Config, ds *catalog.Dataset) ([]int, error) {
	if cfg.PreviewAll() {
		return nil, nil
	}
	cols, err := catalog.ResolveColumns(ds, cfg.PreviewColumns)
	if err != nil {
		return nil, fmt.Errorf("preview columns: %w", err)
	}
	return cols, nil
}

func printOutcome(w io.Writer, dict *catalog.Dataset, out catalog.Outcome) {
	fmt.Fprintf(w, "status: %s\n", out.Status)
	fmt.Fprintf(w, "rows: %d\n", len(out.Rows))
	if out.UnitRescue {
		fmt.Fprintln(w, "matched through unit synonyms")
	}
	if len(out.Highlight) > 0 && dict != nil {
		terms := make([]string, 0, len(out.Highlight))
		for _, r := range out.Highlight {
			terms = append(terms, dict.Cell(r, 0).String())
		}
		fmt.Fprintf(w, "dictionary terms: %s\n", strings.Join(terms, ", "))
	}
	if len(out.Synonyms) > 0 {
		fmt.Fprintf(w, "synonyms: %s\n", strings.Join(out.Synonyms, ", "))
	}
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeResultCSV(path string, ds *catalog.Dataset, rows, cols []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := catalog.WriteRowsCSV(f, ds, rows, cols); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close result file: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
