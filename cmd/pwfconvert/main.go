package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/convert"
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/internal/config"
	"github.com/lucasjlepore/fitconvert/pwf"
	"github.com/lucasjlepore/fitconvert/tabular"
)

const usage = `Usage: pwfconvert <command> [flags] <args>

Commands:
  convert [flags] <source> <destination>   convert between fit, tcx, gpx, pwf, csv and parquet
  validate [flags] <file.yaml>             check a PWF history or plan document
  info [flags] <source>                    print a summary of an activity file

Run "pwfconvert <command> -h" for the flags of a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns 0 on success, 1 on a conversion or validation failure and 2 on
// a usage error.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	switch args[0] {
	case "convert":
		return runConvert(args[1:], stdout, stderr)
	case "validate":
		return runValidate(args[1:], stdout, stderr)
	case "info":
		return runInfo(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

type commonFlags struct {
	configPath string
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to a JSON config file")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

func (c *commonFlags) load(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	return cfg, setupLogging(cfg.LogLevel, stderr), nil
}

func runConvert(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	var (
		from     = fs.String("from", "", "Source format (default: from the source extension)")
		to       = fs.String("to", "", "Destination format (default: from the destination extension)")
		summary  = fs.Bool("summary-only", false, "Skip time-series import, keep laps and sessions")
		verbose  = fs.Bool("verbose", false, "Print every conversion warning")
		ftp      = fs.Float64("ftp", 0, "FTP in watts for power metrics (overrides config)")
		estimate = fs.Bool("estimate-ftp", false, "Estimate FTP from the best 20 minute power when none is known")
		columns  = fs.String("columns", "", "Comma-separated tabular columns (default: all)")
		metadata = fs.Bool("metadata", false, "Prefix CSV output with a metadata block")
		validate = fs.Bool("validate", false, "Validate the workout as PWF before exporting")
		index    = fs.Int("workout", 0, "Workout index for multi-workout sources")
	)
	common.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pwfconvert convert [flags] <source> <destination>\n")
		fs.PrintDefaults()
	}
	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return flagExit(err)
	}
	if len(pos) != 2 {
		fs.Usage()
		return 2
	}
	srcPath, dstPath := pos[0], pos[1]

	cfg, logger, err := common.load(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	opts := convert.Options{
		SummaryOnly:  *summary,
		WorkoutIndex: *index,
		Analysis:     cfg.Analysis(),
		Validate:     *validate,
	}
	if opts.From, err = resolveFormat(*from, srcPath); err != nil {
		fmt.Fprintf(stderr, "source: %v\n", err)
		return 2
	}
	if opts.To, err = resolveFormat(*to, dstPath); err != nil {
		fmt.Fprintf(stderr, "destination: %v\n", err)
		return 2
	}
	if *ftp > 0 {
		opts.Analysis.Power.FTPWatts = *ftp
	}
	if *estimate {
		opts.Analysis.Power.EstimateFTP = true
	}
	cols := cfg.Tabular.Columns
	if *columns != "" {
		cols = *columns
	}
	if cols != "" {
		if opts.Tabular.Columns, err = tabular.ParseColumns(cols); err != nil {
			fmt.Fprintf(stderr, "columns: %v\n", err)
			return 2
		}
	}
	opts.Tabular.Metadata = *metadata || cfg.Tabular.Metadata

	data, err := readInput(srcPath)
	if err != nil {
		logger.Error("read source", "path", srcPath, "error", err)
		fmt.Fprintf(stderr, "read %s: %v\n", srcPath, err)
		return 1
	}

	conv := convert.New(logger, convert.WithExportSource(pwf.ExportSource{
		AppName:    cfg.Export.AppName,
		AppVersion: cfg.Export.AppVersion,
	}))
	res, err := conv.Convert(data, opts)
	if *verbose {
		printWarnings(stderr, res.Warnings)
	}
	if err != nil {
		logger.Error("conversion failed", "error_kind", diag.KindOf(err), "error", err)
		fmt.Fprintf(stderr, "convert failed: %v\n", err)
		var rep *pwf.ReportError
		if errors.As(err, &rep) {
			printReport(stderr, rep.Report)
		}
		return 1
	}
	if err := writeOutput(dstPath, res.Payload, stdout); err != nil {
		logger.Error("write destination", "path", dstPath, "error", err)
		fmt.Fprintf(stderr, "write %s: %v\n", dstPath, err)
		return 1
	}
	if !*verbose && len(res.Warnings) > 0 {
		fmt.Fprintf(stderr, "%d warnings (use --verbose to list them)\n", len(res.Warnings))
	}
	return 0
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pwfconvert validate [flags] <file.yaml>\n")
		fs.PrintDefaults()
	}
	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return flagExit(err)
	}
	if len(pos) != 1 {
		fs.Usage()
		return 2
	}
	_, logger, err := common.load(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	data, err := readInput(pos[0])
	if err != nil {
		fmt.Fprintf(stderr, "read %s: %v\n", pos[0], err)
		return 1
	}
	report, err := convert.New(logger).Validate(data)
	if err != nil {
		logger.Error("validation failed", "error_kind", diag.KindOf(err), "error", err)
		fmt.Fprintf(stderr, "validate failed: %v\n", err)
		return 1
	}
	printReport(stdout, report)
	if !report.Valid() {
		return 1
	}
	fmt.Fprintf(stdout, "%s document is valid\n", report.Kind)
	return 0
}

func runInfo(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	var (
		from  = fs.String("from", "", "Source format (default: from the extension)")
		ftp   = fs.Float64("ftp", 0, "FTP in watts for power metrics (overrides config)")
		index = fs.Int("workout", 0, "Workout index for multi-workout sources")
	)
	common.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pwfconvert info [flags] <source>\n")
		fs.PrintDefaults()
	}
	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return flagExit(err)
	}
	if len(pos) != 1 {
		fs.Usage()
		return 2
	}
	cfg, logger, err := common.load(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	format, err := resolveFormat(*from, pos[0])
	if err != nil {
		fmt.Fprintf(stderr, "source: %v\n", err)
		return 2
	}
	opts := convert.Options{From: format, WorkoutIndex: *index, Analysis: cfg.Analysis()}
	if *ftp > 0 {
		opts.Analysis.Power.FTPWatts = *ftp
	}

	data, err := readInput(pos[0])
	if err != nil {
		fmt.Fprintf(stderr, "read %s: %v\n", pos[0], err)
		return 1
	}
	c := diag.NewCollector()
	w, err := convert.New(logger).Import(data, opts, c)
	if err != nil {
		logger.Error("import failed", "error_kind", diag.KindOf(err), "error", err)
		fmt.Fprintf(stderr, "import failed: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, fitconvert.Describe(w))
	if n := c.Len(); n > 0 {
		fmt.Fprintf(stdout, "\n%d warnings\n", n)
	}
	return 0
}

// parseInterleaved lets flags follow positional arguments.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func flagExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}

func resolveFormat(name, path string) (convert.Format, error) {
	if name != "" {
		return convert.ParseFormat(name)
	}
	if f, ok := convert.FormatFromPath(path); ok {
		return f, nil
	}
	return "", fmt.Errorf("cannot infer format of %q, pass it explicitly", path)
}

func readInput(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, diag.IO("read", err)
	}
	return data, nil
}

func writeOutput(path string, payload []byte, stdout io.Writer) error {
	var err error
	if path == "-" {
		_, err = stdout.Write(payload)
	} else {
		err = os.WriteFile(path, payload, 0o644)
	}
	if err != nil {
		return diag.IO("write", err)
	}
	return nil
}

func printWarnings(w io.Writer, ws []diag.Warning) {
	for _, warn := range ws {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func printReport(w io.Writer, r pwf.Report) {
	for _, issue := range r.Issues {
		fmt.Fprintln(w, issue)
	}
}

func setupLogging(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
