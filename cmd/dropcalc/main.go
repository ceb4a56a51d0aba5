// Command dropcalc runs a voltage-drop calculation from a project file or
// flags, prints the summary and tables and optionally exports reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/logging"
	"github.com/dd0wney/apwr-dropcalc/pkg/metrics"
	"github.com/dd0wney/apwr-dropcalc/pkg/project"
	"github.com/dd0wney/apwr-dropcalc/pkg/report"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitInvalid   = 2
	exitViolation = 3
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	input      inputFlags
	configPath string
	initPath   string
	linkID     int
	print      string
	outDir     string
	formats    string
	publish    bool
	strict     bool
	workers    int
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	flags := flag.NewFlagSet("dropcalc", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: dropcalc [flags]")
		fmt.Fprintln(stderr, "\nCalculates APWR cable voltage drop from a project file or from -anodes.")
		fmt.Fprintln(stderr, "Exit codes: 0 ok, 1 error, 2 invalid input, 3 violations with -strict.")
		fmt.Fprintln(stderr)
		flags.PrintDefaults()
	}

	flags.StringVar(&o.configPath, "config", "", "YAML config file (APWR_* env vars override it)")
	flags.StringVar(&o.input.projectPath, "project", "", "project file to calculate")
	flags.StringVar(&o.initPath, "init", "", "write a project file template built from the flags and exit")

	flags.IntVar(&o.input.anodes, "anodes", 0, "total number of anodes (without -project)")
	flags.StringVar(&o.input.links, "links", "", "hub numbers that start a link, e.g. 1,6 (default 1)")
	flags.StringVar(&o.input.sourceLengths, "source-lengths", "", "source cable length per link in m, e.g. 25,40")
	distanceM := flags.Float64("distance", topology.DefaultDistanceM, "default distance between hubs in m")
	areaMM2 := flags.Float64("area", 0, "cable cross-section in mm² (overrides config and project)")
	flags.StringVar(&o.input.model, "model", "", "resistance model: one-way or round-trip")
	flags.StringVar(&o.input.name, "name", "", "project name")
	flags.StringVar(&o.input.number, "number", "", "project number")
	flags.StringVar(&o.input.zone, "zone", "", "protection zone")
	flags.StringVar(&o.input.date, "date", "", "project date (YYYY-MM-DD)")

	flags.IntVar(&o.linkID, "link", 0, "only print this link")
	flags.StringVar(&o.print, "print", "txt", "stdout format: txt, csv, json, yaml or none")
	flags.StringVar(&o.outDir, "out", "", "export reports into this directory")
	flags.StringVar(&o.formats, "formats", "", "export formats, e.g. csv,pdf (default from config)")
	flags.BoolVar(&o.publish, "publish", false, "upload reports to the configured S3 bucket")
	flags.BoolVar(&o.strict, "strict", false, "exit with code 3 when any link is in violation")
	flags.IntVar(&o.workers, "workers", 0, "links calculated in parallel (default from config)")

	if err := flags.Parse(args); err != nil {
		return o, err
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "distance":
			o.input.distanceM = distanceM
		case "area":
			o.input.areaMM2 = areaMM2
		}
	})
	if flags.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if o.input.projectPath == "" && o.input.anodes == 0 {
		return o, errors.New("either -project or -anodes is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "dropcalc: %v\n", err)
		return exitInvalid
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fail(stderr, err)
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}

	logger := logging.NewJSONLogger(stderr, logging.ParseLevel(cfg.LogLevel))

	in, err := buildInput(o.input, cfg.System)
	if err != nil {
		return fail(stderr, err)
	}

	if o.initPath != "" {
		return writeTemplate(stdout, stderr, o.initPath, in)
	}

	reg := metrics.NewRegistry()
	calculator := calc.NewCalculator(
		calc.WithWorkers(cfg.Workers),
		calc.WithLogger(logger.With(logging.Component("calc"))),
		calc.WithMetrics(reg),
	)
	res, err := calculator.Calculate(in)
	if err != nil {
		return fail(stderr, err)
	}

	exporter := report.NewExporter(report.WithMetrics(reg))
	if err := printResult(stdout, exporter, res, o); err != nil {
		return fail(stderr, err)
	}

	formats, err := exportFormats(o.formats, cfg.Report.Formats)
	if err != nil {
		return fail(stderr, err)
	}
	if o.outDir != "" {
		if err := os.MkdirAll(o.outDir, 0o755); err != nil {
			return fail(stderr, err)
		}
		files, err := exporter.ExportAll(o.outDir, res, formats)
		if err != nil {
			return fail(stderr, err)
		}
		for _, f := range files {
			fmt.Fprintf(stderr, "wrote %s\n", f)
		}
	}
	if o.publish {
		pub, err := report.NewS3Publisher(ctx, cfg.Report.S3Bucket, cfg.Report.S3Prefix, cfg.Report.S3Region)
		if err != nil {
			return fail(stderr, err)
		}
		pub.SetLogger(logger.With(logging.Component("s3")))
		pub.SetMetrics(reg)
		uris, err := pub.Publish(ctx, exporter, res, formats)
		if err != nil {
			return fail(stderr, err)
		}
		for _, u := range uris {
			fmt.Fprintf(stderr, "uploaded %s\n", u)
		}
	}

	if o.strict && !res.OK() {
		return exitViolation
	}
	return exitOK
}

// printResult writes the requested stdout rendering. Charts are not sent to
// a terminal.
func printResult(w io.Writer, e *report.Exporter, res *calc.Result, o options) error {
	if o.print == "none" {
		return nil
	}
	f, err := report.ParseFormat(o.print)
	if err != nil {
		return err
	}
	if f.IsChart() {
		return fmt.Errorf("cannot print %s to stdout, use -out", f)
	}
	return e.Export(w, res, report.Options{Format: f, LinkID: o.linkID, Pretty: true})
}

func exportFormats(flagValue string, configured []string) ([]report.Format, error) {
	names := configured
	if flagValue != "" {
		names = splitList(flagValue)
	}
	formats := make([]report.Format, 0, len(names))
	for _, n := range names {
		f, err := report.ParseFormat(n)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// writeTemplate validates in and saves it as a project file. Existing files
// are never overwritten.
func writeTemplate(stdout, stderr io.Writer, path string, in calc.Input) int {
	if err := calc.Validate(in); err != nil {
		return fail(stderr, err)
	}
	if _, err := os.Stat(path); err == nil {
		return fail(stderr, fmt.Errorf("%s already exists", path))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fail(stderr, err)
	}

	if err := project.FromSpec(in.Project, in.Params, in.Topology).Save(path); err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "wrote project template %s\n", path)
	return exitOK
}

// fail prints err and maps it to an exit code. Invalid input lists every
// problem.
func fail(stderr io.Writer, err error) int {
	if errs, ok := validation.AsValidationErrors(err); ok {
		fmt.Fprintf(stderr, "dropcalc: invalid input (%d problem(s)):\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(stderr, "  - %s\n", e)
		}
		return exitInvalid
	}
	fmt.Fprintf(stderr, "dropcalc: %v\n", err)
	return exitError
}
