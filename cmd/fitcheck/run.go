package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/FitCheck/internal/engine"
	"github.com/piwi3910/FitCheck/internal/export"
	"github.com/piwi3910/FitCheck/internal/importer"
	"github.com/piwi3910/FitCheck/internal/logging"
	"github.com/piwi3910/FitCheck/internal/model"
	"github.com/piwi3910/FitCheck/internal/project"
	"github.com/piwi3910/FitCheck/internal/segment"
	"github.com/piwi3910/FitCheck/internal/store"
)

// Exit codes.
const (
	exitFeasible      = 0
	exitInfeasible    = 1
	exitError         = 2
	exitIndeterminate = 3
)

type options struct {
	image, dxf, csv, xlsx string

	config      string
	preset      string
	presetsFile string
	listPresets bool
	workers     int
	timeout     time.Duration

	pdf, labels, png, dxfOut, xlsxOut, save string

	db      string
	history bool
	limit   int
	compare bool
	debug   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("fitcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.image, "image", "", "Photo to segment into container and objects")
	fs.StringVar(&o.dxf, "dxf", "", "DXF drawing with closed shapes")
	fs.StringVar(&o.csv, "csv", "", "CSV vertex table (shape,x,y)")
	fs.StringVar(&o.xlsx, "xlsx", "", "Excel vertex table (shape,x,y)")

	fs.StringVar(&o.config, "config", "", "Config file (.json, .yaml); defaults apply when empty or missing")
	fs.StringVar(&o.preset, "preset", "", "Named settings preset (see -list-presets); excludes -config")
	fs.StringVar(&o.presetsFile, "presets", project.DefaultPresetsPath(), "File with custom presets")
	fs.BoolVar(&o.listPresets, "list-presets", false, "List built-in and custom presets and exit")
	fs.IntVar(&o.workers, "workers", 0, "Parallel search bands (overrides config when > 0)")
	fs.DurationVar(&o.timeout, "timeout", 0, "Search deadline, e.g. 30s (overrides config when > 0)")

	fs.StringVar(&o.pdf, "pdf", "", "Write a PDF report")
	fs.StringVar(&o.labels, "labels", "", "Write a PDF of QR labels, one per placed object")
	fs.StringVar(&o.png, "png", "", "Write a layout plot (png, svg or pdf by extension)")
	fs.StringVar(&o.dxfOut, "dxf-out", "", "Write the layout as DXF")
	fs.StringVar(&o.xlsxOut, "xlsx-out", "", "Write the placements as an Excel workbook")
	fs.StringVar(&o.save, "save", "", "Save shapes, settings and verdict as a project file")

	fs.StringVar(&o.db, "db", "", "SQLite run history; every verdict is recorded when set")
	fs.BoolVar(&o.history, "history", false, "List recorded runs from -db and exit")
	fs.IntVar(&o.limit, "limit", 20, "Number of runs listed by -history (0 = all)")
	fs.BoolVar(&o.compare, "compare", false, "Run what-if scenarios instead of a single check")
	fs.BoolVar(&o.debug, "debug", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return o, nil
}

// source returns the single input path and its kind.
func (o options) source() (string, string, error) {
	var kind, path string
	n := 0
	for _, s := range []struct{ kind, path string }{
		{"image", o.image}, {"dxf", o.dxf}, {"csv", o.csv}, {"xlsx", o.xlsx},
	} {
		if s.path != "" {
			kind, path = s.kind, s.path
			n++
		}
	}
	switch n {
	case 0:
		return "", "", errors.New("one of -image, -dxf, -csv or -xlsx is required")
	case 1:
		return path, kind, nil
	default:
		return "", "", errors.New("only one of -image, -dxf, -csv or -xlsx may be given")
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitFeasible
		}
		fmt.Fprintln(stderr, err)
		return exitError
	}

	logger, err := logging.New(o.debug)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return exitError
	}
	logging.SetLogger(logger)
	defer logger.Sync() //nolint:errcheck

	if o.history {
		if err := listHistory(ctx, o, stdout); err != nil {
			logger.Error("history failed", zap.Error(err))
			return exitError
		}
		return exitFeasible
	}

	if o.listPresets {
		if err := listPresets(o, stdout); err != nil {
			logger.Error("cannot list presets", zap.Error(err))
			return exitError
		}
		return exitFeasible
	}

	cfg, err := loadConfig(o)
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return exitError
	}

	path, kind, err := o.source()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	shapes, field, err := loadShapes(path, kind, cfg, logger)
	if err != nil {
		logger.Error("cannot read input", zap.String("source", path), zap.Error(err))
		return exitError
	}
	logger.Info("shapes loaded", zap.String("source", path), zap.Int("shapes", len(shapes)))

	if o.compare {
		return compare(ctx, cfg, shapes, field, stdout, logger)
	}

	result, runErr := engine.New(cfg).Run(ctx, shapes, field)
	code := exitCode(result, runErr)
	if code == exitError {
		logger.Error("analysis failed", zap.Error(runErr))
		return code
	}

	printResult(stdout, result, runErr)

	if o.db != "" {
		if err := record(ctx, o.db, path, cfg, result, runErr); err != nil {
			logger.Error("failed to record run", zap.Error(err))
			return exitError
		}
	}
	if code == exitIndeterminate {
		return code
	}

	if err := writeOutputs(o, path, cfg, shapes, field, result); err != nil {
		logger.Error("export failed", zap.Error(err))
		return exitError
	}
	return code
}

func exitCode(result model.PackingResult, err error) int {
	switch {
	case errors.Is(err, model.ErrIndeterminate):
		return exitIndeterminate
	case err != nil:
		return exitError
	case result.Feasible:
		return exitFeasible
	default:
		return exitInfeasible
	}
}

func loadConfig(o options) (model.Config, error) {
	cfg := model.DefaultConfig()
	switch {
	case o.config != "" && o.preset != "":
		return model.Config{}, errors.New("-config and -preset cannot be combined")
	case o.config != "":
		var err error
		if cfg, err = project.LoadConfig(o.config); err != nil {
			return model.Config{}, err
		}
	case o.preset != "":
		custom, err := project.LoadCustomPresets(o.presetsFile)
		if err != nil {
			return model.Config{}, err
		}
		p, ok := model.FindPreset(o.preset, custom)
		if !ok {
			return model.Config{}, fmt.Errorf("unknown preset %q (available: %s)", o.preset, strings.Join(model.PresetNames(custom), ", "))
		}
		cfg = p.Config
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.timeout > 0 {
		cfg.TimeoutSeconds = o.timeout.Seconds()
	}
	return cfg, cfg.Validate()
}

func listPresets(o options, w io.Writer) error {
	custom, err := project.LoadCustomPresets(o.presetsFile)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tKIND\tSHIFT\tROTATE\tRANGE\tDESCRIPTION")
	for _, p := range append(model.BuiltInPresets(), custom...) {
		kind := "custom"
		if p.IsBuiltIn {
			kind = "built-in"
		}
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g-%g\t%s\n", p.Name, kind,
			p.Config.ShiftStep, p.Config.RotateStep, p.Config.MinDegree, p.Config.MaxDegree, p.Description)
	}
	return tw.Flush()
}

// loadShapes reads the polygons and the search field from the source.
func loadShapes(path, kind string, cfg model.Config, logger *zap.Logger) ([]model.Shape, model.Field, error) {
	if kind == "image" {
		img, err := segment.Load(path)
		if err != nil {
			return nil, model.Field{}, err
		}
		res, err := segment.New(cfg).Segment(img)
		if err != nil {
			return nil, model.Field{}, err
		}
		return res.Shapes, res.Field(), nil
	}

	var res importer.ImportResult
	switch kind {
	case "dxf":
		res = importer.ImportDXF(path)
	case "xlsx":
		res = importer.ImportExcel(path)
	default:
		res = importer.ImportCSV(path)
	}
	for _, w := range res.Warnings {
		logger.Warn(w, zap.String("source", path))
	}
	if len(res.Errors) > 0 {
		return nil, model.Field{}, fmt.Errorf("%s", strings.Join(res.Errors, "; "))
	}
	// Vector sources have no image frame; the packer sweeps the container's
	// bounding box.
	return res.Shapes, model.Field{}, nil
}

func printResult(w io.Writer, result model.PackingResult, runErr error) {
	verdict := "FITS"
	switch {
	case runErr != nil:
		verdict = "UNDECIDED (search interrupted)"
	case !result.Feasible:
		verdict = "DOES NOT FIT"
	}

	fmt.Fprintf(w, "Container: %s (area %.0f)\n", result.Container.Label, result.Container.Area)
	fmt.Fprintf(w, "Objects:   %d (area %.0f, %.1f%% of container)\n", len(result.Objects), result.TotalObjectArea(), result.Utilization())
	if runErr == nil {
		fmt.Fprintf(w, "Verdict:   %s [%s]\n", verdict, result.Reason)
	} else {
		fmt.Fprintf(w, "Verdict:   %s\n", verdict)
	}
	if result.FailedObject != "" {
		fmt.Fprintf(w, "No room for: %s\n", result.FailedObject)
	}
	fmt.Fprintf(w, "Poses tried: %d in %s\n", result.Stats.PosesTried, result.Stats.Elapsed.Round(time.Millisecond))

	if len(result.Placements) == 0 || runErr != nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tOBJECT\tDX\tDY\tANGLE")
	for i, p := range result.Placements {
		fmt.Fprintf(tw, "%d\t%s\t%.0f\t%.0f\t%.0f\n", i+1, p.Label, p.Pose.DX, p.Pose.DY, p.Pose.Angle)
	}
	tw.Flush()
}

func compare(ctx context.Context, cfg model.Config, shapes []model.Shape, field model.Field, w io.Writer, logger *zap.Logger) int {
	results, err := engine.CompareScenarios(ctx, engine.BuildDefaultScenarios(cfg), shapes, field)
	if err != nil {
		logger.Error("comparison failed", zap.Error(err))
		return exitError
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tVERDICT\tREASON\tPLACED\tPOSES")
	for _, r := range results {
		verdict := fmt.Sprintf("%t", r.Result.Feasible)
		switch {
		case r.Indeterminate:
			verdict = "undecided"
		case r.Err != nil:
			verdict = "error: " + r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.Scenario.Name, verdict, r.Result.Reason, r.Placed, r.PosesTried)
	}
	tw.Flush()
	if len(results) == 0 {
		return exitError
	}
	// The verdict of the current settings decides the exit status.
	return exitCode(results[0].Result, results[0].Err)
}

func record(ctx context.Context, dbPath, source string, cfg model.Config, result model.PackingResult, runErr error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.Record(ctx, source, cfg, result, runErr)
	if err != nil {
		return err
	}
	logging.L().Info("run recorded", zap.String("run_id", run.ID), zap.String("db", dbPath))
	return nil
}

func listHistory(ctx context.Context, o options, w io.Writer) error {
	if o.db == "" {
		return errors.New("-history needs -db")
	}
	s, err := store.Open(o.db)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.List(ctx, o.limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tSOURCE\tFEASIBLE\tREASON\tPLACED\tOUTCOME")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%d/%d\t%s\n",
			r.ID[:8], r.CreatedAt.Local().Format("2006-01-02 15:04:05"), filepath.Base(r.Source),
			r.Feasible, r.Reason, r.Placed, r.Objects, r.Outcome)
	}
	return tw.Flush()
}

func writeOutputs(o options, source string, cfg model.Config, shapes []model.Shape, field model.Field, result model.PackingResult) error {
	if o.pdf != "" {
		if err := export.ExportPDF(o.pdf, result, cfg); err != nil {
			return fmt.Errorf("pdf: %w", err)
		}
	}
	switch {
	case o.labels == "":
	case len(export.CollectLabelInfos(result)) == 0:
		// Nothing was placed, so there is nothing to tag.
		logging.L().Warn("no placed objects, labels not written", zap.String("labels", o.labels))
	default:
		if err := export.ExportLabels(o.labels, result); err != nil {
			return fmt.Errorf("labels: %w", err)
		}
	}
	if o.png != "" {
		plotField := field
		if plotField.Width() <= 0 || plotField.Height() <= 0 {
			plotField = model.FieldFromOutline(result.Container.Outline)
		}
		if err := export.ExportPlot(o.png, result, plotField); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
	}
	if o.dxfOut != "" {
		if err := export.ExportDXF(o.dxfOut, result); err != nil {
			return fmt.Errorf("dxf: %w", err)
		}
	}
	if o.xlsxOut != "" {
		if err := export.ExportExcel(o.xlsxOut, result); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	if o.save != "" {
		proj := model.NewProject()
		proj.Name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		proj.Source = source
		proj.Field = field
		proj.Shapes = shapes
		proj.Config = cfg
		proj.Result = &result
		if err := project.SaveProject(o.save, proj); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}
