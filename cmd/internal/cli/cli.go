// Package cli - Flags, engine wiring and report formatting shared by the synap command-line
// tools.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-synap/benchmark"
	"github.com/nvr-ai/go-synap/config"
	"github.com/nvr-ai/go-synap/images/cv"
	"github.com/nvr-ai/go-synap/inference"
	"github.com/nvr-ai/go-synap/inference/providers"
	"github.com/nvr-ai/go-synap/inference/providers/onnx"
	"github.com/nvr-ai/go-synap/models"
	"github.com/nvr-ai/go-synap/postprocess"
	"github.com/nvr-ai/go-synap/preprocess"
)

// Options are the parsed command line of a tool.
type Options struct {
	Config *config.Config
	// Input is the image file or directory to process.
	Input string
	// Repeat runs the inputs this many times and reports statistics when above 1.
	Repeat int
	// Warmup is the number of unmeasured runs before a repeated run.
	Warmup int
}

// Parse reads flags over the configuration file named by -c, if any.
//
// Arguments:
//   - name: The program name for usage output.
//   - args: The arguments without the program name.
//   - stderr: Where usage and flag errors go.
//
// Returns:
//   - *Options: The configuration and the input image.
//   - error: A flag, configuration or missing input error.
func Parse(name string, args []string, stderr io.Writer) (*Options, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath string
		model      string
		labels     string
		provider   string
		topCount   int
		threshold  float64
		verbose    bool
		repeat     int
		warmup     int
	)
	fs.StringVar(&configPath, "c", "", "YAML configuration file")
	fs.StringVar(&model, "m", "", "synap model (default \"model.synap\")")
	fs.StringVar(&labels, "labels", "", "label file (info.json or one name per line)")
	fs.StringVar(&provider, "provider", "", "execution provider: cpu, coreml, openvino or cuda")
	fs.IntVar(&topCount, "top", 0, "number of classes to report")
	fs.Float64Var(&threshold, "threshold", -1, "detection score threshold")
	fs.BoolVar(&verbose, "v", false, "debug logging")
	fs.IntVar(&repeat, "r", 1, "repeat inference and report timing statistics")
	fs.IntVar(&warmup, "w", 0, "warmup runs before a repeated run")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] image|directory\n", name)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("exactly one input is required")
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if model != "" {
		cfg.Model = model
	}
	if labels != "" {
		cfg.Labels = labels
	}
	if provider != "" {
		cfg.Backend.ExecutionProvider = providers.ExecutionProvider(provider)
	}
	if topCount > 0 {
		cfg.Classifier.TopCount = topCount
	}
	if threshold >= 0 {
		cfg.Detector.ScoreThreshold = float32(threshold)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if repeat < 1 || warmup < 0 {
		return nil, errors.Errorf("invalid repeat %d or warmup %d", repeat, warmup)
	}
	return &Options{Config: &cfg, Input: fs.Arg(0), Repeat: repeat, Warmup: warmup}, nil
}

// NewBackend returns the configured compute backend. An empty name selects ONNX Runtime.
func NewBackend(cfg providers.Config, log logrus.FieldLogger) (providers.Backend, error) {
	if cfg.Backend == "" || cfg.Backend == onnx.Name {
		return onnx.New(cfg, onnx.WithLogger(log)), nil
	}
	return providers.Lookup(cfg.Backend)
}

// NewPreprocessor builds a preprocessor from the configuration.
func NewPreprocessor(cfg config.PreprocessConfig, log logrus.FieldLogger) *preprocess.Preprocessor {
	opts := append(cfg.Options(), preprocess.WithLogger(log))
	if cfg.Decoder == config.DecoderOpenCV {
		opts = append(opts, preprocess.WithDecoder(cv.Decoder{}))
	}
	return preprocess.New(opts...)
}

// LoadLabels loads the configured label file. Without one, every class is unnamed.
func LoadLabels(path string) (*models.Labels, error) {
	if path == "" {
		return models.NewLabels(), nil
	}
	return models.LoadLabels(path)
}

// Builder returns an engine builder with the backend, model and preprocessor of cfg.
func Builder(cfg *config.Config, log *logrus.Logger) (*inference.EngineBuilder, error) {
	if err := cfg.Log.Apply(log); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, errors.Errorf("'%s' not found", cfg.Model)
	}
	backend, err := NewBackend(cfg.Backend, log)
	if err != nil {
		return nil, err
	}
	return inference.NewEngineBuilder().
		WithLogger(log).
		WithBackend(backend).
		WithModel(cfg.Model).
		WithPreprocessor(NewPreprocessor(cfg.Preprocess, log)), nil
}

// Header prints the network and input lines that open every report.
func Header(w io.Writer, model, input string) {
	fmt.Fprintf(w, "\nNetwork        : %s\n", model)
	fmt.Fprintf(w, "Input          : %s\n", input)
}

// Timings prints the total time in milliseconds and each stage in microseconds.
func Timings(w io.Writer, t inference.Timings) {
	us := func(d interface{ Microseconds() int64 }) float64 { return float64(d.Microseconds()) }
	fmt.Fprintf(w, "Detection time : %.3f ms (pre: %.3f us, inf: %.3f us, post: %.3f us)\n\n",
		us(t.Total())/1000, us(t.Preprocess), us(t.Inference), us(t.Postprocess))
}

// Classification prints a classifier result table.
func Classification(w io.Writer, labels *models.Labels, res *postprocess.ClassifierResult) {
	fmt.Fprintln(w, "Class  Confidence  Description")
	for _, item := range res.Items {
		fmt.Fprintf(w, "%5d%12.4f  %s\n", item.ClassIndex, item.Confidence, labels.Name(item.ClassIndex))
	}
	fmt.Fprintln(w)
}

// Detection prints a detector result table.
func Detection(w io.Writer, labels *models.Labels, res *postprocess.DetectorResult) {
	fmt.Fprintln(w, "#   Score  Class   Position        Size  Description     Landmarks")
	for i, item := range res.Items {
		bb := item.BoundingBox
		fmt.Fprintf(w, "%-3d  %.2f %6d  %4d,%4d   %4d,%4d  %-16s",
			i, item.Confidence, item.ClassIndex, bb.Origin.X, bb.Origin.Y, bb.Size.X, bb.Size.Y,
			labels.Name(item.ClassIndex))
		for _, lm := range item.Landmarks {
			fmt.Fprintf(w, " %s", lm)
		}
		fmt.Fprintln(w)
	}
}

// Process runs every input once, printing a report per input, or runs them opts.Repeat
// times and prints timing statistics.
//
// Arguments:
//   - w: Report output.
//   - opts: The parsed command line.
//   - run: The engine call.
//   - report: Prints the results of the last call.
//
// Returns:
//   - error: The first input or engine error.
func Process(w io.Writer, opts *Options, run benchmark.RunFunc, report func(io.Writer)) error {
	inputs, err := benchmark.LoadInputs(opts.Input)
	if err != nil {
		return err
	}
	if opts.Repeat > 1 {
		Header(w, opts.Config.Model, opts.Input)
		m, err := benchmark.Run(benchmark.Scenario{
			Name:       filepath.Base(opts.Input),
			Model:      opts.Config.Model,
			Iterations: opts.Repeat,
			WarmupRuns: opts.Warmup,
		}, run, inputs)
		if err != nil {
			return err
		}
		m.Summary(w)
		report(w)
		return nil
	}
	for _, in := range inputs {
		Header(w, opts.Config.Model, in.Source())
		timings, _, err := run(in)
		if err != nil {
			return err
		}
		Timings(w, timings)
		report(w)
	}
	return nil
}
