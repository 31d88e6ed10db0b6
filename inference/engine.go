// Package inference - Composes a network with pre- and post-processing into a single
// classification or detection engine.
package inference

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-synap/inference/providers"
	"github.com/nvr-ai/go-synap/network"
	"github.com/nvr-ai/go-synap/postprocess"
	"github.com/nvr-ai/go-synap/preprocess"
	"github.com/nvr-ai/go-synap/types"
)

var (
	// ErrNotConfigured is returned when a required part of the engine is missing.
	ErrNotConfigured = errors.New("engine not configured")
)

// Timings splits the wall time of one engine call.
type Timings struct {
	Preprocess  time.Duration
	Inference   time.Duration
	Postprocess time.Duration
}

// Total returns the sum of all stages.
func (t Timings) Total() time.Duration { return t.Preprocess + t.Inference + t.Postprocess }

// Stats accumulates timings over the lifetime of an engine.
type Stats struct {
	Runs  int64
	Total Timings
}

// Average returns the mean timings per run.
func (s Stats) Average() Timings {
	if s.Runs == 0 {
		return Timings{}
	}
	n := time.Duration(s.Runs)
	return Timings{
		Preprocess:  s.Total.Preprocess / n,
		Inference:   s.Total.Inference / n,
		Postprocess: s.Total.Postprocess / n,
	}
}

// Engine runs assign, predict and process for one image. It is not safe for concurrent use.
type Engine struct {
	network    *network.Network
	pre        *preprocess.Preprocessor
	classifier *postprocess.Classifier
	detector   *postprocess.Detector
	log        logrus.FieldLogger
	stats      Stats
}

// Network returns the underlying network.
func (e *Engine) Network() *network.Network { return e.network }

// Stats returns the accumulated timings.
func (e *Engine) Stats() Stats { return e.stats }

// Classify ranks the classes of one image.
//
// Arguments:
//   - in: The image.
//
// Returns:
//   - *postprocess.ClassifierResult: The top classes.
//   - Timings: Per stage durations.
//   - error: ErrNotConfigured without a classifier, or the first stage error.
func (e *Engine) Classify(in *preprocess.InputData) (*postprocess.ClassifierResult, Timings, error) {
	if e.classifier == nil {
		return nil, Timings{}, errors.Wrap(ErrNotConfigured, "classifier")
	}
	var res *postprocess.ClassifierResult
	timings, err := e.run(in, func(_ types.Placement) error {
		var err error
		res, err = e.classifier.Process(e.network.Outputs())
		return err
	})
	return res, timings, err
}

// Detect finds objects in one image. Boxes are in the image's own coordinates.
func (e *Engine) Detect(in *preprocess.InputData) (*postprocess.DetectorResult, Timings, error) {
	if e.detector == nil {
		return nil, Timings{}, errors.Wrap(ErrNotConfigured, "detector")
	}
	var res *postprocess.DetectorResult
	timings, err := e.run(in, func(p types.Placement) error {
		var err error
		res, err = e.detector.Process(e.network.Outputs(), p)
		return err
	})
	return res, timings, err
}

func (e *Engine) run(in *preprocess.InputData, process func(types.Placement) error) (Timings, error) {
	var timings Timings

	start := time.Now()
	placement, err := e.pre.Assign(e.network.Inputs(), in, 0)
	if err != nil {
		return timings, errors.WithMessage(err, "preprocess")
	}
	timings.Preprocess = time.Since(start)

	start = time.Now()
	if _, err := e.network.Predict(); err != nil {
		return timings, err
	}
	timings.Inference = time.Since(start)

	start = time.Now()
	if err := process(placement); err != nil {
		return timings, errors.WithMessage(err, "postprocess")
	}
	timings.Postprocess = time.Since(start)

	e.stats.Runs++
	e.stats.Total.Preprocess += timings.Preprocess
	e.stats.Total.Inference += timings.Inference
	e.stats.Total.Postprocess += timings.Postprocess
	e.log.WithFields(logrus.Fields{
		"source": in.Source(),
		"pre":    timings.Preprocess,
		"inf":    timings.Inference,
		"post":   timings.Postprocess,
	}).Debug("inference complete")
	return timings, nil
}

// Close releases the network.
func (e *Engine) Close() error {
	return e.network.Close()
}

// EngineBuilder assembles an Engine with a fluent API. The first error stops the chain
// and is returned by Build.
type EngineBuilder struct {
	backend    providers.Backend
	log        logrus.FieldLogger
	network    *network.Network
	pre        *preprocess.Preprocessor
	classifier *postprocess.Classifier
	detector   *postprocess.Detector
	err        error
}

// NewEngineBuilder creates a new engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{log: logrus.StandardLogger()}
}

// WithLogger sets the logger used by the engine and the parts it creates.
func (b *EngineBuilder) WithLogger(l logrus.FieldLogger) *EngineBuilder {
	b.log = l
	return b
}

// WithBackend selects the compute backend. It must precede WithModel.
func (b *EngineBuilder) WithBackend(backend providers.Backend) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if b.network != nil {
		b.err = errors.Wrap(ErrNotConfigured, "backend set after model")
		return b
	}
	b.backend = backend
	return b
}

// WithModel loads the container at path.
//
// Arguments:
//   - path: The model container.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithModel(path string) *EngineBuilder {
	return b.load(func(n *network.Network) error { return n.Load(path) })
}

// WithModelBytes loads an in-memory container.
func (b *EngineBuilder) WithModelBytes(blob []byte) *EngineBuilder {
	return b.load(func(n *network.Network) error { return n.LoadBytes(blob) })
}

func (b *EngineBuilder) load(fn func(*network.Network) error) *EngineBuilder {
	if b.HasError() {
		return b
	}
	opts := []network.Option{network.WithLogger(b.log)}
	if b.backend != nil {
		opts = append(opts, network.WithBackend(b.backend))
	}
	n := network.New(opts...)
	if err := fn(n); err != nil {
		b.err = err
		return b
	}
	b.network = n
	return b
}

// WithPreprocessor replaces the default preprocessor.
func (b *EngineBuilder) WithPreprocessor(p *preprocess.Preprocessor) *EngineBuilder {
	if b.HasError() {
		return b
	}
	b.pre = p
	return b
}

// WithClassifier enables Classify with up to topCount classes per result.
func (b *EngineBuilder) WithClassifier(topCount int) *EngineBuilder {
	if b.HasError() {
		return b
	}
	b.classifier = postprocess.NewClassifier(topCount)
	return b
}

// WithDetector enables Detect. When cfg.InputSize is zero it is taken from the first
// input tensor at Build.
func (b *EngineBuilder) WithDetector(cfg postprocess.DetectorConfig) *EngineBuilder {
	if b.HasError() {
		return b
	}
	b.detector = postprocess.NewDetector(cfg)
	return b
}

// HasError checks if the engine builder has errors.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// MustBuild builds the engine and panics if there is an error.
func (b *EngineBuilder) MustBuild() *Engine {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

// Build builds the engine.
//
// Returns:
//   - *Engine: The engine.
//   - error: The first error of the chain, or ErrNotConfigured when no model or no
//     post-processor was configured.
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.network == nil {
		return nil, errors.Wrap(ErrNotConfigured, "model")
	}
	if b.classifier == nil && b.detector == nil {
		return nil, errors.Wrap(ErrNotConfigured, "classifier or detector")
	}

	pre := b.pre
	if pre == nil {
		pre = preprocess.New(preprocess.WithLogger(b.log))
	}
	detector := b.detector
	if detector != nil && detector.Config().InputSize == (types.Dim2d{}) {
		cfg := detector.Config()
		cfg.InputSize = inputSize(b.network)
		detector = postprocess.NewDetector(cfg)
	}

	return &Engine{
		network:    b.network,
		pre:        pre,
		classifier: b.classifier,
		detector:   detector,
		log:        b.log,
	}, nil
}

// inputSize returns the pixel grid of the first input, or zero when it is not an image.
func inputSize(n *network.Network) types.Dim2d {
	in, err := n.Inputs().At(0)
	if err != nil {
		return types.Dim2d{}
	}
	dims := in.Shape().Dims()
	if len(dims) != 4 {
		return types.Dim2d{}
	}
	switch in.Layout() {
	case types.LayoutNHWC:
		return types.Dim2d{X: dims[2], Y: dims[1]}
	case types.LayoutNCHW:
		return types.Dim2d{X: dims[3], Y: dims[2]}
	}
	return types.Dim2d{}
}
