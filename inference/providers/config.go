package providers

import (
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// OptimizationLevel controls how aggressively the graph is rewritten at load time.
type OptimizationLevel string

const (
	OptimizationDisabled OptimizationLevel = "disabled"
	OptimizationBasic    OptimizationLevel = "basic"
	OptimizationExtended OptimizationLevel = "extended"
	OptimizationAll      OptimizationLevel = "all"
)

// Config configures a compute backend.
type Config struct {
	// Backend is the registry name of the backend to use. Empty selects the default.
	Backend string `json:"backend" yaml:"backend"`
	// LibraryPath points at the ONNX Runtime shared library. Empty uses SharedLibPath().
	LibraryPath string `json:"library_path" yaml:"library_path"`
	// ExecutionProvider selects the hardware path.
	ExecutionProvider ExecutionProvider `json:"execution_provider" yaml:"execution_provider"`
	// OptimizationLevel controls graph rewrites.
	OptimizationLevel OptimizationLevel `json:"optimization_level" yaml:"optimization_level"`
	// IntraOpThreads sets threads for parallelizing ops. Zero lets the runtime decide.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	// InterOpThreads sets threads for parallelizing independent ops.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
	// Parallel enables parallel execution of independent graph nodes.
	Parallel bool `json:"parallel" yaml:"parallel"`

	CoreML   CoreMLOptions   `json:"coreml"   yaml:"coreml"`
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
	CUDA     CUDAOptions     `json:"cuda"     yaml:"cuda"`
}

// DefaultConfig returns a CPU configuration sized to the host.
//
// Returns:
//   - Config: Configuration with extended graph optimization and half the CPUs for intra-op work.
func DefaultConfig() Config {
	return Config{
		ExecutionProvider: CPUExecutionProvider,
		OptimizationLevel: OptimizationExtended,
		IntraOpThreads:    max(1, runtime.NumCPU()/2),
		InterOpThreads:    1,
	}
}

// Validate normalizes names and rejects unknown values.
func (c *Config) Validate() error {
	c.ExecutionProvider = ExecutionProvider(strings.ToLower(string(c.ExecutionProvider)))
	switch c.ExecutionProvider {
	case "":
		c.ExecutionProvider = CPUExecutionProvider
	case CPUExecutionProvider, CoreMLExecutionProvider, OpenVINOExecutionProvider, CUDAExecutionProvider:
	default:
		return errors.Errorf("unsupported execution provider %q", c.ExecutionProvider)
	}

	c.OptimizationLevel = OptimizationLevel(strings.ToLower(string(c.OptimizationLevel)))
	switch c.OptimizationLevel {
	case "":
		c.OptimizationLevel = OptimizationExtended
	case OptimizationDisabled, OptimizationBasic, OptimizationExtended, OptimizationAll:
	default:
		return errors.Errorf("unsupported optimization level %q", c.OptimizationLevel)
	}

	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return errors.Errorf("thread counts must not be negative, got %d/%d", c.IntraOpThreads, c.InterOpThreads)
	}
	return nil
}
