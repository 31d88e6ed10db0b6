// Package benchmark - Repeated engine runs with latency, throughput and memory statistics.
package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/inference"
	"github.com/nvr-ai/go-synap/preprocess"
)

// Scenario defines one benchmark run.
type Scenario struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Iterations int    `json:"iterations"`
	WarmupRuns int    `json:"warmup_runs"`
}

// RunFunc processes one input and reports its timings and the number of results.
type RunFunc func(in *preprocess.InputData) (inference.Timings, int, error)

// Classify adapts Engine.Classify.
func Classify(e *inference.Engine) RunFunc {
	return func(in *preprocess.InputData) (inference.Timings, int, error) {
		res, t, err := e.Classify(in)
		if err != nil {
			return t, 0, err
		}
		return t, len(res.Items), nil
	}
}

// Detect adapts Engine.Detect.
func Detect(e *inference.Engine) RunFunc {
	return func(in *preprocess.InputData) (inference.Timings, int, error) {
		res, t, err := e.Detect(in)
		if err != nil {
			return t, 0, err
		}
		return t, len(res.Items), nil
	}
}

// Latency summarizes the total time of successful iterations.
type Latency struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
	P50 time.Duration `json:"p50"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// PerformanceMetrics captures detailed performance data.
type PerformanceMetrics struct {
	Scenario        Scenario          `json:"scenario"`
	Timestamp       time.Time         `json:"timestamp"`
	TotalDuration   time.Duration     `json:"total_duration"`
	Mean            inference.Timings `json:"mean"`
	Latency         Latency           `json:"latency"`
	FramesPerSecond float64           `json:"frames_per_second"`
	MemoryStats     MemoryMetrics     `json:"memory_stats"`
	NumCPU          int               `json:"num_cpu"`
	ResultCount     int               `json:"result_count"`
	Errors          int               `json:"errors"`
	ErrorRate       float64           `json:"error_rate"`
}

// MemoryMetrics captures memory usage statistics.
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
}

// Run executes a scenario, cycling through inputs.
//
// Warmup errors are ignored. Iteration errors are counted and the run continues.
//
// Arguments:
//   - s: The scenario. Iterations below 1 run once.
//   - run: The engine call to measure.
//   - inputs: The images, used round robin.
//
// Returns:
//   - *PerformanceMetrics: The measurements.
//   - error: When there are no inputs.
func Run(s Scenario, run RunFunc, inputs []*preprocess.InputData) (*PerformanceMetrics, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no benchmark inputs")
	}
	s.Iterations = max(s.Iterations, 1)
	m := &PerformanceMetrics{Scenario: s, Timestamp: time.Now(), NumCPU: runtime.NumCPU()}

	for i := range s.WarmupRuns {
		_, _, _ = run(inputs[i%len(inputs)])
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	var sum inference.Timings
	totals := make([]time.Duration, 0, s.Iterations)
	start := time.Now()
	for i := range s.Iterations {
		t, n, err := run(inputs[i%len(inputs)])
		if err != nil {
			m.Errors++
			continue
		}
		m.ResultCount += n
		sum.Preprocess += t.Preprocess
		sum.Inference += t.Inference
		sum.Postprocess += t.Postprocess
		totals = append(totals, t.Total())
	}
	m.TotalDuration = time.Since(start)

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)
	m.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
	}

	m.ErrorRate = float64(m.Errors) / float64(s.Iterations)
	if ok := len(totals); ok > 0 {
		n := time.Duration(ok)
		m.Mean = inference.Timings{
			Preprocess:  sum.Preprocess / n,
			Inference:   sum.Inference / n,
			Postprocess: sum.Postprocess / n,
		}
		m.Latency = latency(totals)
	}
	if secs := m.TotalDuration.Seconds(); secs > 0 {
		m.FramesPerSecond = float64(len(totals)) / secs
	}
	return m, nil
}

func latency(totals []time.Duration) Latency {
	sorted := slices.Clone(totals)
	slices.Sort(sorted)
	pct := func(p float64) time.Duration {
		i := int(math.Ceil(p*float64(len(sorted)))) - 1
		return sorted[min(max(i, 0), len(sorted)-1)]
	}
	return Latency{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		P50: pct(0.50),
		P95: pct(0.95),
		P99: pct(0.99),
	}
}

// Summary prints a human readable report.
func (m *PerformanceMetrics) Summary(w io.Writer) {
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	fmt.Fprintf(w, "Iterations     : %d (%d errors)\n", m.Scenario.Iterations, m.Errors)
	fmt.Fprintf(w, "Throughput     : %.2f fps\n", m.FramesPerSecond)
	fmt.Fprintf(w, "Mean time      : %.3f ms (pre: %.3f ms, inf: %.3f ms, post: %.3f ms)\n",
		ms(m.Mean.Total()), ms(m.Mean.Preprocess), ms(m.Mean.Inference), ms(m.Mean.Postprocess))
	fmt.Fprintf(w, "Latency        : min %.3f ms, p50 %.3f ms, p95 %.3f ms, p99 %.3f ms, max %.3f ms\n",
		ms(m.Latency.Min), ms(m.Latency.P50), ms(m.Latency.P95), ms(m.Latency.P99), ms(m.Latency.Max))
}

// SaveResults writes results as indented JSON plus a CSV summary into dir.
//
// Returns:
//   - jsonPath: The JSON file.
//   - csvPath: The CSV file.
//   - err: Any file system error.
func SaveResults(dir string, results []PerformanceMetrics, now time.Time) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "failed to create output directory")
	}
	stamp := now.Format("2006-01-02_15-04-05")
	jsonPath = filepath.Join(dir, fmt.Sprintf("benchmark_results_%s.json", stamp))
	csvPath = filepath.Join(dir, fmt.Sprintf("benchmark_summary_%s.csv", stamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal results")
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "failed to write results file")
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to create summary file")
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	_ = cw.Write([]string{"Scenario", "Model", "Iterations", "FPS", "Mean_ms", "P95_ms", "Alloc_MB", "Results", "Error_Rate"})
	for _, r := range results {
		_ = cw.Write([]string{
			r.Scenario.Name,
			r.Scenario.Model,
			strconv.Itoa(r.Scenario.Iterations),
			strconv.FormatFloat(r.FramesPerSecond, 'f', 2, 64),
			strconv.FormatFloat(float64(r.Mean.Total().Microseconds())/1000, 'f', 3, 64),
			strconv.FormatFloat(float64(r.Latency.P95.Microseconds())/1000, 'f', 3, 64),
			strconv.FormatFloat(float64(r.MemoryStats.AllocBytes)/(1024*1024), 'f', 2, 64),
			strconv.Itoa(r.ResultCount),
			strconv.FormatFloat(r.ErrorRate, 'f', 4, 64),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", "", errors.Wrap(err, "failed to write summary file")
	}
	return jsonPath, csvPath, nil
}
