package providers

import (
	"fmt"
	"strconv"
)

// ExecutionProvider selects the hardware path ONNX Runtime executes on.
type ExecutionProvider string

const (
	// CPUExecutionProvider uses the default CPU kernels.
	CPUExecutionProvider ExecutionProvider = "cpu"
	// CoreMLExecutionProvider uses Apple CoreML for macOS/iOS acceleration.
	CoreMLExecutionProvider ExecutionProvider = "coreml"
	// OpenVINOExecutionProvider uses Intel OpenVINO.
	OpenVINOExecutionProvider ExecutionProvider = "openvino"
	// CUDAExecutionProvider uses NVIDIA CUDA.
	CUDAExecutionProvider ExecutionProvider = "cuda"
)

// CoreMLOptions contains arguments for the CoreML provider.
type CoreMLOptions struct {
	// Flags is the COREML_FLAG_* bit set passed to the provider.
	Flags uint32 `json:"flags" yaml:"flags"`
}

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See: https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html
type OpenVINOOptions struct {
	DeviceID string `json:"deviceID" yaml:"deviceID"`
	// Overrides the accelerator hardware type at runtime (CPU, GPU, NPU).
	DeviceType string `json:"deviceType" yaml:"deviceType"`
	// FP32, FP16 or ACCURACY. Empty leaves the device default.
	Precision    string `json:"precision"    yaml:"precision"`
	NumOfThreads int    `json:"numOfThreads" yaml:"numOfThreads"`
	NumStreams   int    `json:"numStreams"   yaml:"numStreams"`
}

// Map renders the options in the key/value form ONNX Runtime expects. Zero values are omitted.
func (o OpenVINOOptions) Map() map[string]string {
	m := map[string]string{}
	set := func(k, v string) {
		if v != "" && v != "0" {
			m[k] = v
		}
	}
	set("device_id", o.DeviceID)
	set("device_type", o.DeviceType)
	set("precision", o.Precision)
	set("num_of_threads", strconv.Itoa(o.NumOfThreads))
	set("num_streams", strconv.Itoa(o.NumStreams))
	return m
}

// CUDAOptions contains arguments for the CUDA provider.
// See: https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html
type CUDAOptions struct {
	DeviceID int `json:"deviceID" yaml:"deviceID"`
	// GPUMemLimit caps the device memory arena in bytes. Zero means unlimited.
	GPUMemLimit int64 `json:"gpuMemLimit" yaml:"gpuMemLimit"`
	// 0: kNextPowerOfTwo, 1: kSameAsRequested.
	ArenaExtendStrategy int `json:"arenaExtendStrategy" yaml:"arenaExtendStrategy"`
	// 0: EXHAUSTIVE, 1: HEURISTIC, 2: DEFAULT.
	CudnnConvAlgoSearch int  `json:"cudnnConvAlgoSearch" yaml:"cudnnConvAlgoSearch"`
	UseTF32             bool `json:"useTF32"             yaml:"useTF32"`
	PreferNHWC          bool `json:"preferNHWC"          yaml:"preferNHWC"`
}

// Map renders the options in the key/value form ONNX Runtime expects.
func (o CUDAOptions) Map() map[string]string {
	m := map[string]string{
		"device_id":              strconv.Itoa(o.DeviceID),
		"arena_extend_strategy":  arenaStrategy(o.ArenaExtendStrategy),
		"cudnn_conv_algo_search": convAlgoSearch(o.CudnnConvAlgoSearch),
		"use_tf32":               boolFlag(o.UseTF32),
		"prefer_nhwc":            boolFlag(o.PreferNHWC),
	}
	if o.GPUMemLimit > 0 {
		m["gpu_mem_limit"] = fmt.Sprintf("%d", o.GPUMemLimit)
	}
	return m
}

func arenaStrategy(v int) string {
	if v == 1 {
		return "kSameAsRequested"
	}
	return "kNextPowerOfTwo"
}

func convAlgoSearch(v int) string {
	switch v {
	case 1:
		return "HEURISTIC"
	case 2:
		return "DEFAULT"
	default:
		return "EXHAUSTIVE"
	}
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
