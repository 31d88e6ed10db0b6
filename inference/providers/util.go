package providers

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
)

// LibraryPathEnv overrides the ONNX Runtime shared library location.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// SharedLibPath returns the path to the ONNX Runtime shared library for the current platform.
//
// Returns:
//   - string: The path to the shared library.
//   - error: When the platform has no known library location.
func SharedLibPath() (string, error) {
	if p := os.Getenv(LibraryPathEnv); p != "" {
		return p, nil
	}
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll", nil
	case "darwin":
		return "./third_party/libonnxruntime.1.21.0.dylib", nil
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so", nil
		}
		return "./third_party/onnxruntime.so", nil
	}
	return "", errors.Errorf("no onnxruntime library known for %s/%s", runtime.GOOS, runtime.GOARCH)
}
