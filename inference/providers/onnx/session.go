package onnx

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-synap/tensor"
	"github.com/nvr-ai/go-synap/types"
)

// session holds the native session and the tensors bound to the network's buffers.
type session struct {
	session *ort.AdvancedSession
	inputs  []ort.ArbitraryTensor
	outputs []ort.ArbitraryTensor
	// stale is set once a bound buffer has been released by its network.
	stale bool
}

// watch marks the session stale when t's buffer is released, since the native tensors
// bound to it would then point at memory the network no longer owns.
func (s *session) watch(t *tensor.Tensor) {
	t.Buffer().OnRelease(func() { s.stale = true })
}

// bind wraps every tensor's buffer in a custom data tensor and returns the tensor names.
func (s *session) bind(ts *tensor.Tensors, dst *[]ort.ArbitraryTensor) ([]string, error) {
	names := make([]string, 0, ts.Len())
	for _, t := range ts.All() {
		et, err := elementType(t.DataType())
		if err != nil {
			return nil, errors.WithMessage(err, t.Name())
		}
		dims := t.Shape().Dims()
		shape := make([]int64, len(dims))
		for i, d := range dims {
			shape[i] = int64(d)
		}
		ct, err := ort.NewCustomDataTensor(ort.NewShape(shape...), t.Bytes(), et)
		if err != nil {
			return nil, errors.Wrapf(err, "error binding tensor %s", t.Name())
		}
		s.watch(t)
		*dst = append(*dst, ct)
		names = append(names, t.Name())
	}
	return names, nil
}

// Run executes the graph. Outputs land directly in the bound buffers.
func (s *session) Run() error {
	if s.stale {
		return errors.New("onnx session is bound to released buffers")
	}
	if s.session == nil {
		return errors.New("onnx session is closed")
	}
	return s.session.Run()
}

// Close releases the native session and the tensor wrappers. The buffers themselves belong
// to the network.
func (s *session) Close() error {
	s.destroyTensors()
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		if err != nil {
			return errors.Wrap(err, "error destroying ORT session")
		}
	}
	return nil
}

func (s *session) destroyTensors() {
	for _, t := range s.inputs {
		_ = t.Destroy()
	}
	for _, t := range s.outputs {
		_ = t.Destroy()
	}
	s.inputs, s.outputs = nil, nil
}

// elementType maps a tensor data type to its ONNX element type.
func elementType(dt types.DataType) (ort.TensorElementDataType, error) {
	switch dt {
	case types.Byte, types.Uint8:
		return ort.TensorElementDataTypeUint8, nil
	case types.Int8:
		return ort.TensorElementDataTypeInt8, nil
	case types.Int16:
		return ort.TensorElementDataTypeInt16, nil
	case types.Uint16:
		return ort.TensorElementDataTypeUint16, nil
	case types.Int32:
		return ort.TensorElementDataTypeInt32, nil
	case types.Uint32:
		return ort.TensorElementDataTypeUint32, nil
	case types.Float16:
		return ort.TensorElementDataTypeFloat16, nil
	case types.Float32:
		return ort.TensorElementDataTypeFloat, nil
	case types.Invalid:
	}
	return 0, errors.Wrapf(types.ErrInvalidDataType, "no onnx element type for %s", dt)
}
