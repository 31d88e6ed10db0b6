// Package tensor - Typed tensors over shared byte buffers with quantization-aware marshaling.
//
// A Tensor is a named, typed and shaped view of a Buffer. Its byte size always equals
// ItemCount() * ByteWidth(DataType). Values are stored little-endian. When a tensor
// carries a Quantization, real values are quantized on Assign and dequantized by AsFloat
// and ToDense.
package tensor

import (
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"
	gt "gorgonia.org/tensor"

	"github.com/nvr-ai/go-synap/types"
)

// Spec describes a tensor as declared by model metadata.
type Spec struct {
	Name          string
	DataType      types.DataType
	Layout        types.Layout
	Shape         types.Shape
	Quantization  *Quantization
	Normalization *Normalization
	// DataFormat is free-form metadata such as "rgb" or "yolov8 w_scale=640 h_scale=384".
	DataFormat string
}

// ByteSize returns the number of bytes a tensor with this spec occupies. Sizes that do
// not fit an int fail with ErrInvalidTensor.
func (s Spec) ByteSize() (int, error) {
	w, err := s.DataType.ByteWidth()
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidTensor, "%s: %v", s.Name, err)
	}
	if s.Shape.Len() == 0 {
		return 0, nil
	}
	n := w
	for _, d := range s.Shape.Dims() {
		if d > 0 && n > math.MaxInt/d {
			return 0, errors.Wrapf(ErrInvalidTensor, "%s: %s overflows", s.Name, s.Shape)
		}
		n *= d
	}
	return n, nil
}

// Validate checks that the spec describes a tensor that can be allocated.
func (s Spec) Validate() error {
	if !s.Shape.Valid() {
		return errors.Wrapf(ErrInvalidTensor, "%s: invalid %s", s.Name, s.Shape)
	}
	if _, err := s.ByteSize(); err != nil {
		return err
	}
	if s.Quantization != nil {
		if err := s.Quantization.validate(s.DataType); err != nil {
			return errors.WithMessage(err, s.Name)
		}
	}
	if s.Normalization != nil {
		if err := s.Normalization.validate(); err != nil {
			return errors.WithMessage(err, s.Name)
		}
	}
	return nil
}

// Tensor is a typed handle over a Buffer.
type Tensor struct {
	spec     Spec
	width    int
	buf      *Buffer
	released bool
}

// New allocates a zero-filled buffer for spec and returns the first handle to it.
func New(spec Spec) (*Tensor, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	size, _ := spec.ByteSize()
	return NewWithBuffer(spec, NewBuffer(size))
}

// NewWithBuffer creates a handle over an existing buffer.
//
// Arguments:
//   - spec: The tensor description.
//   - buf: The buffer to alias; its size must match the spec exactly.
//
// Returns:
//   - *Tensor: The new handle, holding one reference on buf.
//   - error: ErrInvalidTensor when the spec is invalid or the sizes differ.
func NewWithBuffer(spec Spec, buf *Buffer) (*Tensor, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	size, _ := spec.ByteSize()
	if buf == nil || buf.Size() != size {
		got := 0
		if buf != nil {
			got = buf.Size()
		}
		return nil, errors.Wrapf(ErrInvalidTensor, "%s: buffer holds %d bytes, %s needs %d",
			spec.Name, got, spec.Shape, size)
	}
	w, _ := spec.DataType.ByteWidth()
	buf.Retain()
	return &Tensor{spec: spec, width: w, buf: buf}, nil
}

// Alias returns a second handle over the same buffer.
func (t *Tensor) Alias() *Tensor {
	t.buf.Retain()
	return &Tensor{spec: t.spec, width: t.width, buf: t.buf}
}

// Release drops this handle's reference on the buffer. Further calls are no-ops.
func (t *Tensor) Release() {
	if t.released {
		return
	}
	t.released = true
	t.buf.Release()
}

func (t *Tensor) Name() string                  { return t.spec.Name }
func (t *Tensor) DataType() types.DataType      { return t.spec.DataType }
func (t *Tensor) Layout() types.Layout          { return t.spec.Layout }
func (t *Tensor) Shape() types.Shape            { return t.spec.Shape }
func (t *Tensor) DataFormat() string            { return t.spec.DataFormat }
func (t *Tensor) Quantization() *Quantization   { return t.spec.Quantization }
func (t *Tensor) Normalization() *Normalization { return t.spec.Normalization }
func (t *Tensor) Spec() Spec                    { return t.spec }
func (t *Tensor) Buffer() *Buffer               { return t.buf }
func (t *Tensor) Size() int                     { return t.buf.Size() }
func (t *Tensor) ItemCount() int                { return t.spec.Shape.ItemCount() }
func (t *Tensor) IsScalar() bool                { return t.ItemCount() == 1 }

// Bytes returns the live byte view of the buffer.
func (t *Tensor) Bytes() []byte { return t.buf.Data() }

// Written reports whether the buffer was ever written.
func (t *Tensor) Written() bool { return t.buf.Written() }

// Validate checks the size invariant against the aliased buffer.
func (t *Tensor) Validate() error {
	if want := t.ItemCount() * t.width; want != t.buf.Size() {
		return errors.Wrapf(ErrInvalidTensor, "%s: %d bytes for %d items of %s",
			t.spec.Name, t.buf.Size(), t.ItemCount(), t.spec.DataType)
	}
	return nil
}

// AssignBytes copies raw into the buffer in place.
func (t *Tensor) AssignBytes(raw []byte) error {
	if len(raw) != t.Size() {
		return errors.WithMessage(sizeMismatch(t.Size(), len(raw)), t.spec.Name)
	}
	copy(t.buf.Data(), raw)
	t.buf.MarkWritten()
	return nil
}

// Update hands the live bytes to fn and marks the buffer written when fn succeeds.
func (t *Tensor) Update(fn func(raw []byte) error) error {
	if err := fn(t.buf.Data()); err != nil {
		return err
	}
	t.buf.MarkWritten()
	return nil
}

// Assign overwrites the tensor contents with data.
//
// Supported inputs:
//   - []byte: raw bytes, copied as is.
//   - []int8, []int16, []uint16, []int32, []uint32, []float32, []float16.Float16: the byte
//     size must equal Size(). Values of the tensor's own element type are copied raw;
//     other element types are treated as real values and encoded.
//   - *gorgonia.org/tensor.Dense: shape must match, or match without the batch dimension
//     when the batch is 1.
//   - *Tensor: any tensor with the same item count.
//   - a Go number, when the tensor is a scalar.
func (t *Tensor) Assign(data any) error {
	switch v := data.(type) {
	case []byte:
		return t.AssignBytes(v)
	case []int8:
		return assignSlice(t, types.Int8, v)
	case []int16:
		return assignSlice(t, types.Int16, v)
	case []uint16:
		return assignSlice(t, types.Uint16, v)
	case []int32:
		return assignSlice(t, types.Int32, v)
	case []uint32:
		return assignSlice(t, types.Uint32, v)
	case []float32:
		return assignSlice(t, types.Float32, v)
	case []float16.Float16:
		f := make([]float32, len(v))
		for i, h := range v {
			f[i] = h.Float32()
		}
		return assignSlice(t, types.Float16, f)
	case *gt.Dense:
		return t.assignDense(v)
	case *Tensor:
		return t.assignTensor(v)
	case int:
		return t.assignScalar(float64(v))
	case int8:
		return t.assignScalar(float64(v))
	case int16:
		return t.assignScalar(float64(v))
	case int32:
		return t.assignScalar(float64(v))
	case int64:
		return t.assignScalar(float64(v))
	case uint:
		return t.assignScalar(float64(v))
	case uint8:
		return t.assignScalar(float64(v))
	case uint16:
		return t.assignScalar(float64(v))
	case uint32:
		return t.assignScalar(float64(v))
	case float32:
		return t.assignScalar(float64(v))
	case float64:
		return t.assignScalar(v)
	case nil:
		return errors.Wrapf(ErrUnsupportedData, "%s: nil", t.spec.Name)
	}
	return errors.Wrapf(ErrUnsupportedData, "%s: %T", t.spec.Name, data)
}

type number interface {
	~int8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~float32
}

func assignSlice[T number](t *Tensor, src types.DataType, vals []T) error {
	w, _ := src.ByteWidth()
	if got := len(vals) * w; got != t.Size() {
		return errors.WithMessage(sizeMismatch(t.Size(), got), t.spec.Name)
	}
	if len(vals) != t.ItemCount() {
		return errors.Wrapf(ErrSizeMismatch, "%s: expected %d items, got %d", t.spec.Name, t.ItemCount(), len(vals))
	}
	b := t.buf.Data()
	if src == t.spec.DataType {
		for i, v := range vals {
			putRaw(src, b, i, float64(v))
		}
	} else {
		for i, v := range vals {
			t.encodeAt(b, i, float64(v))
		}
	}
	t.buf.MarkWritten()
	return nil
}

func (t *Tensor) assignDense(d *gt.Dense) error {
	dims := t.spec.Shape.Dims()
	shape := []int(d.Shape())
	if !gt.Shape(shape).Eq(gt.Shape(dims)) {
		if dims[0] != 1 || !gt.Shape(shape).Eq(gt.Shape(dims[1:])) {
			return errors.Wrapf(ErrShapeMismatch, "%s: expected %v, got %v", t.spec.Name, dims, shape)
		}
	}
	var data any
	if d.IsMaterializable() {
		m, ok := d.Materialize().(*gt.Dense)
		if !ok {
			return errors.Wrapf(ErrUnsupportedData, "%s: cannot materialize view", t.spec.Name)
		}
		data = m.Data()
	} else {
		data = d.Data()
	}
	if _, isDense := data.(*gt.Dense); isDense {
		return errors.Wrapf(ErrUnsupportedData, "%s: nested dense", t.spec.Name)
	}
	return t.Assign(data)
}

func (t *Tensor) assignTensor(src *Tensor) error {
	if src.ItemCount() != t.ItemCount() {
		return errors.Wrapf(ErrSizeMismatch, "%s: expected %d items, got %d", t.spec.Name, t.ItemCount(), src.ItemCount())
	}
	if src.buf == t.buf {
		return nil
	}
	if src.spec.DataType == t.spec.DataType && sameQuantization(src.spec.Quantization, t.spec.Quantization) {
		return t.AssignBytes(src.Bytes())
	}
	sb, b := src.Bytes(), t.buf.Data()
	for i := range t.ItemCount() {
		t.encodeAt(b, i, src.decodeAt(sb, i))
	}
	t.buf.MarkWritten()
	return nil
}

func sameQuantization(a, b *Quantization) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (t *Tensor) assignScalar(v float64) error {
	if !t.IsScalar() {
		return errors.Wrapf(ErrShapeMismatch, "%s: scalar assigned to %s", t.spec.Name, t.spec.Shape)
	}
	t.encodeAt(t.buf.Data(), 0, v)
	t.buf.MarkWritten()
	return nil
}

// EncodeAt stores the real value v into element i, quantizing when required.
// It does not mark the buffer written; use it inside Update.
func (t *Tensor) EncodeAt(raw []byte, i int, v float32) {
	t.encodeAt(raw, i, float64(v))
}

// AsFloat returns the real values of all items.
func (t *Tensor) AsFloat() []float32 {
	b := t.buf.Data()
	out := make([]float32, t.ItemCount())
	for i := range out {
		out[i] = float32(t.decodeAt(b, i))
	}
	return out
}

// ToDense materializes the contents as a dense array with the tensor's shape.
//
// Quantized tensors and float16 tensors produce float32 values; other tensors keep
// their declared numeric type.
func (t *Tensor) ToDense() *gt.Dense {
	dims := t.spec.Shape.Dims()
	if t.spec.Quantization != nil || t.spec.DataType.IsFloat() {
		return gt.New(gt.WithShape(dims...), gt.WithBacking(t.AsFloat()))
	}
	b := t.buf.Data()
	n := t.ItemCount()
	var backing any
	switch t.spec.DataType {
	case types.Byte, types.Uint8:
		backing = append([]uint8(nil), b...)
	case types.Int8:
		backing = collect[int8](t.spec.DataType, b, n)
	case types.Int16:
		backing = collect[int16](t.spec.DataType, b, n)
	case types.Uint16:
		backing = collect[uint16](t.spec.DataType, b, n)
	case types.Int32:
		backing = collect[int32](t.spec.DataType, b, n)
	case types.Uint32:
		backing = collect[uint32](t.spec.DataType, b, n)
	case types.Float16, types.Float32, types.Invalid:
		backing = t.AsFloat()
	}
	return gt.New(gt.WithShape(dims...), gt.WithBacking(backing))
}

func collect[T number](dt types.DataType, b []byte, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(rawAt(dt, b, i))
	}
	return out
}
