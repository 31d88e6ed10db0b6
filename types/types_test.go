package types

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	s := NewShape(1, 3, 224, 224)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 150528, s.ItemCount())
	assert.True(t, s.Valid())
	assert.Equal(t, "Shape(1, 3, 224, 224)", s.String())

	d, err := s.At(1)
	require.NoError(t, err)
	assert.Equal(t, 3, d)

	_, err = s.At(4)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	dims := s.Dims()
	dims[0] = 9
	assert.True(t, s.Equal(NewShape(1, 3, 224, 224)), "Dims must return a copy")

	assert.False(t, NewShape(1, 0, 3).Valid())
	assert.False(t, NewShape().Valid())
	assert.Equal(t, 0, NewShape().ItemCount())
}

func TestDataTypeByteWidth(t *testing.T) {
	tests := []struct {
		dt    DataType
		width int
	}{
		{Byte, 1}, {Int8, 1}, {Uint8, 1},
		{Int16, 2}, {Uint16, 2},
		{Int32, 4}, {Uint32, 4},
		{Float16, 2}, {Float32, 4},
	}
	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			w, err := tt.dt.ByteWidth()
			require.NoError(t, err)
			assert.Equal(t, tt.width, w)

			parsed, err := ParseDataType(tt.dt.String())
			require.NoError(t, err)
			assert.Equal(t, tt.dt, parsed)
		})
	}

	_, err := Invalid.ByteWidth()
	assert.True(t, errors.Is(err, ErrInvalidDataType))
	_, err = ParseDataType("invalid")
	assert.Error(t, err)
}

func TestLayout(t *testing.T) {
	assert.Equal(t, 0, int(LayoutNone))
	assert.Equal(t, 1, int(LayoutNCHW))
	assert.Equal(t, 2, int(LayoutNHWC))
	assert.Equal(t, LayoutNHWC, ParseLayout("NHWC"))
	assert.Equal(t, LayoutNone, ParseLayout("hwc"))
}

func TestRect(t *testing.T) {
	var zero Rect
	assert.True(t, zero.Empty())

	r := NewRect(2, 3, 4, 5)
	assert.False(t, r.Empty())
	assert.Equal(t, "Rect(origin=(2, 3), size=(4, 5))", r.String())
	assert.True(t, NewRect(1, 1, 0, 5).Empty())

	assert.Equal(t, "Dim2d(x=3, y=4)", Dim2d{3, 4}.String())
	assert.Equal(t, Dim2d{4, 6}, Dim2d{1, 2}.Add(Dim2d{3, 4}))
}

func TestPlacement(t *testing.T) {
	assert.True(t, Placement{}.Empty())
	assert.True(t, Placement{Rect: NewRect(0, 0, 10, 10)}.Empty(), "zero scale is empty")

	p := Placement{Rect: NewRect(0, 12, 640, 360), Scale: 0.5, Source: Dim2d{1280, 720}}
	assert.False(t, p.Empty())
	assert.Equal(t, 12, p.Origin.Y)
}

func TestLandmark(t *testing.T) {
	l := NewLandmark(10, 20, 30)
	assert.Equal(t, DefaultVisibility, l.Visibility)

	o := l
	o.Visibility = 0.5
	assert.True(t, l.Equal(o), "visibility is ignored by Equal")
	assert.Equal(t, "Landmark(x=10, y=20, z=30, visibility=0.5)", o.String())
	assert.False(t, l.Equal(NewLandmark(10, 20, 31)))
}

func TestMask(t *testing.T) {
	m := NewMask(5, 3)
	assert.False(t, m.Empty())
	assert.Len(t, m.Buffer(), 15)
	assert.Equal(t, "Mask(width=5, height=3)", m.String())

	require.NoError(t, m.SetValue(2, 4, 0.75))
	assert.Equal(t, float32(0.75), m.Buffer()[2*5+4])

	assert.True(t, errors.Is(m.SetValue(3, 0, 1), ErrOutOfRange))
	assert.True(t, errors.Is(m.SetValue(0, 5, 1), ErrOutOfRange))

	assert.True(t, Mask{}.Empty())
	assert.True(t, NewMask(0, 4).Empty())
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "3.2.0", Version{3, 2, 0}.String())
}
