package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/tensor"
	"github.com/nvr-ai/go-synap/types"
)

// qtypes maps metadata type names to data types. "quin8" appears in models built by
// older converters and is kept as an alias of uint8.
var qtypes = map[string]types.DataType{
	"byte":    types.Byte,
	"u8":      types.Uint8,
	"uint8":   types.Uint8,
	"quint8":  types.Uint8,
	"quin8":   types.Uint8,
	"i8":      types.Int8,
	"int8":    types.Int8,
	"qint8":   types.Int8,
	"u16":     types.Uint16,
	"uint16":  types.Uint16,
	"quint16": types.Uint16,
	"i16":     types.Int16,
	"int16":   types.Int16,
	"qint16":  types.Int16,
	"u32":     types.Uint32,
	"uint32":  types.Uint32,
	"quint32": types.Uint32,
	"i32":     types.Int32,
	"int32":   types.Int32,
	"qint32":  types.Int32,
	"f16":     types.Float16,
	"float16": types.Float16,
	"fp16":    types.Float16,
	"f32":     types.Float32,
	"float32": types.Float32,
	"fp32":    types.Float32,
}

// LookupDataType resolves a metadata type name.
func LookupDataType(name string) (types.DataType, bool) {
	dt, ok := qtypes[strings.ToLower(name)]
	return dt, ok
}

type quantizeInfo struct {
	QType            string   `json:"qtype"`
	Scale            *float32 `json:"scale"`
	ZeroPoint        int32    `json:"zero_point"`
	FractionalLength *int     `json:"fractional_length"`
}

type tensorInfo struct {
	Name       string        `json:"name"`
	Shape      []int         `json:"shape"`
	Format     string        `json:"format"`
	DType      string        `json:"dtype"`
	Quantize   *quantizeInfo `json:"quantize"`
	DataFormat string        `json:"data_format"`
	Means      []float32     `json:"means"`
	Scale      *float32      `json:"scale"`
}

type metadata struct {
	Inputs  json.RawMessage `json:"Inputs"`
	Outputs json.RawMessage `json:"Outputs"`
}

// parseMetadata decodes model.json into ordered input and output specs.
func parseMetadata(source string, raw []byte) (inputs, outputs []tensor.Spec, err error) {
	var md metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, nil, invalid(source, MetadataEntry, errors.Wrap(ErrMalformed, err.Error()))
	}
	if len(md.Inputs) == 0 {
		return nil, nil, invalid(source, "Inputs", ErrMissingEntry)
	}
	if len(md.Outputs) == 0 {
		return nil, nil, invalid(source, "Outputs", ErrMissingEntry)
	}
	if inputs, err = parseTensors(source, "Inputs", md.Inputs); err != nil {
		return nil, nil, err
	}
	if outputs, err = parseTensors(source, "Outputs", md.Outputs); err != nil {
		return nil, nil, err
	}
	return inputs, outputs, nil
}

// parseTensors walks a JSON object member by member so declaration order is kept.
func parseTensors(source, section string, raw json.RawMessage) ([]tensor.Spec, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, invalid(source, section, errors.Wrap(ErrMalformed, "expected an object"))
	}
	var specs []tensor.Spec
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalid(source, section, errors.Wrap(ErrMalformed, err.Error()))
		}
		key, _ := tok.(string)
		field := section + "." + key
		var info tensorInfo
		if err := dec.Decode(&info); err != nil {
			return nil, invalid(source, field, errors.Wrap(ErrMalformed, err.Error()))
		}
		spec, err := info.spec(key)
		if err != nil {
			return nil, invalid(source, field, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (ti tensorInfo) spec(key string) (tensor.Spec, error) {
	spec := tensor.Spec{
		Name:       ti.Name,
		Layout:     types.ParseLayout(ti.Format),
		Shape:      types.NewShape(ti.Shape...),
		DataFormat: ti.DataFormat,
	}
	if spec.Name == "" {
		spec.Name = key
	}
	if len(ti.Shape) == 0 {
		return spec, errors.Wrap(ErrMissingEntry, "shape")
	}

	typeName := ti.DType
	if ti.Quantize != nil {
		typeName = ti.Quantize.QType
	}
	dt, ok := LookupDataType(typeName)
	if !ok {
		return spec, errors.Wrapf(ErrMalformed, "unknown data type %q", typeName)
	}
	spec.DataType = dt

	if q := ti.Quantize; q != nil && !dt.IsFloat() {
		switch {
		case q.FractionalLength != nil:
			spec.Quantization = &tensor.Quantization{Scale: float32(math.Ldexp(1, -*q.FractionalLength))}
		case q.Scale != nil && *q.Scale > 0:
			spec.Quantization = &tensor.Quantization{Scale: *q.Scale, ZeroPoint: q.ZeroPoint}
		}
	}
	if len(ti.Means) > 0 || ti.Scale != nil {
		n := &tensor.Normalization{Means: ti.Means, Scale: 1}
		if ti.Scale != nil {
			n.Scale = *ti.Scale
		}
		spec.Normalization = n
	}
	return spec, spec.Validate()
}
