// Package models - Model container parsing and label files.
//
// A container is a zip archive holding "0/model.json", which declares the ordered input and
// output tensors, plus backend payloads such as "0/model.onnx".
package models

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/tensor"
)

const (
	// MetadataEntry is the archive member describing the network tensors.
	MetadataEntry = "0/model.json"
	// ONNXEntry is the archive member holding an ONNX graph.
	ONNXEntry = "0/model.onnx"
)

// Model is a parsed container.
type Model struct {
	// Source names where the container came from: a file path or "memory (N bytes)".
	Source string
	// Inputs lists the input tensors in declaration order.
	Inputs []tensor.Spec
	// Outputs lists the output tensors in declaration order.
	Outputs []tensor.Spec

	entries map[string]*zip.File
	names   []string
	release func() error
}

// Open maps the container at path and parses it.
//
// Arguments:
//   - path: The container file.
//
// Returns:
//   - *Model: The parsed model. Close it to unmap the file.
//   - error: An *InvalidModelError describing the first problem found.
func Open(path string) (*Model, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return nil, invalid(path, "", err)
	}
	m, err := parse(path, data)
	if err != nil {
		_ = release()
		return nil, err
	}
	m.release = release
	return m, nil
}

// FromBytes parses a container held in memory. The blob must not be modified while the
// model is in use.
func FromBytes(blob []byte) (*Model, error) {
	return parse(MemorySource(len(blob)), blob)
}

// MemorySource is the Source of a container parsed from memory.
func MemorySource(n int) string {
	return fmt.Sprintf("memory (%d bytes)", n)
}

func parse(source string, data []byte) (*Model, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, invalid(source, "", errors.Wrap(err, "not a zip archive"))
	}
	m := &Model{Source: source, entries: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		m.entries[f.Name] = f
		m.names = append(m.names, f.Name)
	}
	raw, err := m.Entry(MetadataEntry)
	if err != nil {
		return nil, err
	}
	if m.Inputs, m.Outputs, err = parseMetadata(source, raw); err != nil {
		return nil, err
	}
	return m, nil
}

// Entry returns the contents of an archive member.
func (m *Model) Entry(name string) ([]byte, error) {
	f, ok := m.entries[name]
	if !ok {
		return nil, invalid(m.Source, name, ErrMissingEntry)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, invalid(m.Source, name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, invalid(m.Source, name, err)
	}
	return b, nil
}

// HasEntry reports whether the archive contains name.
func (m *Model) HasEntry(name string) bool {
	_, ok := m.entries[name]
	return ok
}

// Entries lists archive members in archive order.
func (m *Model) Entries() []string { return slices.Clone(m.names) }

// Close releases the mapped file, if any.
func (m *Model) Close() error {
	if m == nil || m.release == nil {
		return nil
	}
	release := m.release
	m.release = nil
	return release()
}
