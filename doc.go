// Package synap - Edge inference runtime.
//
// A model container is loaded by a network.Network, which exposes typed input and output
// tensors and runs them through a compute backend. The preprocess package letterboxes images
// into input tensors and the postprocess package turns raw outputs into classifications and
// detections. The inference package composes all of them behind a single Engine.
package synap

import "github.com/nvr-ai/go-synap/types"

// ModuleVersion is the version of this module.
const ModuleVersion = "0.0.2"

// Version returns the framework version implemented by this module.
func Version() types.Version {
	return types.Version{Major: 3, Minor: 2, Subminor: 0}
}
