// Package types - Leaf value types shared by tensors, preprocessing and postprocessing.
//
// Nothing in this package allocates shared state: every type is a plain value that is
// created and discarded with normal scope rules.
package types
