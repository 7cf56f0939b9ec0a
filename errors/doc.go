// Package errors provides structured error types for the bootstrap shim.
//
// Errors are categorized by Phase (where in the pipeline the error occurred)
// and Kind (error category). Bootstrap errors are deliberately coarse: almost
// everything before runtime init is fatal for the process, and Fatal()
// encodes exactly which kinds those are.
//
// Use the convenience constructors:
//
//	err := errors.NotFound("libapp.img.wasm", cause)
//	err := errors.Layout("/x.so", 2)
//
// All errors implement the standard error interface and support errors.Is/As;
// matching with Is compares Phase and Kind, not the detail text.
package errors
