// Package rtboot is the bootstrap shim that brings up an embedded runtime
// inside a host executable and tears it down cleanly on exit.
//
// A host application that ships a precompiled runtime image alongside its own
// binary has three bootstrap problems: forwarding process arguments into the
// runtime's own option parser, discovering at run time where the runtime's
// support library (and the image bundled with it) actually lives on disk, and
// configuring the runtime's depot and load-path environment relative to that
// location so the whole installation is relocatable as a unit.
//
// # Architecture Overview
//
// The module is organized into small packages with distinct responsibilities:
//
//	rtboot/          Root package with the narrow collaborator interfaces
//	├── boot/        Bootstrap pipeline and lifecycle state machine
//	├── loader/      Default support-library locator
//	├── runtime/     Embedded runtime backed by wazero
//	├── errors/      Structured error types
//	└── cmd/bootrun/ Host executable with one-shot and REPL modes
//
// # Quick Start
//
//	shim := boot.New(boot.Config{LibraryName: "libapp.img.wasm"})
//	if err := shim.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	// ... run application work through shim.Runtime() ...
//	shim.Shutdown(0) // does not return
//
// # Lifecycle
//
// A Shim moves Uninitialized -> Running -> Terminated. Init is valid exactly
// once; Shutdown hands the final exit code to the runtime's exit hook and
// ends the process. Every bootstrap failure is unrecoverable: a misconfigured
// depot would silently corrupt all subsequent module resolution, so nothing
// in this module retries.
//
// # Relocatability
//
// The depot directory is always derived from the support library's resolved
// path by ascending a fixed number of directory levels, never hard-coded.
// Moving the installation directory moves the depot with it.
package rtboot
