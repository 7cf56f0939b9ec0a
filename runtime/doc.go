// Package runtime is the embedded runtime the bootstrap shim drives.
//
// It exposes exactly the collaborator surface the shim consumes: an argument
// cache (SetupArgs), an option parser that rewrites argv in place
// (ParseOptions), an initializer that loads the precompiled image named in
// Options.ImageFile (Init), and a process-terminating exit hook (AtExit).
//
// The engine is wazero; the image is a WebAssembly binary. The depot
// directory announced through DEPOT_PATH backs a file compilation cache
// under <depot>/compiled, so a relocatable installation keeps its warm-start
// artifacts next to its packages. Both DEPOT_PATH and LOAD_PATH are
// forwarded into the guest environment along with the cached argv.
//
// Init and AtExit are called once per process, in that order. AtExit invokes
// the image's optional "atexit" export with the final exit code, closes the
// engine, and ends the process with the same code.
package runtime
