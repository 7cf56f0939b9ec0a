// Package boot is the bootstrap pipeline that brings the embedded runtime up
// and tears it down with the process exit code.
//
// The pipeline is strictly linear and runs once per process:
//
//	forward argv  ->  locate library  ->  resolve depot  ->
//	configure environment  ->  runtime init
//
// with Shutdown invoked later, at the very end of main, handing the final
// exit code to the runtime's exit hook. Between the two calls the host
// application does all of its runtime-dependent work.
//
// The depot root is always derived from the located support library, never
// hard-coded, so the image and its packages relocate as one unit with the
// library. Everything the pipeline touches beyond path arithmetic is a
// collaborator behind a narrow interface: the loader, the environment table,
// and the runtime itself.
//
//	shim := boot.New(boot.Config{})
//	if err := shim.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	code := appMain(shim)
//	shim.Shutdown(code) // does not return
package boot
