// Command bootrun is a host executable built around the bootstrap shim: it
// brings the embedded runtime up from the build-named support library, runs
// image exports (one-shot or through an interactive REPL), and hands the
// final exit code back through the shim.
//
// The support library name is linked in:
//
//	go build -ldflags "-X github.com/wippyai/rtboot/boot.DefaultLibraryName=libapp.img.wasm" ./cmd/bootrun
//
// Runtime flags (--image, --threads, --entry, --quiet) are consumed by the
// runtime's option parser before bootrun sees the argument list.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/rtboot/boot"
	"github.com/wippyai/rtboot/runtime"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootrun: %v\n", err)
		os.Exit(1)
	}

	rt := runtime.New()
	shim := boot.New(boot.Config{
		LibraryName: os.Getenv("BOOTRUN_LIBRARY"),
		Runtime:     rt,
		Logger:      logger,
	})

	// Fatal configuration errors terminate inside Init; anything returned
	// here is a runtime-reported failure.
	if err := shim.Init(context.Background()); err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	code := run(shim, rt)
	shim.Shutdown(code) // does not return
}

// run executes the host's work between Init and Shutdown and returns the
// process exit code.
func run(shim *boot.Shim, rt *runtime.Runtime) int {
	fs := flag.NewFlagSet("bootrun", flag.ExitOnError)
	var (
		list        = fs.Bool("list", false, "List image exports and exit")
		interactive = fs.Bool("i", false, "Interactive REPL over image exports")
		call        = fs.String("call", "", "Export to invoke (defaults to the runtime entry point)")
		rawArgs     = fs.String("args", "", "Comma-separated integer arguments for -call")
	)
	args := shim.Args()
	_ = fs.Parse(args[1:])

	switch {
	case *list:
		for _, name := range rt.Exports() {
			fmt.Println(signature(rt, name))
		}
		return 0

	case *interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "bootrun: interactive mode needs a terminal")
			return 1
		}
		if err := runREPL(rt); err != nil {
			fmt.Fprintf(os.Stderr, "bootrun: %v\n", err)
			return 1
		}
		return 0

	default:
		name := *call
		if name == "" {
			name = rt.Options().EntryPoint
		}
		return oneShot(rt, name, *rawArgs)
	}
}

func oneShot(rt *runtime.Runtime, name, rawArgs string) int {
	if rt.ExportDefinition(name) == nil {
		fmt.Fprintf(os.Stderr, "bootrun: image has no export %q; use -list\n", name)
		return 1
	}

	params, err := parseParams(rt, name, rawArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootrun: %v\n", err)
		return 1
	}

	results, err := rt.Call(context.Background(), name, params...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootrun: %v\n", err)
		return 1
	}

	if len(results) > 0 {
		fmt.Println(formatResults(rt, name, results))
		// A single integer result doubles as the exit code, the way a main
		// export reports status.
		def := rt.ExportDefinition(name)
		if rts := def.ResultTypes(); len(rts) == 1 && rts[0] == api.ValueTypeI32 {
			return int(int32(results[0]))
		}
	}
	return 0
}

// parseParams converts comma-separated literals into raw stack values using
// the export's declared parameter types.
func parseParams(rt *runtime.Runtime, name, raw string) ([]uint64, error) {
	def := rt.ExportDefinition(name)
	types := def.ParamTypes()

	var fields []string
	if raw != "" {
		fields = strings.Split(raw, ",")
	}
	if len(fields) != len(types) {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", name, len(types), len(fields))
	}

	params := make([]uint64, len(fields))
	for i, f := range fields {
		v, err := encodeValue(types[i], strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		params[i] = v
	}
	return params, nil
}

func encodeValue(t api.ValueType, s string) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, err
		}
		return api.EncodeI32(int32(n)), nil
	case api.ValueTypeI64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		return api.EncodeI64(n), nil
	case api.ValueTypeF32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(f)), nil
	case api.ValueTypeF64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(f), nil
	}
	return 0, fmt.Errorf("unsupported parameter type %s", api.ValueTypeName(t))
}

func decodeValue(t api.ValueType, v uint64) string {
	switch t {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(int32(v)), 10)
	case api.ValueTypeI64:
		// An i64 travels as the raw stack value.
		return strconv.FormatInt(int64(v), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	}
	return strconv.FormatUint(v, 10)
}

func formatResults(rt *runtime.Runtime, name string, results []uint64) string {
	def := rt.ExportDefinition(name)
	types := def.ResultTypes()
	parts := make([]string, len(results))
	for i, r := range results {
		if i < len(types) {
			parts[i] = decodeValue(types[i], r)
		} else {
			parts[i] = strconv.FormatUint(r, 10)
		}
	}
	return strings.Join(parts, ", ")
}

// signature renders an export as name(type, type) -> type.
func signature(rt *runtime.Runtime, name string) string {
	def := rt.ExportDefinition(name)
	if def == nil {
		return name
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	names := def.ParamNames()
	for i, p := range def.ParamTypes() {
		if i > 0 {
			b.WriteString(", ")
		}
		if i < len(names) && names[i] != "" {
			b.WriteString(names[i])
			b.WriteString(": ")
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteByte(')')
	if rts := def.ResultTypes(); len(rts) > 0 {
		b.WriteString(" -> ")
		for i, r := range rts {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(api.ValueTypeName(r))
		}
	}
	return b.String()
}
