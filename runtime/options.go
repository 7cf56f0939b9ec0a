package runtime

import (
	"strconv"
	"strings"

	"github.com/wippyai/rtboot/errors"
)

// Options is the runtime's mutable configuration structure. The bootstrap
// shim writes exactly one field after option parsing: ImageFile, which names
// the precompiled image the initializer loads.
type Options struct {
	// ImageFile is the path of the precompiled image. Set by the bootstrap
	// shim from the located support library; a --image flag parsed earlier
	// is overridden there.
	ImageFile string

	// Threads caps the guest's worker count. 0 means runtime default.
	Threads int

	// Quiet suppresses the runtime banner on init.
	Quiet bool

	// EntryPoint is the export invoked by one-shot hosts. Defaults to "main".
	EntryPoint string
}

// DefaultOptions returns an Options with runtime defaults filled in.
func DefaultOptions() *Options {
	return &Options{EntryPoint: "main"}
}

// ParseOptions consumes the runtime's own flags from *args, rewriting the
// slice in place so only the host application's arguments remain. args[0] is
// the program name and is never touched. Parsing stops at "--" (the marker
// itself is removed). Unrecognized arguments are left for the host.
//
// Recognized grammar:
//
//	--image=PATH | --image PATH
//	--threads=N  | --threads N
//	--entry=NAME | --entry NAME
//	--quiet | -q
func ParseOptions(args *[]string) (*Options, error) {
	opts := DefaultOptions()
	if args == nil || len(*args) == 0 {
		return opts, nil
	}

	in := *args
	out := in[:1]

	for i := 1; i < len(in); i++ {
		arg := in[i]

		if arg == "--" {
			out = append(out, in[i+1:]...)
			break
		}

		name, val, hasVal := strings.Cut(arg, "=")

		// Flags taking a value may supply it in the next argument.
		takeValue := func() (string, error) {
			if hasVal {
				return val, nil
			}
			if i+1 >= len(in) {
				return "", errors.InvalidInput(errors.PhaseArgs, name+" requires a value")
			}
			i++
			return in[i], nil
		}

		switch name {
		case "--image":
			v, err := takeValue()
			if err != nil {
				return nil, err
			}
			opts.ImageFile = v
		case "--threads":
			v, err := takeValue()
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, errors.InvalidInput(errors.PhaseArgs, "--threads expects a non-negative integer, got "+v)
			}
			opts.Threads = n
		case "--entry":
			v, err := takeValue()
			if err != nil {
				return nil, err
			}
			opts.EntryPoint = v
		case "--quiet", "-q":
			opts.Quiet = true
		default:
			out = append(out, arg)
		}
	}

	*args = out
	return opts, nil
}
