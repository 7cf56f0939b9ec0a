package boot

import "github.com/wippyai/rtboot/runtime"

// forwardArgs passes the process arguments to the runtime before any other
// bootstrap step: the argument cache gets its own copy of the original argv,
// support services (the runtime logger) come up, and the runtime's option
// parser consumes its flags from a second copy rewritten in place. The
// returned remainder is what the host application parses afterwards.
func (s *Shim) forwardArgs() (*runtime.Options, []string, error) {
	rt := s.cfg.Runtime
	rt.SetupArgs(append([]string(nil), s.cfg.Args...))
	rt.SetEnviron(s.cfg.Environ)
	runtime.SetLogger(s.cfg.Logger)

	args := append([]string(nil), s.cfg.Args...)
	opts, err := runtime.ParseOptions(&args)
	if err != nil {
		return nil, nil, err
	}
	return opts, args, nil
}
