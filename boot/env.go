package boot

import (
	"path/filepath"
	"strings"

	"github.com/wippyai/rtboot"
	"github.com/wippyai/rtboot/errors"
	"github.com/wippyai/rtboot/runtime"
)

// configureEnvironment writes the two process-global keys the runtime reads
// and records the image path in its options structure:
//
//	DEPOT_PATH = <depot>/   (trailing separator required)
//	LOAD_PATH  = @          (current-project sentinel, always overwritten)
//
// Values are composed as ordinary Go strings, so no resolved path can
// truncate. The same inputs always produce the same final environment;
// repeated calls overwrite, never accumulate.
func configureEnvironment(env rtboot.Environ, depot, imagePath string, opts *runtime.Options) error {
	if err := env.Setenv(runtime.EnvDepotPath, depotEnvValue(depot)); err != nil {
		return &errors.Error{
			Phase:  errors.PhaseConfigure,
			Kind:   errors.KindInvalidInput,
			Detail: "set " + runtime.EnvDepotPath,
			Cause:  err,
		}
	}

	if err := env.Setenv(runtime.EnvLoadPath, runtime.LoadPathCurrentProject); err != nil {
		return &errors.Error{
			Phase:  errors.PhaseConfigure,
			Kind:   errors.KindInvalidInput,
			Detail: "set " + runtime.EnvLoadPath,
			Cause:  err,
		}
	}

	opts.ImageFile = imagePath
	return nil
}

// depotEnvValue appends the required trailing separator without ever
// doubling it.
func depotEnvValue(depot string) string {
	sep := string(filepath.Separator)
	if strings.HasSuffix(depot, sep) {
		return depot
	}
	return depot + sep
}
