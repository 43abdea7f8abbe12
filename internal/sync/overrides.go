package sync

import (
	"encoding/json"

	"github.com/dest-ash/bnncache/internal/logging"
)

// ParseOverrides decodes a drive_map.json manifest mapping file names
// in the containing directory to alternate download URLs. A malformed
// manifest is logged and treated as empty so the directory still
// mirrors from the primary host.
func ParseOverrides(data []byte, dirPath string, logger logging.Logger) map[string]string {
	overrides := make(map[string]string)
	if len(data) == 0 {
		return overrides
	}

	if err := json.Unmarshal(data, &overrides); err != nil {
		logger.Warn("Ignoring malformed override manifest",
			logging.F("dir", dirPath),
			logging.F("error", err.Error()),
		)
		return make(map[string]string)
	}

	for name, target := range overrides {
		if name == "" || target == "" {
			logger.Warn("Ignoring empty override entry",
				logging.F("dir", dirPath),
				logging.F("name", name),
			)
			delete(overrides, name)
		}
	}
	return overrides
}
