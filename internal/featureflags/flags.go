// Package featureflags reads boolean toggles from the environment. The
// portal keeps contested behaviors (marking submitted batches, server-side
// session revocation) behind flags so a deployment can opt in without a
// rebuild.
package featureflags

import (
	"os"
	"strconv"
	"strings"
)

const envPrefix = "FLAG_"

// Enabled reports whether FLAG_<NAME> is set to a truthy value. Accepts the
// strconv.ParseBool spellings plus "yes"/"on".
func Enabled(name string) bool {
	raw := os.Getenv(envPrefix + strings.ToUpper(name))
	if raw == "" {
		return false
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	switch strings.ToLower(raw) {
	case "yes", "on":
		return true
	}
	return false
}
