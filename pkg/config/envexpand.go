package config

import "os"

// ExpandEnv replaces ${VAR} and $VAR references in raw with the current
// process environment, mirroring the teacher's
// pkg/config/envexpand.go (os.ExpandEnv wrapper) so a deployer can
// reference secrets like the master encryption key from the YAML file
// without embedding them in it.
func ExpandEnv(raw []byte) []byte {
	return []byte(os.ExpandEnv(string(raw)))
}
