package config

import "os"

// ExpandEnv expands $VAR and ${VAR} references in YAML content using the
// standard library's shell-style expansion, grounded on tarsy's
// pkg/config/envexpand.go. Missing variables expand to the empty string;
// validation is expected to catch required fields left empty by this.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
