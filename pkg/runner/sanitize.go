package runner

import (
	"fmt"
	"strings"
)

// prohibitedChars mirrors the shell-metacharacter denylist used by both
// process_runner.py and docker_runner.py's _sanitize_args.
const prohibitedChars = ";&|`$()><\n\r"

// sanitizeArgs rejects any argument containing a shell metacharacter. Tool
// adapters pass arguments as a string slice (never through a shell), so this
// is defense in depth against an adapter or LLM-chosen parameter smuggling a
// command separator into what is ultimately exec.Command's argv.
func sanitizeArgs(args []string) error {
	for _, a := range args {
		if strings.ContainsAny(a, prohibitedChars) {
			return fmt.Errorf("argument contains prohibited shell metacharacter: %q", a)
		}
	}
	return nil
}
