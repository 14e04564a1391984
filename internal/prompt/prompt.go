// Package prompt carries the fixed migration instruction sent with every request.
package prompt

import (
	_ "embed"
	"strings"
)

//go:embed instruction.md
var instruction string

// CompatibilityHeader is the block the instruction tells the model to put at the top of every file
const CompatibilityHeader = `import { fileURLToPath } from 'url';
import path from 'path';
import { createRequire } from 'module';

const __filename = fileURLToPath(import.meta.url);
const __dirname = path.dirname(__filename);
const require = createRequire(import.meta.url);`

// SystemInstruction returns the migration instruction
func SystemInstruction() string {
	return instruction
}

// HasCompatibilityHeader reports whether every header statement appears in output,
// ignoring indentation and blank lines.
func HasCompatibilityHeader(output string) bool {
	present := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			present[l] = true
		}
	}
	for _, line := range strings.Split(CompatibilityHeader, "\n") {
		l := strings.TrimSpace(line)
		if l != "" && !present[l] {
			return false
		}
	}
	return true
}
