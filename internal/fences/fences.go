// Package fences removes markdown code-fence lines that models wrap around code.
package fences

import "regexp"

// A fence line starts at column 0 with ``` and an optional language tag.
// Indented fences belong to the code (markdown inside template literals).
var fenceLine = regexp.MustCompile("(?m)^```[A-Za-z0-9_+.#-]*[ \t]*(?:\r?\n|$)")

// Strip removes every fence line from text. Content between fences, including
// its trailing newline, is kept; stripping already-stripped text is a no-op.
func Strip(text string) string {
	return fenceLine.ReplaceAllString(text, "")
}
