package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// OutputFilePerm is the permission for saved output (0644 = rw-r--r--)
	OutputFilePerm os.FileMode = 0644
	// OutputExt is the extension every saved output gets
	OutputExt = ".js"
	// OutputMIME is the media type of saved output
	OutputMIME = "text/javascript"
)

// SourceExts lists the extensions accepted for loading
var SourceExts = []string{".js", ".ts", ".txt", ".json"}

// IsSourceFile reports whether path has one of SourceExts (case-insensitive)
func IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range SourceExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Load reads the whole file as text
func Load(fs afero.Fs, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	if !IsSourceFile(path) {
		return "", fmt.Errorf("unsupported file type %q (want one of %s)", filepath.Ext(path), strings.Join(SourceExts, ", "))
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// OutputPath forces the .js extension onto path
func OutputPath(path string) string {
	path = strings.TrimSpace(path)
	if strings.EqualFold(filepath.Ext(path), OutputExt) {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + OutputExt
}

// Save writes text to path (with the .js extension enforced) and returns the final path
func Save(fs afero.Fs, path, text string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	path = OutputPath(path)

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, []byte(text), OutputFilePerm); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
