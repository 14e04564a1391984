package files

import (
	"testing"

	"github.com/spf13/afero"
)

func TestIsSourceFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"bot.js", true},
		{"handler.ts", true},
		{"notes.txt", true},
		{"package.json", true},
		{"UPPER.JS", true},
		{"style.css", false},
		{"Makefile", false},
		{"archive.js.gz", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsSourceFile(tt.path); got != tt.want {
				t.Errorf("IsSourceFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/src/case.js", []byte("const a = require('a');\n"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := afero.WriteFile(fs, "/src/image.png", []byte{0x89}, 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "existing js file", path: "/src/case.js", want: "const a = require('a');\n"},
		{name: "surrounding whitespace", path: "  /src/case.js ", want: "const a = require('a');\n"},
		{name: "missing file", path: "/src/missing.js", wantErr: true},
		{name: "unsupported extension", path: "/src/image.png", wantErr: true},
		{name: "empty path", path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(fs, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Load() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"migrated-output.js", "migrated-output.js"},
		{"out/case.JS", "out/case.JS"},
		{"case.ts", "case.js"},
		{"case", "case.js"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in); got != tt.want {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSave(t *testing.T) {
	fs := afero.NewMemMapFs()

	path, err := Save(fs, "out/case.ts", "import a from 'a';\n")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != "out/case.js" {
		t.Errorf("Save() path = %q, want out/case.js", path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(data) != "import a from 'a';\n" {
		t.Errorf("saved content = %q", data)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != OutputFilePerm {
		t.Errorf("saved file perm = %v, want %v", info.Mode().Perm(), OutputFilePerm)
	}

	if _, err := Save(fs, " ", "x"); err == nil {
		t.Error("Save() with empty path should return error")
	}
}
