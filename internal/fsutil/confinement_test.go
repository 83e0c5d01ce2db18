package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfineRelPath(t *testing.T) {
	tmpDir := t.TempDir()

	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.Mkdir(subDir, 0o750); err != nil {
		t.Fatal(err)
	}

	safeFile := filepath.Join(tmpDir, "0001.mp4")
	if err := os.WriteFile(safeFile, []byte("chunk"), 0o600); err != nil {
		t.Fatal(err)
	}

	linkOutside := filepath.Join(tmpDir, "link_outside")
	if err := os.Symlink("..", linkOutside); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		root     string
		target   string
		wantErr  bool
		wantPath string
	}{
		{
			name:     "valid chunk file",
			root:     tmpDir,
			target:   "0001.mp4",
			wantErr:  false,
			wantPath: "0001.mp4",
		},
		{
			name:     "valid subdir file",
			root:     tmpDir,
			target:   "subdir/0002.mp4",
			wantErr:  false,
			wantPath: "subdir/0002.mp4",
		},
		{
			name:    "traversal attempt ..",
			root:    tmpDir,
			target:  "../outside.mp4",
			wantErr: true,
		},
		{
			name:    "traversal attempt absolute",
			root:    tmpDir,
			target:  "/etc/passwd",
			wantErr: true,
		},
		{
			name:    "symlink escape",
			root:    tmpDir,
			target:  "link_outside/foo",
			wantErr: true,
		},
		{
			name:    "backslash rejected",
			root:    tmpDir,
			target:  "sub\\dir",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineRelPath(tt.root, tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("ConfineRelPath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.wantPath != "" {
				if !strings.HasSuffix(got, tt.wantPath) {
					t.Errorf("ConfineRelPath() got = %v, want suffix %v", got, tt.wantPath)
				}
			}
		})
	}
}

func TestConfineAbsPath(t *testing.T) {
	tmpDir := t.TempDir()

	safePath := filepath.Join(tmpDir, "0001.mp4")
	if err := os.WriteFile(safePath, []byte("chunk"), 0o600); err != nil {
		t.Fatal(err)
	}

	outsideDir := t.TempDir()
	outsidePath := filepath.Join(outsideDir, "secret.mp4")

	tests := []struct {
		name    string
		root    string
		target  string
		wantErr bool
	}{
		{
			name:    "valid absolute path",
			root:    tmpDir,
			target:  safePath,
			wantErr: false,
		},
		{
			name:    "outside absolute path",
			root:    tmpDir,
			target:  outsidePath,
			wantErr: true,
		},
		{
			name:    "relative path input rejected",
			root:    tmpDir,
			target:  "0001.mp4",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConfineAbsPath(tt.root, tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("ConfineAbsPath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsRegularFile(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "0001.mp4")
	if err := os.WriteFile(filePath, []byte("chunk"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := IsRegularFile(filePath); err != nil {
		t.Errorf("IsRegularFile(file) = %v, want nil", err)
	}
	if err := IsRegularFile(tmpDir); err == nil {
		t.Error("IsRegularFile(dir) = nil, want error")
	}
	if err := IsRegularFile(filepath.Join(tmpDir, "missing.mp4")); err == nil {
		t.Error("IsRegularFile(missing) = nil, want error")
	}
}
