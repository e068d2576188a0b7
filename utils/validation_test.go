package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"traversal", "../../etc/passwd", "passwd"},
		{"windows_path", `C:\docs\notes.md`, "notes.md"},
		{"special_chars", "my<report>?.txt", "myreport.txt"},
		{"dots_only", "...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestHasAllowedExtension(t *testing.T) {
	allowed := []string{".pdf", ".txt", ".md"}
	assert.True(t, HasAllowedExtension("a.PDF", allowed))
	assert.True(t, HasAllowedExtension("notes.md", allowed))
	assert.False(t, HasAllowedExtension("tool.exe", allowed))
	assert.False(t, HasAllowedExtension("README", allowed))
	assert.Equal(t, ".txt", Extension("X.TXT"))
}

func TestVerifyFileExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	assert.True(t, VerifyFileExists(dir, "f.txt"))
	assert.False(t, VerifyFileExists(dir, "sub"))
	assert.False(t, VerifyFileExists(dir, "missing.txt"))
}

func TestGenerateStoreID(t *testing.T) {
	id := GenerateStoreID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, GenerateStoreID())
}
