package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWithin(t *testing.T) {
	tmp := t.TempDir()
	safe := filepath.Join(tmp, "safe")
	outside := filepath.Join(tmp, "outside")
	require.NoError(t, os.MkdirAll(safe, 0755))
	require.NoError(t, os.MkdirAll(outside, 0755))
	link := filepath.Join(safe, "link")
	require.NoError(t, os.Symlink(outside, link))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file in dir", filepath.Join(safe, "plot.png"), false},
		{"new nested file", filepath.Join(safe, "a", "b", "plot.png"), false},
		{"dir itself", safe, false},
		{"dot dot", filepath.Join(safe, "..", "plot.png"), true},
		{"absolute elsewhere", "/etc/passwd", true},
		{"through symlink", filepath.Join(link, "plot.png"), true},
		{"symlink itself", link, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWithin(tt.path, safe)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	assert.NoError(t, ValidateOutputPath("session.png"))
	assert.NoError(t, ValidateOutputPath(filepath.Join(os.TempDir(), "session.png")))
	assert.Error(t, ValidateOutputPath("/proc/self/plot.png"))
}

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"matrix", "matrix"},
		{"oled.png", "oled.png"},
		{"../../etc/x", "etc_x"},
		{"my frame #1", "my_frame_1"},
		{"", "unnamed"},
		{"...", "unnamed"},
		{"café-01.png", "caf_-01.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), "input %q", tt.in)
	}
}
