package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	p := Current()
	assert.Equal(t, runtime.GOOS, p.OS)
	assert.Equal(t, runtime.GOARCH, p.Arch)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{in: "linux/amd64", want: Platform{OS: "linux", Arch: "amd64"}},
		{in: "macOS/aarch64", want: Platform{OS: "darwin", Arch: "arm64"}},
		{in: "linux", want: Platform{OS: "linux", Arch: Any}},
		{in: "any", want: Platform{OS: Any, Arch: Any}},
		{in: "any/x86_64", want: Platform{OS: Any, Arch: "amd64"}},
		{in: "", wantErr: true},
		{in: "/amd64", wantErr: true},
		{in: "linux/", wantErr: true},
		{in: "linux/amd64/v3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatches(t *testing.T) {
	linux := Platform{OS: "linux", Arch: "amd64"}
	tests := []struct {
		name   string
		target Platform
		want   bool
	}{
		{"exact", Platform{OS: "linux", Arch: "amd64"}, true},
		{"any os", Platform{OS: Any, Arch: "amd64"}, true},
		{"any arch", Platform{OS: "linux", Arch: Any}, true},
		{"os mismatch", Platform{OS: "darwin", Arch: "amd64"}, false},
		{"arch mismatch", Platform{OS: "linux", Arch: "386"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linux.Matches(tt.target))
			assert.Equal(t, tt.want, tt.target.Matches(linux))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "windows", NormalizeOS("Win"))
	assert.Equal(t, "freebsd", NormalizeOS(" FreeBSD "))
	assert.Equal(t, "386", NormalizeArch("i686"))
	assert.Equal(t, "arm", NormalizeArch("armv7l"))
	assert.Equal(t, "riscv64", NormalizeArch("riscv64"))
	assert.Equal(t, "linux/arm64", Platform{OS: "linux", Arch: "arm64"}.String())
}
