package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hevc-convert/config"
	"hevc-convert/plan"
)

func TestOutputPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/media/show.mp4", "/media/show.H265.mp4"},
		{"/media/show.mkv", "/media/show.H265.mp4"},
		{"/media/show.wmv", "/media/show.H265.mp4"},
		{"/media/dir.v2/some.file.avi", "/media/dir.v2/some.file.H265.mp4"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, OutputPath(c.in))
	}
}

func TestIsOutput(t *testing.T) {
	assert.True(t, IsOutput("/media/show.H265.mp4"))
	assert.False(t, IsOutput("/media/show.mp4"))
	assert.False(t, IsOutput("/media/H265/show.mkv"))
}

func TestBitrateFactor(t *testing.T) {
	const gib = 1 << 30
	cases := []struct {
		size int64
		want float64
	}{
		{100 * 1024 * 1024, 0.8},
		{gib - 1, 0.8},
		{gib, 0.75},
		{2 * gib, 0.7},
		{3 * gib, 0.65},
		{4 * gib, 0.65},
		{4*gib + 1, 0.6},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BitrateFactor(c.size), "size %d", c.size)
	}
}

func TestBuildArgs(t *testing.T) {
	cfg := config.DefaultConfig()
	p := &plan.TranscodePlan{
		MainBitrate: 4000000,
		MainArgs:    []string{"-map", "0:v:0", "-c:v:0", "hevc_amf"},
		CopyArgs:    []string{"-map", "0:a:0", "-c:a:0", "copy"},
	}

	args := BuildArgs(cfg, p, "/in.mkv", "/in.H265.mp4", 2<<30)

	require.NotEmpty(t, args)
	assert.Equal(t, "/in.H265.mp4", args[len(args)-1])
	assert.Contains(t, args, "-hwaccel")
	assert.Contains(t, args, "d3d12va")
	assert.Contains(t, args, "hevc_amf")

	// 2 GiB source lands in the 0.7 tier.
	assert.Contains(t, args, "-b:v")
	assert.Contains(t, args, "2800000")
	assert.Contains(t, args, "-maxrate")
	assert.Contains(t, args, "4000000")
	assert.Contains(t, args, "-bufsize")
	assert.Contains(t, args, "8000000")

	// The copy fragment comes after the tuning block, before the output.
	idxCopy := indexOf(args, "0:a:0")
	idxBufsize := indexOf(args, "-bufsize")
	assert.Greater(t, idxCopy, idxBufsize)
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
