// Package encoder assembles ffmpeg invocations from transcode plans and
// owns the encode session: process lifecycle, live progress streaming and
// post-encode verification.
package encoder

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"hevc-convert/config"
	"hevc-convert/plan"
)

const (
	sizeTier1 = 1 << 30
	sizeTier2 = 2 << 30
	sizeTier3 = 3 << 30
	sizeTier4 = 4 << 30
)

// outputMarker is inserted into converted file names before the extension.
const outputMarker = ".H265"

// BitrateFactor picks the target-bitrate multiplier by source size:
// larger files get squeezed harder.
func BitrateFactor(size int64) float64 {
	switch {
	case size > sizeTier4:
		return 0.6
	case size >= sizeTier3:
		return 0.65
	case size >= sizeTier2:
		return 0.7
	case size >= sizeTier1:
		return 0.75
	default:
		return 0.8
	}
}

// OutputPath derives the converted file's path from the source path: the
// marker segment goes before the extension, and containers with limited
// HEVC support are rewritten to .mp4.
func OutputPath(src string) string {
	ext := filepath.Ext(src)
	base := strings.TrimSuffix(src, ext)
	if ext != ".mp4" {
		ext = ".mp4"
	}
	return base + outputMarker + ext
}

// IsOutput reports whether path already carries the converted-file marker.
func IsOutput(path string) bool {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return strings.HasSuffix(base, outputMarker)
}

// BuildArgs constructs the full ffmpeg argument list for one conversion:
// hardware decode preamble, the plan's main-stream fragment, the AMF
// tuning block, size-tiered bitrate targets, then the plan's copy-stream
// fragment. The fragments are inserted as token sequences; nothing is
// shell-quoted because the command never passes through a shell.
func BuildArgs(cfg config.Config, p *plan.TranscodePlan, input, output string, srcSize int64) []string {
	factor := BitrateFactor(srcSize)
	target := int64(float64(p.MainBitrate) * factor)

	args := make([]string, 0, 64)
	args = append(args,
		"-hide_banner",
		"-loglevel", "error",
		"-stats",
		"-hwaccel", cfg.HWAccel,
		"-i", input,
	)
	args = append(args, p.MainArgs...)
	args = append(args,
		"-preanalysis", "true",
		"-quality", cfg.Quality,
		"-rc", cfg.RateControl,
		"-fps_mode", "passthrough",
		"-pix_fmt", "yuv420p",
		"-fflags", "+genpts",
		"-skip_frame", "1",
		"-high_motion_quality_boost_enable", "true",
		"-preencode", "true",
		"-pa_scene_change_detection_enable", "true",
		"-pa_scene_change_detection_sensitivity", "high",
		"-pa_static_scene_detection_enable", "true",
		"-pa_static_scene_detection_sensitivity", "high",
		"-pa_initial_qp_after_scene_change", "18",
		"-pa_max_qp_before_force_skip", "35",
		"-pa_caq_strength", "high",
		"-pa_frame_sad_enable", "true",
		"-pa_ltr_enable", "true",
		"-pa_paq_mode", "caq",
		"-pa_high_motion_quality_boost_mode", "auto",
		"-pa_lookahead_buffer_depth", strconv.Itoa(cfg.LookaheadDepth),
		"-vbaq", "true",
		"-pa_taq_mode", "2",
		"-profile:v", "main",
		"-b:v", fmt.Sprintf("%d", target),
		"-maxrate", fmt.Sprintf("%d", p.MainBitrate),
		"-bufsize", fmt.Sprintf("%d", p.MainBitrate*2),
	)
	args = append(args, p.CopyArgs...)
	args = append(args, output)
	return args
}
