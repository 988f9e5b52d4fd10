// Package probe runs ffprobe against a media file and turns its JSON
// output into a Document, then derives duration, bitrate and frame rate
// from the inconsistent per-stream metadata ffprobe reports.
package probe

import (
	"strconv"
	"strings"
)

// Codec type strings as reported by ffprobe.
const (
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeSubtitle = "subtitle"
	TypeData     = "data"
)

// Stream mirrors one entry of ffprobe's "streams" array. Numeric fields
// that ffprobe reports as strings are kept raw; the extractors decide how
// to interpret them.
type Stream struct {
	Index              int               `json:"index"`
	CodecName          string            `json:"codec_name"`
	CodecType          string            `json:"codec_type"`
	PixFmt             string            `json:"pix_fmt"`
	Width              int               `json:"width"`
	Height             int               `json:"height"`
	CodedWidth         int               `json:"coded_width"`
	CodedHeight        int               `json:"coded_height"`
	Duration           string            `json:"duration"`
	BitRate            string            `json:"bit_rate"`
	RFrameRate         string            `json:"r_frame_rate"`
	AvgFrameRate       string            `json:"avg_frame_rate"`
	DurationTS         int64             `json:"duration_ts"`
	TimeBase           string            `json:"time_base"`
	NbFrames           string            `json:"nb_frames"`
	SampleRate         string            `json:"sample_rate"`
	ChannelLayout      string            `json:"channel_layout"`
	FieldOrder         string            `json:"field_order"`
	DisplayAspectRatio string            `json:"display_aspect_ratio"`
	Tags               map[string]string `json:"tags"`
}

// Tag returns the named tag or "" when the stream carries no tags.
func (s *Stream) Tag(key string) string {
	if s.Tags == nil {
		return ""
	}
	return s.Tags[key]
}

// TagInt parses the named tag as an integer, 0 when absent or malformed.
func (s *Stream) TagInt(key string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s.Tag(key)), 10, 64)
	return n
}

// Format mirrors ffprobe's container-level "format" object.
type Format struct {
	BitRate  string `json:"bit_rate"`
	Duration string `json:"duration"`
}

// Document is the parsed probe output for one file: the ordered stream
// list, the container format record, and the file size supplied by the
// caller from the filesystem (ffprobe's own size field is not used).
type Document struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`

	Size int64 `json:"-"`
}
