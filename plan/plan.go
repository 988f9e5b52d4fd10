// Package plan classifies the streams of a probed media file and builds
// the per-file transcode plan: which stream is re-encoded as the main
// video, which are copied, which are dropped, and the argument fragments
// handed to the encoder.
package plan

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"hevc-convert/probe"
	"hevc-convert/units"
)

// Codecs that already satisfy the conversion target; files whose main
// stream uses one of these are not re-encoded.
var modernVideoCodecs = map[string]bool{
	"hevc": true,
	"av1":  true,
}

// Audio codecs copied verbatim instead of being re-encoded.
var copyAudioCodecs = map[string]bool{
	"aac": true,
}

// TranscodePlan is the immutable result of classifying one probed file.
// MainArgs covers the chosen video stream (filters, map, encoder);
// CopyArgs covers every kept secondary stream in original order. Both are
// token sequences joined into an encoder command only at the process
// boundary.
type TranscodePlan struct {
	MainCodec      string
	MainBitrate    int64
	MainFPS        float64
	MainResolution string
	MainDuration   string
	MainArgs       []string
	CopyArgs       []string
	Description    string
	Valid          bool
}

// NeedsConvert reports whether the plan's main stream should be
// re-encoded, i.e. it is not already in a modern codec.
func (p *TranscodePlan) NeedsConvert() bool {
	return p.MainCodec != "" && !modernVideoCodecs[p.MainCodec]
}

// DurationSeconds returns the main duration as seconds, 0 when unknown.
func (p *TranscodePlan) DurationSeconds() float64 {
	sec, err := units.ClockToSeconds(p.MainDuration)
	if err != nil {
		return 0
	}
	return sec
}

// Checker probes files and derives transcode plans from the results.
type Checker struct {
	Prober     *probe.Prober
	VideoCodec string // encoder for the main stream, e.g. "hevc_amf"
	AudioCodec string // target for non-copyable audio, e.g. "aac"
	MaxFPS     float64
	TargetFPS  int
	MaxWidth   int
	MaxHeight  int
	log        zerolog.Logger
}

// NewChecker returns a Checker with the hardware HEVC defaults.
func NewChecker(p *probe.Prober, log zerolog.Logger) *Checker {
	return &Checker{
		Prober:     p,
		VideoCodec: "hevc_amf",
		AudioCodec: "aac",
		MaxFPS:     32,
		TargetFPS:  30,
		MaxWidth:   1920,
		MaxHeight:  1080,
		log:        log.With().Str("component", "plan").Logger(),
	}
}

// Check stats and probes path, then classifies the result. A missing or
// empty file yields ErrNotFound; a failed probe yields *probe.Error with
// the tool's diagnostic text; classification failures come back as an
// invalid plan plus a typed error. None of these abort the batch.
func (c *Checker) Check(ctx context.Context, path string) (*TranscodePlan, error) {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		return &TranscodePlan{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	doc, err := c.Prober.Run(ctx, path, fi.Size())
	if err != nil {
		return &TranscodePlan{}, err
	}
	return c.Classify(doc)
}

// Classify walks the document's streams in order and builds the plan.
// Three independent per-type counters provide the 0-based in-type indices
// used by ffmpeg stream specifiers. The first video stream whose codec is
// not mjpeg becomes the main stream; everything after it is secondary.
func (c *Checker) Classify(doc *probe.Document) (*TranscodePlan, error) {
	p := &TranscodePlan{}
	var desc strings.Builder
	var filters []string
	scaled := false
	iV, iA, iS := 0, 0, 0

	for i := range doc.Streams {
		s := &doc.Streams[i]

		duration := c.streamDuration(s, doc)
		durSec := clockSeconds(duration)
		bitrate := streamBitrate(s, doc, durSec)

		if p.MainCodec == "" && s.CodecType == probe.TypeVideo && s.CodecName != "mjpeg" {
			p.MainCodec = s.CodecName
			p.MainBitrate = bitrate
			p.MainArgs = []string{
				"-map", fmt.Sprintf("0:v:%d", iV),
				fmt.Sprintf("-c:v:%d", iV), c.VideoCodec,
			}
			p.MainFPS = probe.StreamFPS(s, durSec)
			if p.MainFPS > c.MaxFPS {
				c.log.Debug().Float64("fps", p.MainFPS).Int("target", c.TargetFPS).Msg("reducing frame rate")
				filters = append(filters, fmt.Sprintf("fps=%d", c.TargetFPS))
			}

			p.MainResolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
			if len(p.MainResolution) < 5 {
				p.MainResolution = fmt.Sprintf("%dx%d", s.CodedWidth, s.CodedHeight)
			}
			if w, h := splitResolution(p.MainResolution); w > c.MaxWidth && h > c.MaxHeight {
				c.log.Debug().Str("resolution", p.MainResolution).Msgf("scaling to %dx%d", c.MaxWidth, c.MaxHeight)
				filters = append(filters,
					fmt.Sprintf("scale=%d:-1:force_original_aspect_ratio=decrease", c.MaxWidth),
					fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", c.MaxWidth, c.MaxHeight),
				)
				scaled = true
			}

			if p.MainBitrate == 0 || duration == "" || p.MainFPS == 0 {
				err := &IncompleteMetadataError{
					Codec:    p.MainCodec,
					Bitrate:  p.MainBitrate,
					Duration: duration,
					FPS:      p.MainFPS,
				}
				c.log.Warn().Err(err).Msg("main stream metadata incomplete")
				return p, err
			}
			p.MainDuration = duration
			fmt.Fprintf(&desc, "%s, %s:%s %s(%s), %s %s@%sfps %s\n",
				duration, s.CodecType, s.CodecName, s.PixFmt, s.FieldOrder,
				s.DisplayAspectRatio, p.MainResolution, formatFPS(p.MainFPS),
				units.BitrateLabel(p.MainBitrate))
			iV++
			continue
		}

		switch s.CodecType {
		case probe.TypeVideo:
			if s.PixFmt != "yuv420p" {
				// No pixel-format conversion attempted for secondary video.
				c.log.Debug().Int("stream", i).Str("codec", s.CodecName).Str("pix_fmt", s.PixFmt).Msg("dropping secondary video stream")
			} else {
				p.CopyArgs = append(p.CopyArgs,
					"-map", fmt.Sprintf("0:v:%d", iV),
					fmt.Sprintf("-c:v:%d", iV), "copy",
				)
			}
			iV++

		case probe.TypeAudio:
			if copyAudioCodecs[s.CodecName] {
				p.CopyArgs = append(p.CopyArgs,
					"-map", fmt.Sprintf("0:a:%d", iA),
					fmt.Sprintf("-c:a:%d", iA), "copy",
				)
			} else {
				p.CopyArgs = append(p.CopyArgs,
					"-map", fmt.Sprintf("0:a:%d", iA),
					fmt.Sprintf("-c:a:%d", iA), c.AudioCodec,
					"-async", "1",
					"-apad", "1",
				)
			}
			fmt.Fprintf(&desc, "%s:%s %s %s %s\n",
				s.CodecType, s.CodecName, s.SampleRate, s.ChannelLayout,
				units.BitrateLabel(bitrate))
			iA++

		case probe.TypeSubtitle:
			// Copied verbatim regardless of codec; bitmap subtitles may
			// still fail at mux time for containers that reject them.
			p.CopyArgs = append(p.CopyArgs,
				"-map", fmt.Sprintf("0:s:%d", iS),
				fmt.Sprintf("-c:s:%d", iS), "copy",
			)
			fmt.Fprintf(&desc, "%s:%s %s\n", s.CodecType, s.CodecName, units.BitrateLabel(bitrate))
			iS++

		case probe.TypeData:
			if s.CodecName == "bin_data" {
				c.log.Debug().Int("stream", i).Msg("dropping bin_data stream")
				continue
			}
			c.log.Warn().Int("stream", i).Str("codec", s.CodecName).Str("type", s.CodecType).Msg("unknown stream dropped")

		default:
			c.log.Warn().Int("stream", i).Str("codec", s.CodecName).Str("type", s.CodecType).Msg("unknown stream dropped")
		}
	}

	if len(filters) > 0 {
		p.MainArgs = append([]string{"-vf", strings.Join(filters, ",")}, p.MainArgs...)
		if scaled {
			p.MainArgs = append(p.MainArgs, "-s", fmt.Sprintf("%dx%d", c.MaxWidth, c.MaxHeight))
		}
	}

	p.Description = desc.String()
	p.Valid = p.MainCodec != "" && p.MainBitrate != 0 && p.MainFPS != 0 &&
		p.MainResolution != "" && p.MainDuration != "" &&
		len(p.MainArgs) > 0 && len(p.CopyArgs) > 0
	return p, nil
}

// streamDuration resolves a stream's duration: the stream's own duration
// field (truncated to whole seconds) wins, then the extractor chain.
func (c *Checker) streamDuration(s *probe.Stream, doc *probe.Document) string {
	if sec, err := strconv.ParseFloat(strings.TrimSpace(s.Duration), 64); err == nil && int64(sec) > 0 {
		return units.SecondsToClock(float64(int64(sec)))
	}
	return probe.StreamDuration(s, doc)
}

// streamBitrate resolves a stream's bitrate: the stream's own bit_rate
// field wins, then the extractor chain.
func streamBitrate(s *probe.Stream, doc *probe.Document, durSec float64) int64 {
	if br, err := strconv.ParseInt(strings.TrimSpace(s.BitRate), 10, 64); err == nil && br > 0 {
		return br
	}
	return probe.StreamBitrate(s, doc, durSec)
}

func clockSeconds(clock string) float64 {
	sec, err := units.ClockToSeconds(clock)
	if err != nil {
		return 0
	}
	return sec
}

func splitResolution(res string) (w, h int) {
	parts := strings.SplitN(res, "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	w, _ = strconv.Atoi(parts[0])
	h, _ = strconv.Atoi(parts[1])
	return w, h
}

func formatFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
