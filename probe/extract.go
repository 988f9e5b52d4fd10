package probe

import (
	"math"
	"strconv"
	"strings"

	"hevc-convert/units"
)

// The extractors below resolve duration, bitrate and frame rate for one
// stream from whichever metadata source happens to be populated. Each is
// an ordered fallback chain; the order is load-bearing and must not be
// rearranged.

// StreamDuration derives a clock-formatted duration for s, or "" when no
// source yields one. The chain branches by codec type:
//
//	video:    DURATION-eng tag, DURATION tag, frame count / avg fps,
//	          container duration
//	audio:    DURATION-eng tag, DURATION tag, byte count * 8 / BPS tag,
//	          container duration, frame count * time base
//	subtitle: DURATION-eng tag only
//
// Other codec types always report unknown.
func StreamDuration(s *Stream, doc *Document) string {
	switch s.CodecType {
	case TypeVideo:
		if d := s.Tag("DURATION-eng"); d != "" {
			return d
		}
		if d := s.Tag("DURATION"); d != "" {
			return d
		}
		frames := s.TagInt("NUMBER_OF_FRAMES-eng")
		if fps := int64(parseRational(s.AvgFrameRate)); frames > 0 && fps > 0 {
			return units.SecondsToClock(float64(frames) / float64(fps))
		}
		if sec := parseDecimal(doc.Format.Duration); sec > 0 {
			return units.SecondsToClock(sec)
		}

	case TypeAudio:
		if d := s.Tag("DURATION-eng"); d != "" {
			return d
		}
		if d := s.Tag("DURATION"); d != "" {
			return d
		}
		bps := s.TagInt("BPS-eng")
		if nbytes := s.TagInt("NUMBER_OF_BYTES-eng"); bps > 0 && nbytes > 0 {
			return units.SecondsToClock(float64(nbytes) * 8 / float64(bps))
		}
		if sec := parseDecimal(doc.Format.Duration); sec > 0 {
			return units.SecondsToClock(sec)
		}
		frames := parseInt(s.NbFrames)
		if tb := parseRational(s.TimeBase); frames > 0 && tb > 0 {
			return units.SecondsToClock(float64(frames) * tb)
		}

	case TypeSubtitle:
		// Subtitle durations are only ever taken from the one tag; the
		// BPS/byte-count computation used for audio is not applied here.
		if d := s.Tag("DURATION-eng"); d != "" {
			return d
		}
	}
	return ""
}

// StreamBitrate derives a bits/second value for s: container bitrate,
// then the BPS-eng tag, then file size over duration. durationSec may be
// zero, in which case the stream's own duration_ts * time_base product is
// tried before the size-based computation.
func StreamBitrate(s *Stream, doc *Document, durationSec float64) int64 {
	if br := parseInt(doc.Format.BitRate); br > 0 {
		return br
	}
	if br := s.TagInt("BPS-eng"); br > 0 {
		return br
	}
	if durationSec == 0 && s.DurationTS > 0 {
		durationSec = float64(s.DurationTS) * parseRational(s.TimeBase)
	}
	if durationSec > 0 {
		return int64(float64(doc.Size) * 8 / durationSec)
	}
	return 0
}

// StreamFPS derives a frame rate for s: r_frame_rate, then
// avg_frame_rate, then the frame-count tag divided by durationSec. Raw
// values are parsed as "num/den" rationals or plain decimals. The result
// is rounded to three decimals unless it is whole; 0 means unknown.
func StreamFPS(s *Stream, durationSec float64) float64 {
	if fps := parseRational(s.RFrameRate); fps > 0 {
		return roundFPS(fps)
	}
	if fps := parseRational(s.AvgFrameRate); fps > 0 {
		return roundFPS(fps)
	}
	frames := s.TagInt("NUMBER_OF_FRAMES-eng")
	if frames > 0 && durationSec > 0 {
		return roundFPS(float64(frames) / durationSec)
	}
	return 0
}

// parseRational reads "num/den" or a plain decimal; 0 on anything else,
// including a zero denominator.
func parseRational(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if i := strings.IndexByte(s, '/'); i != -1 {
		num, err1 := strconv.ParseFloat(s[:i], 64)
		den, err2 := strconv.ParseFloat(s[i+1:], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0
		}
		return num / den
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func roundFPS(fps float64) float64 {
	if fps == math.Trunc(fps) {
		return fps
	}
	return math.Round(fps*1000) / 1000
}

func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}
