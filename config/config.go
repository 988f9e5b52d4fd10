package config

// Profile represents a named conversion profile
type Profile string

const (
	ProfileDefault Profile = "default" // Balanced hardware encode
	ProfileQuality Profile = "quality" // Slower analysis, better quality
	ProfileSpeed   Profile = "speed"   // Fastest encode, larger files
)

// AvailableProfiles returns all available profile names
func AvailableProfiles() []Profile {
	return []Profile{ProfileDefault, ProfileQuality, ProfileSpeed}
}

// Config holds the converter configuration settings
type Config struct {
	// Profile name for display purposes
	ProfileName Profile
	// FFmpeg and FFprobe binary names or paths
	FFmpeg  string
	FFprobe string
	// HWAccel selects the hardware decode backend passed to ffmpeg
	HWAccel string
	// Quality is the AMF quality preset (speed, balanced, quality)
	Quality string
	// RateControl is the AMF rate-control mode
	RateControl string
	// LookaheadDepth is the pre-analysis lookahead buffer depth in frames
	LookaheadDepth int
	// KeepOld keeps source files after a verified conversion
	KeepOld bool
	// NrConvert stops the batch after this many conversion attempts
	// (0 = check only, negative = unlimited)
	NrConvert int
	// MinSize skips source files smaller than this many bytes
	MinSize int64
	// UseProgressBar renders a live progress bar during encodes
	UseProgressBar bool
	// LogLevel is the zerolog level name (debug, info, warn, error)
	LogLevel string
	// ExitFile is checked between files; its presence stops the batch
	ExitFile string
}

// Extensions lists the container extensions considered for conversion.
var Extensions = []string{
	".mp4", ".avi", ".ts", ".mkv", ".asf", ".wmv", ".mov", ".flv", ".3gp", ".mxf",
}

// DefaultConfig returns the balanced profile defaults
func DefaultConfig() Config {
	return GetProfile(ProfileDefault)
}

// GetProfile returns the configuration for a specific profile
func GetProfile(profile Profile) Config {
	base := Config{
		ProfileName:    profile,
		FFmpeg:         "ffmpeg",
		FFprobe:        "ffprobe",
		HWAccel:        "d3d12va",
		Quality:        "balanced",
		RateControl:    "vbr_peak",
		LookaheadDepth: 40,
		KeepOld:        false,
		NrConvert:      1,
		MinSize:        512 * 1024 * 1024,
		UseProgressBar: false,
		LogLevel:       "debug",
		ExitFile:       "exit.txt",
	}

	switch profile {
	case ProfileQuality:
		base.Quality = "quality"
		base.LookaheadDepth = 60

	case ProfileSpeed:
		base.Quality = "speed"
		base.RateControl = "vbr_latency"
		base.LookaheadDepth = 20

	default: // ProfileDefault
	}

	return base
}

// ProfileDescription returns a human-readable description of a profile
func ProfileDescription(profile Profile) string {
	switch profile {
	case ProfileQuality:
		return "Quality (slower pre-analysis, deeper lookahead)"
	case ProfileSpeed:
		return "Speed (fastest encode, larger output)"
	default:
		return "Default balanced hardware encode"
	}
}
