package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"hevc-convert/batch"
	"hevc-convert/config"
	"hevc-convert/plan"
	"hevc-convert/probe"
	"hevc-convert/progress"
	"hevc-convert/tui"
)

func main() {
	// Define flags
	profileFlag := flag.String("profile", "default", "Conversion profile: default, quality, speed")
	listProfiles := flag.Bool("list-profiles", false, "List all available profiles and exit")
	keepOld := flag.Bool("keep-old", false, "Keep source files after a verified conversion")
	nrConvert := flag.Int("nr-convert", 1, "Stop after this many conversion attempts (0 = check only, negative = unlimited)")
	minSize := flag.Int64("min-size", 512, "Skip source files smaller than this many MiB")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (default per profile)")
	logFile := flag.String("log-file", "hevc-convert.log", "Log destination while the TUI owns the terminal")
	progressBar := flag.Bool("progress-bar", false, "Render a live progress bar during encodes")
	useTUI := flag.Bool("tui", false, "Run with the full-screen terminal interface")

	// Custom usage
	flag.Usage = func() {
		fmt.Println("Usage: hevc-convert [options] <directory>")
		fmt.Println()
		fmt.Println("Walks a directory tree and re-encodes H.264 video to HEVC with FFmpeg.")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Profiles:")
		for _, p := range config.AvailableProfiles() {
			fmt.Printf("  %-10s %s\n", p, config.ProfileDescription(p))
		}
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  hevc-convert /videos                         # Convert one file, then stop")
		fmt.Println("  hevc-convert -nr-convert=-1 /videos          # Convert everything")
		fmt.Println("  hevc-convert -nr-convert=0 /videos           # Check only, convert nothing")
		fmt.Println("  hevc-convert -profile=quality -tui /videos   # Quality profile with the TUI")
	}

	flag.Parse()

	// Handle --list-profiles
	if *listProfiles {
		fmt.Println("Available conversion profiles:")
		fmt.Println()
		for _, p := range config.AvailableProfiles() {
			cfg := config.GetProfile(p)
			fmt.Printf("  %s\n", p)
			fmt.Printf("    %s\n", config.ProfileDescription(p))
			fmt.Printf("    Quality: %s, Rate control: %s, Lookahead: %d\n",
				cfg.Quality, cfg.RateControl, cfg.LookaheadDepth)
			fmt.Println()
		}
		os.Exit(0)
	}

	// Check for source directory
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	root := args[0]
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: Source directory not found: %s\n", root)
		os.Exit(1)
	}

	// Parse profile
	profile := config.Profile(strings.ToLower(*profileFlag))
	validProfile := false
	for _, p := range config.AvailableProfiles() {
		if p == profile {
			validProfile = true
			break
		}
	}
	if !validProfile {
		fmt.Fprintf(os.Stderr, "Error: Unknown profile '%s'\n", *profileFlag)
		fmt.Fprintf(os.Stderr, "Available profiles: default, quality, speed\n")
		os.Exit(1)
	}

	cfg := config.GetProfile(profile)
	cfg.KeepOld = *keepOld
	cfg.NrConvert = *nrConvert
	cfg.MinSize = *minSize * 1024 * 1024
	cfg.UseProgressBar = *progressBar
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Unknown log level '%s'\n", cfg.LogLevel)
		os.Exit(1)
	}
	logOut := os.Stderr
	if *useTUI {
		// The alternate screen owns the terminal; keep logs out of it.
		f, ferr := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "Error: Cannot open log file %s: %v\n", *logFile, ferr)
			os.Exit(1)
		}
		logOut = f
		defer f.Close()
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: logOut, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()

	checker := plan.NewChecker(probe.NewProber(cfg.FFprobe, log), log)
	runner := batch.NewRunner(cfg, checker, log)

	if *useTUI {
		model := tui.NewModel(runner, root)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if cfg.UseProgressBar {
		runner.DisplayFactory = func() progress.Display {
			return progress.NewBar(os.Stderr)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := runner.Run(ctx, root); err != nil {
		log.Error().Err(err).Msg("batch aborted")
		os.Exit(1)
	}
}
