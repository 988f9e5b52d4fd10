package encoder

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/rs/zerolog"

	"hevc-convert/progress"
)

// Session runs one ffmpeg conversion while streaming its stderr through a
// progress notifier. The child process is exclusively owned by the
// session: it is killed on unexpected streaming failures and left to
// finish on its own otherwise.
type Session struct {
	Bin      string
	Notifier *progress.Notifier
	Log      zerolog.Logger
}

// NewSession returns a Session for the given ffmpeg binary.
func NewSession(bin string, n *progress.Notifier, log zerolog.Logger) *Session {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Session{
		Bin:      bin,
		Notifier: n,
		Log:      log.With().Str("component", "encoder").Logger(),
	}
}

// Run executes ffmpeg with args and blocks until it exits. The stderr
// stream is fed to the notifier chunk by chunk; prompt answers flow back
// through the child's stdin. A user interrupt surfaces as ErrInterrupted,
// a non-zero exit as *EncodeFailure carrying the last diagnostic line.
func (s *Session) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, s.Bin, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	s.Notifier.BindStdin(stdin)

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		return fmt.Errorf("start %s: %w", s.Bin, err)
	}
	defer s.Notifier.Close()

	buf := make([]byte, 256)
	for {
		n, rerr := stderr.Read(buf)
		if n > 0 {
			s.Notifier.Feed(buf[:n])
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			// Not an orderly pipe close: take the child down and let the
			// failure propagate to stop the batch.
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			if ctx.Err() != nil {
				return ErrInterrupted
			}
			return fmt.Errorf("stream encoder output: %w", rerr)
		}
	}

	werr := cmd.Wait()
	if ctx.Err() != nil {
		s.Log.Warn().Msg("encode interrupted by user")
		return ErrInterrupted
	}
	if werr != nil {
		msg := s.Notifier.LastLine()
		if msg == "" {
			msg = werr.Error()
		}
		s.Log.Error().Str("detail", msg).Msg("encoder exited non-zero")
		return &EncodeFailure{Kind: FailExit, Msg: msg}
	}
	s.Log.Debug().Msg("encoder exited cleanly")
	return nil
}
