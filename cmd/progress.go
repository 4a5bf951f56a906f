package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/naka-gawa/skills-radar/internal/usecase"
)

// newProgressBar returns a progress bar on stderr, or nil when stderr is not
// a terminal or debug logs would interleave with it.
func newProgressBar(total int, description string, logger *slog.Logger) usecase.Progress {
	if total <= 0 || !isatty.IsTerminal(os.Stderr.Fd()) || logger.Enabled(context.Background(), slog.LevelDebug) {
		return nil
	}
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
