package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

var (
	output   io.Writer = os.Stdout
	Progress           = progressCreate(-1, "") // init as spinner
)

// SetOutput redirects all the following bars, io.Discard hides them.
func SetOutput(w io.Writer) {
	output = w
	Progress = progressCreate(-1, "")
}

// ProgressReset starts a new bar, max <= 0 gives a spinner
func ProgressReset(max int, desc string) {
	if max <= 0 {
		max = -1
	}
	Progress = progressCreate(max, desc)
}

func Add(n int) {
	_ = Progress.Add(n)
}

func Finish() {
	_ = Progress.Finish()
}

func progressCreate(max int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(output),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(output, "\n")
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]/[reset]",
			SaucerHead:    "[green]/[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
