package style

import (
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

// The console logger writes to stderr only, so stdout is never probed.
var (
	// Respect https://no-color.org/.
	noColor = os.Getenv("NO_COLOR") != ""

	isErrTTY   = isatty.IsTerminal(os.Stderr.Fd())
	isErrColor = isErrTTY && !noColor
)

func IsStderrTTY() bool { return isErrTTY }

func sgr(ms []int) string {
	if len(ms) == 0 {
		return "\033[0m"
	}
	var b strings.Builder
	_, _ = b.WriteString("\033[")
	for i, m := range ms {
		if i != 0 {
			_ = b.WriteByte(';')
		}
		_, _ = b.WriteString(strconv.FormatInt(int64(m), 10))
	}
	_ = b.WriteByte('m')
	return b.String()
}

// SE emits an SGR sequence when stderr supports color, nothing otherwise.
// Without arguments it resets the style.
func SE(ms ...int) string {
	if isErrColor {
		return sgr(ms)
	}
	return ""
}

func WithSE(s string, ms ...int) string { return SE(ms...) + s + SE() }
