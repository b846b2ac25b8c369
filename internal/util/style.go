// BYZRA ⸻ internal/util/style.go
// CLI visual style, color roles, ornaments, and motion

package util

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

type ColorConfig struct {
	Colors struct {
		CHRM string
		HEAT string
		HOTP string
		GUNM string
		VBLK string
		CSTL string
	}
}

// ╭─ COLOR ROLES ───────────────────────────────╮
var (
	CHRM lipgloss.Color
	HEAT lipgloss.Color
	HOTP lipgloss.Color
	GUNM lipgloss.Color
	VBLK lipgloss.Color
	CSTL lipgloss.Color
)

// ╭─ STYLE DEFINITIONS ─────────────────────────╮
var (
	BRH lipgloss.Style
	LBL lipgloss.Style
	SUB lipgloss.Style
	NSH lipgloss.Style
	SHE lipgloss.Style
	SEC lipgloss.Style
	ORN lipgloss.Style
)

// console output; spinner and progress lines go here
var (
	Out   io.Writer = os.Stdout
	Quiet bool
)

func init() {
	applyColors(defaultColors())
}

// loads palette.toml from the usual places; defaults stay when none is found
func LoadTheme() bool {
	paths := []string{
		"palette.toml",
		"config/palette.toml",
		filepath.Join(os.Getenv("HOME"), ".photofix/config/palette.toml"),
	}

	for _, path := range paths {
		config := defaultColors()
		if _, err := toml.DecodeFile(path, &config); err == nil {
			applyColors(config)
			return true
		}
	}

	return false
}

func defaultColors() ColorConfig {
	var config ColorConfig
	config.Colors.CHRM = "#C0C0C0"
	config.Colors.HEAT = "#FF5C00"
	config.Colors.HOTP = "#FF007F"
	config.Colors.GUNM = "#444444"
	config.Colors.VBLK = "#121212"
	config.Colors.CSTL = "#88AABB"
	return config
}

func applyColors(config ColorConfig) {
	CHRM = lipgloss.Color(config.Colors.CHRM)
	HEAT = lipgloss.Color(config.Colors.HEAT)
	HOTP = lipgloss.Color(config.Colors.HOTP)
	GUNM = lipgloss.Color(config.Colors.GUNM)
	VBLK = lipgloss.Color(config.Colors.VBLK)
	CSTL = lipgloss.Color(config.Colors.CSTL)

	BRH = lipgloss.NewStyle().Foreground(HOTP).Bold(true)
	LBL = lipgloss.NewStyle().Foreground(HEAT).Bold(true)
	SUB = lipgloss.NewStyle().Foreground(GUNM)
	NSH = lipgloss.NewStyle().Foreground(CHRM).Bold(true)
	SHE = lipgloss.NewStyle().Foreground(CHRM).Bold(true).Underline(true)
	SEC = lipgloss.NewStyle().Foreground(CSTL).Bold(true)
	ORN = lipgloss.NewStyle().Foreground(GUNM).Bold(true)

	Ornament = ORN.Render("›")
	Divider = SUB.Render(strings.Repeat("─", 48))
}

// ╭─ ORNAMENT ──────────────────────────────────╮
var (
	Ornament string
	Divider  string
)

// ╭─ SPINNER ───────────────────────────────────╮
func SpinWhile[T any](label string, fn func() (T, error)) (T, error) {
	if Quiet {
		return fn()
	}

	s := spinner.New(spinner.WithSpinner(spinner.Meter))
	ticker := time.NewTicker(s.Spinner.FPS)
	defer ticker.Stop()

	type outcome struct {
		out T
		err error
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	result := make(chan outcome, 1)

	go func() {
		defer close(stopped)
		frame := 0
		frames := s.Spinner.Frames
		for {
			select {
			case <-ticker.C:
				fmt.Fprintf(Out, "\r%s %s", ORN.Render(frames[frame]), LBL.Render(label))
				frame = (frame + 1) % len(frames)
			case <-done:
				return
			}
		}
	}()

	go func() {
		out, err := fn()
		result <- outcome{out, err}
	}()

	res := <-result
	close(done)
	<-stopped
	ClearLine()
	return res.out, res.err
}

// ╭─ PROGRESS ──────────────────────────────────╮
// rewrites the current console line
func Progress(format string, args ...any) {
	if Quiet {
		return
	}
	fmt.Fprintf(Out, "\r%s", NSH.Render(fmt.Sprintf(format, args...)))
}

// ends a progress line
func ProgressDone() {
	if Quiet {
		return
	}
	fmt.Fprintln(Out)
}

func ClearLine() {
	if Quiet {
		return
	}
	fmt.Fprint(Out, "\r\033[K")
}

func SuccessSymbol() string {
	return LBL.Render("[✓]")
}

func WarningSymbol() string {
	return SEC.Render("[!]")
}

func InfoSymbol() string {
	return NSH.Render("[i]")
}

func ErrorSymbol() string {
	return BRH.Render("[X]")
}

// ╭─ CLEAR ─────────────────────────────────────╮
func Wiper() {
	if Quiet {
		return
	}
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "cls")
	} else {
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	cmd.Run()
}
