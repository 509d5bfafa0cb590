package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerArt string

const fallbackWidth = 80

// RenderBanner returns the title art centred on the terminal.
func RenderBanner() string {
	return renderBanner(termWidth())
}

// renderBanner centres the art as one block so its lines stay aligned.
// A terminal narrower than the art gets it unpadded.
func renderBanner(width int) string {
	art := strings.TrimRight(bannerArt, "\n")
	if art == "" {
		return ""
	}
	block := bannerStyle.Render(art)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block) + "\n"
}

func termWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return w
}
