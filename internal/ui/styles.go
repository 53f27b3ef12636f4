package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/crazy3lf/colorconv"

	"github.com/cybre/holo-music-sync/internal/scene"
	"github.com/cybre/holo-music-sync/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)
	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))
	pointerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213"))
	inactivePointerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("219")).
				Bold(true)
	instructionKeyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("213")).
				Bold(true)
	instructionTextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))
	instructionDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("246"))
	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)
	emptyStateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

var (
	displayContainerStyle = lipgloss.NewStyle().Padding(0, 2)
	metricLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	metricValueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	boostActiveStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("197")).Bold(true)
	boostInactiveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	waitingStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	promptStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("219")).Bold(true)
	hintStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

func hexColorFromHSV(h, s, v float64) string {
	s = utils.Clamp(s, 0.0, 1.0)
	v = utils.Clamp(v, 0.0, 1.0)
	r, g, b, err := colorconv.HSVToRGB(h, s, v)
	if err != nil {
		return "#FFFFFF"
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// hexColorFromScene converts an overdrivable 0-255 scene colour, lifting very dark
// colours so the header stays readable.
func hexColorFromScene(c scene.Color) string {
	r, g, b := utils.ChannelByte(c.R), utils.ChannelByte(c.G), utils.ChannelByte(c.B)
	h, s, v := colorconv.RGBToHSV(r, g, b)
	return hexColorFromHSV(h, s, max(v, 0.45))
}
