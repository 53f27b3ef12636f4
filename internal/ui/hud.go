package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cybre/holo-music-sync/internal/controller"
	"github.com/cybre/holo-music-sync/internal/dsp"
	"github.com/cybre/holo-music-sync/internal/mapping"
	"github.com/cybre/holo-music-sync/internal/utils"
)

const hudBarWidth = 32

// maxBoost is the top of the intensity boost range.
const maxBoost = 20.0

type barTheme struct {
	LabelStyle lipgloss.Style
	ValueStyle lipgloss.Style
	EmptyStyle lipgloss.Style

	HueStart   float64
	HueEnd     float64
	Saturation float64
	ValueBase  float64
	ValueSpan  float64

	FilledChar string
	EmptyChar  string
}

var defaultBarTheme = barTheme{
	LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
	HueStart:   210,
	HueEnd:     210,
	Saturation: 0.8,
	ValueBase:  0.35,
	ValueSpan:  0.45,
	FilledChar: "█",
	EmptyChar:  "░",
}

var hudThemes = map[string]barTheme{
	"Sub": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		HueStart:   330,
		HueEnd:     360,
		Saturation: 0.9,
		ValueBase:  0.4,
		ValueSpan:  0.55,
	},
	"Low": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		HueStart:   25,
		HueEnd:     45,
		Saturation: 0.92,
		ValueBase:  0.4,
		ValueSpan:  0.5,
	},
	"Mid": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   55,
		HueEnd:     75,
		Saturation: 0.9,
		ValueBase:  0.35,
		ValueSpan:  0.55,
	},
	"High": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("123")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   210,
		HueEnd:     240,
		Saturation: 0.85,
		ValueBase:  0.35,
		ValueSpan:  0.5,
	},
	"Boost": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("177")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   285,
		HueEnd:     315,
		Saturation: 0.95,
		ValueBase:  0.4,
		ValueSpan:  0.5,
	},
}

func renderBars(stats controller.FrameStats) string {
	e := stats.Energies
	lines := []string{
		renderBar("Sub", e.Sub, hudThemes["Sub"]),
		renderBar("Low", e.Low, hudThemes["Low"]),
		renderBar("Mid", e.Mid, hudThemes["Mid"]),
		renderBar("High", e.High, hudThemes["High"]),
		renderBar("Boost", boostLevel(stats.Targets.Boost), hudThemes["Boost"]),
	}
	return strings.Join(lines, "\n")
}

// boostLevel places a boost multiplier on the 1..20 scale as 0..1.
func boostLevel(boost float64) float64 {
	return utils.MapLinear(boost, 1, maxBoost, 0, 1)
}

func renderBar(label string, value float64, theme barTheme) string {
	theme = normalizeBarTheme(theme)

	clamped := utils.Clamp(value, 0.0, 1.0)
	filled := int(math.Round(clamped * hudBarWidth))
	if clamped > 0 && filled == 0 {
		filled = 1
	}
	filled = min(filled, hudBarWidth)

	builder := strings.Builder{}
	builder.Grow(128)
	builder.WriteString(theme.LabelStyle.Render(fmt.Sprintf("%-6s", label)))
	builder.WriteString(" [")

	steps := max(filled-1, 1)
	for i := range filled {
		progress := float64(i) / float64(steps)
		hue := theme.HueStart + (theme.HueEnd-theme.HueStart)*progress
		value := utils.Clamp(theme.ValueBase+theme.ValueSpan*progress, 0.0, 1.0)
		color := lipgloss.Color(hexColorFromHSV(hue, theme.Saturation, value))
		builder.WriteString(lipgloss.NewStyle().Foreground(color).Render(theme.FilledChar))
	}

	if empty := hudBarWidth - filled; empty > 0 {
		builder.WriteString(theme.EmptyStyle.Render(strings.Repeat(theme.EmptyChar, empty)))
	}

	builder.WriteString("] ")
	builder.WriteString(theme.ValueStyle.Render(fmt.Sprintf("%3.0f%%", clamped*100)))

	return builder.String()
}

func normalizeBarTheme(theme barTheme) barTheme {
	if theme.FilledChar == "" {
		theme.FilledChar = defaultBarTheme.FilledChar
	}
	if theme.EmptyChar == "" {
		theme.EmptyChar = defaultBarTheme.EmptyChar
	}
	if theme.Saturation <= 0 {
		theme.Saturation = defaultBarTheme.Saturation
	}
	if theme.ValueSpan <= 0 {
		theme.ValueSpan = defaultBarTheme.ValueSpan
	}
	if theme.ValueBase <= 0 {
		theme.ValueBase = defaultBarTheme.ValueBase
	}
	return theme
}

func renderMetric(label, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		metricLabelStyle.Render(label+":"),
		" ",
		metricValueStyle.Render(value),
	)
}

func renderMetrics(stats controller.FrameStats, beat dsp.Beat, composite bool) string {
	marker := boostInactiveStyle.Render("○")
	if stats.Targets.Boost > 1 {
		marker = boostActiveStyle.Render("●")
	}
	kick := boostInactiveStyle.Render("○")
	if beat.Onset {
		kick = boostActiveStyle.Render("●")
	}
	pipeline := "direct"
	if composite {
		pipeline = "composite"
	}

	return lipgloss.JoinHorizontal(lipgloss.Left,
		renderMetric("Drive", fmt.Sprintf("%6.3f", stats.DriveTime)),
		"   ",
		renderMetric("Focal", fmt.Sprintf("%4.1fmm", stats.Targets.FocalLength)),
		"   ",
		metricLabelStyle.Render("Flash:"), " ", marker,
		"   ",
		metricLabelStyle.Render("Beat:"), " ", kick, " ",
		metricValueStyle.Render(fmt.Sprintf("%.1f/s", beat.Density*4)),
		"   ",
		renderMetric("Render", pipeline),
	)
}

// lightSummary reports the mapped light intensities.
func lightSummary(t mapping.Targets) string {
	return renderMetric("Lights", fmt.Sprintf("front %5.2f  back %5.2f", t.FrontIntensity, t.BackIntensity))
}
