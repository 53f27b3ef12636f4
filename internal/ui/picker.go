package ui

import (
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"
	"golang.org/x/term"

	"github.com/cybre/holo-music-sync/internal/utils"
)

var (
	ErrSelectionAborted = eris.New("selection aborted")
	ErrNoInteractiveTTY = eris.New("no interactive terminal available")
)

type Option struct {
	Label string
}

// PickDevice asks for an input device for live capture. With interactive false the
// initial index is returned as is.
func PickDevice(devices []Option, initial int, interactive bool) (int, error) {
	if !interactive {
		return utils.ClampIndex(initial, len(devices)), nil
	}
	if !isInteractiveTerminal() {
		return 0, ErrNoInteractiveTTY
	}

	finalModel, err := tea.NewProgram(newPickerModel(devices, initial)).Run()
	if err != nil {
		return 0, eris.Wrap(err, "run device picker")
	}

	result := finalModel.(pickerModel)
	if result.err != nil {
		return 0, result.err
	}
	return utils.ClampIndex(result.selected, len(devices)), nil
}

type pickerStep int

const (
	stepSelectDevice pickerStep = iota
	stepConfirm
	stepDone
)

type pickerModel struct {
	step     pickerStep
	devices  []Option
	cursor   int
	selected int
	err      error
}

func newPickerModel(devices []Option, initial int) pickerModel {
	initial = utils.ClampIndex(initial, len(devices))
	m := pickerModel{devices: devices, cursor: initial, selected: initial}
	if len(devices) == 0 {
		m.step = stepConfirm
	}
	return m
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.step == stepDone {
		return m, tea.Quit
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc", "q":
		m.err = ErrSelectionAborted
		return m, tea.Quit
	case "up", "k":
		if m.step == stepSelectDevice {
			m.cursor = wrapIndex(m.cursor-1, len(m.devices))
		}
	case "down", "j":
		if m.step == stepSelectDevice {
			m.cursor = wrapIndex(m.cursor+1, len(m.devices))
		}
	case "tab", "right", "l":
		if m.step == stepSelectDevice {
			m.selected = m.cursor
			m.step = stepConfirm
		}
	case "shift+tab", "left", "h", "backspace", "b":
		if m.step == stepConfirm && len(m.devices) > 0 {
			m.step = stepSelectDevice
			m.cursor = m.selected
		}
	case "enter":
		switch m.step {
		case stepSelectDevice:
			m.selected = m.cursor
			m.step = stepConfirm
		case stepConfirm:
			if len(m.devices) == 0 {
				m.err = ErrSelectionAborted
			}
			m.step = stepDone
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m pickerModel) View() string {
	switch m.step {
	case stepSelectDevice:
		return renderDeviceView(m)
	case stepConfirm:
		return renderSummaryView(m)
	default:
		return ""
	}
}

func renderDeviceView(m pickerModel) string {
	lines := []string{
		"",
		titleStyle.Render("Select an audio input device"),
		subtitleStyle.Render("No track given; the visualizer will listen live."),
		"",
		renderOptionList(m.devices, m.cursor),
		"",
		renderInstructions([]string{"↑/k ↓/j move", "enter confirm", "esc cancel"}),
		"",
	}
	return strings.Join(lines, "\n")
}

func renderSummaryView(m pickerModel) string {
	lines := []string{
		"",
		titleStyle.Render("Ready to listen"),
		"",
		renderSummaryRow("Device", m.selectedLabel()),
		"",
		renderInstructions([]string{"enter start", "←/h/b/backspace edit", "esc cancel"}),
		"",
	}
	return strings.Join(lines, "\n")
}

func (m pickerModel) selectedLabel() string {
	if m.selected >= 0 && m.selected < len(m.devices) {
		return m.devices[m.selected].Label
	}
	return "not selected"
}

func renderPointer(active bool) string {
	if active {
		return pointerStyle.Render("›")
	}
	return inactivePointerStyle.Render(" ")
}

func renderOptionLabel(text string, active bool) string {
	if active {
		return selectedItemStyle.Render(text)
	}
	return itemStyle.Render(text)
}

func renderOptionList(items []Option, cursor int) string {
	if len(items) == 0 {
		return emptyStateStyle.Render("No input devices detected")
	}

	rows := make([]string, len(items))
	for i, item := range items {
		rows[i] = lipgloss.JoinHorizontal(lipgloss.Left,
			renderPointer(cursor == i),
			" ",
			renderOptionLabel(item.Label, cursor == i),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderInstructions(parts []string) string {
	if len(parts) == 0 {
		return ""
	}

	var segments []string
	for i, part := range parts {
		if i > 0 {
			segments = append(segments, instructionDividerStyle.Render(" · "))
		}
		segments = append(segments, renderInstruction(part))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, segments...)
}

// renderInstruction highlights every token but the last, which names the action.
func renderInstruction(part string) string {
	tokens := strings.Fields(part)
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return instructionTextStyle.Render(tokens[0])
	}

	keys := instructionKeyStyle.Render(strings.Join(tokens[:len(tokens)-1], " "))
	return keys + instructionTextStyle.Render(" "+tokens[len(tokens)-1])
}

func renderSummaryRow(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		summaryLabelStyle.Render(label+": "),
		summaryValueStyle.Render(value),
	)
}

func wrapIndex(idx, length int) int {
	if length <= 0 {
		return 0
	}
	idx = idx % length
	if idx < 0 {
		idx += length
	}
	return idx
}

func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
