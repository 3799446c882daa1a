package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned when the user abandons a prompt.
var ErrCancelled = errors.New("cancelled")

// Question is one field of a prompt sequence.
type Question struct {
	Key         string
	Prompt      string
	Placeholder string
	// Check rejects an answer. In the form it blocks moving on; in line mode it aborts.
	Check func(string) error
}

// Answers maps Question.Key to what was typed.
type Answers map[string]string

// IsInteractive reports whether stdin and stderr are terminals.
func IsInteractive() bool {
	in := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	out := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return in && out
}

// Ask runs the form on a terminal and falls back to line prompts otherwise.
func Ask(title string, qs []Question) (Answers, error) {
	if IsInteractive() {
		return AskForm(title, qs)
	}
	return AskLines(os.Stdin, os.Stderr, qs)
}

// AskLines prompts one question per line. The first failing Check aborts.
func AskLines(r io.Reader, w io.Writer, qs []Question) (Answers, error) {
	sc := bufio.NewScanner(r)
	answers := make(Answers, len(qs))
	for _, q := range qs {
		fmt.Fprintf(w, "%s ", q.Prompt)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, ErrCancelled
		}
		v := strings.TrimRight(sc.Text(), "\r")
		if q.Check != nil {
			if err := q.Check(v); err != nil {
				return nil, err
			}
		}
		answers[q.Key] = v
	}
	return answers, nil
}

type formModel struct {
	title     string
	questions []Question
	inputs    []textinput.Model
	focus     int
	errMsg    string
	done      bool
	cancelled bool
}

func newFormModel(title string, qs []Question) formModel {
	inputs := make([]textinput.Model, len(qs))
	for i, q := range qs {
		ti := textinput.New()
		ti.Prompt = "  "
		ti.Placeholder = q.Placeholder
		ti.CharLimit = 256
		ti.Width = 48
		inputs[i] = ti
	}
	if len(inputs) > 0 {
		inputs[0].Focus()
	}
	return formModel{title: title, questions: qs, inputs: inputs}
}

func (m formModel) Init() tea.Cmd { return textinput.Blink }

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "shift+tab", "up":
			return m.move(-1)
		case "tab", "down", "enter":
			q := m.questions[m.focus]
			if q.Check != nil {
				if err := q.Check(m.inputs[m.focus].Value()); err != nil {
					m.errMsg = err.Error()
					return m, nil
				}
			}
			m.errMsg = ""
			if m.focus == len(m.inputs)-1 {
				if key.String() == "enter" {
					m.done = true
					return m, tea.Quit
				}
				return m, nil
			}
			return m.move(1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m formModel) move(delta int) (tea.Model, tea.Cmd) {
	next := m.focus + delta
	if next < 0 || next >= len(m.inputs) {
		return m, nil
	}
	m.inputs[m.focus].Blur()
	m.focus = next
	return m, m.inputs[m.focus].Focus()
}

func (m formModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n" + headerStyle.Render(m.title) + "\n\n")
	for i, q := range m.questions {
		label := dimStyle.Render(q.Prompt)
		if i == m.focus {
			label = promptStyle.Render(q.Prompt)
		}
		b.WriteString(label + "\n")
		b.WriteString(m.inputs[i].View() + "\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("  "+m.errMsg) + "\n\n")
	}
	b.WriteString(dimStyle.Render("  tab/enter next • shift+tab back • enter on last field saves • esc cancel"))
	return b.String()
}

func (m formModel) answers() Answers {
	out := make(Answers, len(m.questions))
	for i, q := range m.questions {
		out[q.Key] = m.inputs[i].Value()
	}
	return out
}

// AskForm shows all questions as a bubbletea form.
func AskForm(title string, qs []Question) (Answers, error) {
	p := tea.NewProgram(newFormModel(title, qs), tea.WithOutput(os.Stderr))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(formModel)
	if final.cancelled {
		return nil, ErrCancelled
	}
	return final.answers(), nil
}
