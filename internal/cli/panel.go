package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/rig"
	"github.com/matzehuels/riglink/pkg/scene"
)

// panelCommand creates the interactive panel command.
func (c *CLI) panelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "panel <scene>",
		Short: "Rig a scene interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				s, err := ws.scenes.Load(ctx, args[0])
				if err != nil {
					return err
				}
				// Log lines would tear the alternate screen.
				level := c.Logger.GetLevel()
				c.Logger.SetLevel(LogError)
				defer c.Logger.SetLevel(level)

				_, err = tea.NewProgram(newPanelModel(ctx, ws, s), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
				return err
			})
		},
	}
}

// =============================================================================
// PanelModel - Interactive rigging
// =============================================================================

// sceneMsg carries the scene after an action and a status line.
type sceneMsg struct {
	scene  *scene.Scene
	status string
}

// errMsg reports a failed action.
type errMsg struct{ err error }

// panelModel is the bubbletea model of `riglink panel`. Actions run as
// commands against the store and answer with a sceneMsg.
type panelModel struct {
	ctx   context.Context
	ws    *workspace
	scene *scene.Scene
	kinds []controller.Kind

	cursor int
	offset int
	height int
	kind   int

	status string
	err    error
}

func newPanelModel(ctx context.Context, ws *workspace, s *scene.Scene) panelModel {
	return panelModel{
		ctx:    ctx,
		ws:     ws,
		scene:  s,
		kinds:  controller.Kinds(),
		height: 15,
	}
}

func (m panelModel) Init() tea.Cmd {
	return nil
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.scene.Layers())-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "tab":
			m.kind = (m.kind + 1) % len(m.kinds)
		case " ":
			return m, m.toggleSelection()
		case "n":
			return m, m.createController()
		case "enter", "b":
			return m, m.bind()
		case "x":
			return m, m.cleanup()
		case "u":
			return m, m.undo()
		}
	case sceneMsg:
		m.scene = msg.scene
		m.status = msg.status
		if n := len(m.scene.Layers()); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		m.offset = min(m.offset, m.cursor)
	case errMsg:
		m.err = msg.err
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	}
	return m, nil
}

func (m panelModel) currentKind() controller.Kind {
	return m.kinds[m.kind]
}

// apply runs fn on a freshly loaded scene and saves it under step.
func (m panelModel) apply(step string, fn func(*scene.Scene) (string, error)) tea.Cmd {
	name := m.scene.Name()
	return func() tea.Msg {
		var status string
		s, err := m.ws.update(m.ctx, name, step, func(s *scene.Scene) error {
			var err error
			status, err = fn(s)
			return err
		})
		if err != nil {
			return errMsg{err}
		}
		return sceneMsg{scene: s, status: status}
	}
}

func (m panelModel) toggleSelection() tea.Cmd {
	layers := m.scene.Layers()
	if len(layers) == 0 {
		return nil
	}
	id := layers[m.cursor].ID
	return m.apply("", func(s *scene.Scene) (string, error) {
		var ids []string
		toggled := true
		for _, l := range s.Selected() {
			if l.ID == id {
				toggled = false
				continue
			}
			ids = append(ids, l.ID)
		}
		if toggled {
			ids = append(ids, id)
		}
		return fmt.Sprintf("%d selected", len(ids)), s.Select(ids...)
	})
}

func (m panelModel) createController() tea.Cmd {
	kind := m.currentKind()
	return m.apply(fmt.Sprintf("Create %s controller", kind.Name), func(s *scene.Scene) (string, error) {
		ctrl, err := m.ws.runner.CreateController(m.ctx, s, kind.Name)
		if err != nil {
			return "", err
		}
		if !ctrl.Created {
			return "Reusing " + ctrl.Name, nil
		}
		return "Created " + ctrl.Name, nil
	})
}

// bind applies the current kind. On a unique kind with the cursor on a
// controller, that controller is used.
func (m panelModel) bind() tea.Cmd {
	kind := m.currentKind()
	req := rig.ApplyRequest{Kind: kind.Name}
	if layers := m.scene.Layers(); kind.Naming == controller.NamingUnique && len(layers) > 0 {
		if l := layers[m.cursor]; m.ws.runner.Registry.IsController(l) {
			req.Controller = l.Name
		}
	}
	return m.apply(fmt.Sprintf("Apply %s formulas", kind.Name), func(s *scene.Scene) (string, error) {
		res, err := m.ws.runner.ApplyBinding(m.ctx, s, req)
		if err != nil {
			return "", err
		}
		status := fmt.Sprintf("Bound %d layers to %s", res.Applied, res.Controller)
		if n := len(res.Failures); n > 0 {
			status += fmt.Sprintf(", %d failed", n)
		}
		return status, nil
	})
}

func (m panelModel) cleanup() tea.Cmd {
	return m.apply("Clean up all controllers", func(s *scene.Scene) (string, error) {
		rep, err := m.ws.runner.Cleanup(m.ctx, s)
		if err != nil {
			return "", err
		}
		status := fmt.Sprintf("Cleaned %d layers, deleted %d controllers", rep.Cleaned, rep.Deleted)
		if n := len(rep.Failures); n > 0 {
			status += fmt.Sprintf(", %d failed", n)
		}
		return status, nil
	})
}

func (m panelModel) undo() tea.Cmd {
	name := m.scene.Name()
	return func() tea.Msg {
		s, step, err := m.ws.scenes.Undo(m.ctx, name)
		if err != nil {
			return errMsg{err}
		}
		return sceneMsg{scene: s, status: "Undid " + step}
	}
}

func (m panelModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.scene.Name()))
	b.WriteString("  ")
	for i, k := range m.kinds {
		if i == m.kind {
			b.WriteString(listSelectedStyle.Render("[" + k.Name + "]"))
		} else {
			b.WriteString(listDimStyle.Render(" " + k.Name + " "))
		}
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  space select  tab kind  n new controller  ⏎ bind  x clean up  u undo  q quit"))
	b.WriteString("\n\n")

	rows := layerRows(m.ws, m.scene)
	if len(rows) == 0 {
		b.WriteString(listDimStyle.Render("  No layers"))
		b.WriteString("\n")
	} else {
		end := min(m.offset+m.height, len(rows))
		visible := make([][]string, 0, end-m.offset)
		for i := m.offset; i < end; i++ {
			cursor := "  "
			if i == m.cursor {
				cursor = "▸ "
			}
			visible = append(visible, append([]string{cursor}, rows[i]...))
		}
		b.WriteString(renderTable(
			[]string{"", "#", "Layer", "Kind", "3D", "Sel", "Position", "Scale"},
			visible,
			func(row int) bool { return m.offset+row == m.cursor },
		))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(rows))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + errors.UserMessage(m.err))
	case m.status != "":
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " " + m.status)
	}
	return b.String()
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)
