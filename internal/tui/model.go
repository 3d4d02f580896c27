// Package tui is the terminal host: a bubbletea program that feeds mouse
// and key events to the editor and draws its retained scene as text.
package tui

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flowboard/internal/canvas"
	"flowboard/internal/codec"
	"flowboard/internal/domain"
	"flowboard/internal/graph"
	"flowboard/internal/interaction"
	"flowboard/internal/service"
	"flowboard/internal/terminal"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#1E1E2E"))
	brandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3498DB"))
	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))
)

const helpLine = "1/2/3 new block · drag ○→○ connect · t edit text · d delete · +/- zoom · e export · y copy · q quit"

// Model is the bubbletea model of the terminal editor.
type Model struct {
	ctx       context.Context
	editor    *service.Editor
	scene     *canvas.Scene
	exportDir string
	clip      func(string) error

	// External editor for block text.
	editorCmd   string
	execProcess func(*exec.Cmd, tea.ExecCallback) tea.Cmd

	width, height int
	hoverCol      int
	hoverRow      int
	status        string
	err           error
}

// New builds a model over an editor whose renderer is scene.
func New(ctx context.Context, editor *service.Editor, scene *canvas.Scene, exportDir string) Model {
	return Model{
		ctx:       ctx,
		editor:    editor,
		scene:     scene,
		exportDir: exportDir,
		clip:      clipboard.WriteAll,
		status:    helpLine,

		editorCmd:   terminal.DefaultEditor(),
		execProcess: tea.ExecProcess,
	}
}

// Run starts the program on the alternate screen with mouse tracking.
func Run(ctx context.Context, editor *service.Editor, scene *canvas.Scene, exportDir string) error {
	p := tea.NewProgram(
		New(ctx, editor, scene, exportDir),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.Resize(float64(m.width)*CellWidth, float64(m.canvasRows())*CellHeight)
		return m, nil

	case tea.MouseMsg:
		m.hoverCol, m.hoverRow = msg.X, msg.Y
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case editDoneMsg:
		m.finishEdit(msg)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Type {
	case tea.MouseWheelUp:
		m.editor.Wheel(m.ctx, -1)
	case tea.MouseWheelDown:
		m.editor.Wheel(m.ctx, 1)
	case tea.MouseLeft:
		m.editor.PointerDown(m.ctx, m.pointer(msg.X, msg.Y))
	case tea.MouseMotion:
		m.editor.PointerMove(m.ctx, m.pointer(msg.X, msg.Y))
	case tea.MouseRelease:
		m.editor.PointerUp(m.ctx, m.pointer(msg.X, msg.Y))
	}
}

// pointer resolves a cell to a pointer event. The target is read from the
// scene under the editor lock so it matches what is on screen.
func (m *Model) pointer(col, row int) interaction.PointerEvent {
	ev := interaction.PointerEvent{Screen: cellCenter(col, row)}
	vs := m.editor.Viewport()
	m.editor.Inspect(func() {
		ev.Target = Locate(m.scene, vs, col, row)
	})
	return ev
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1":
		m.create(domain.KindIntro)
	case "2":
		m.create(domain.KindBody)
	case "3":
		m.create(domain.KindConclusion)
	case "+", "=":
		m.editor.Wheel(m.ctx, -1)
	case "-":
		m.editor.Wheel(m.ctx, 1)
	case "t", "enter":
		cmd := m.editHovered()
		return m, cmd
	case "d", "delete":
		m.deleteHovered()
	case "e":
		m.export()
	case "y":
		m.copyDocument()
	case "?":
		m.status = helpLine
	}
	return m, nil
}

func (m *Model) create(kind domain.BlockKind) {
	b, err := m.editor.CreateBlock(m.ctx, graph.NewBlock{Kind: kind})
	if err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf("created %s", b.Title)
}

func (m *Model) deleteHovered() {
	t := m.pointer(m.hoverCol, m.hoverRow).Target
	if t.Kind == interaction.TargetBackground {
		m.status = "nothing under the cursor"
		return
	}
	if m.editor.DeleteBlock(m.ctx, t.BlockID) {
		m.status = fmt.Sprintf("deleted block %d", t.BlockID)
	}
}

// editDoneMsg arrives when the external editor exits.
type editDoneMsg struct {
	session *terminal.Session
	err     error
}

// editHovered suspends the program and opens the hovered block's title and
// body in the user's editor.
func (m *Model) editHovered() tea.Cmd {
	t := m.pointer(m.hoverCol, m.hoverRow).Target
	if t.Kind == interaction.TargetBackground {
		m.status = "nothing under the cursor"
		return nil
	}
	b, ok := m.editor.Block(t.BlockID)
	if !ok {
		return nil
	}
	sess, err := terminal.Open(m.editorCmd, b.ID, b.Title, b.Body)
	if err != nil {
		m.err = err
		return nil
	}
	return m.execProcess(sess.Command(), func(err error) tea.Msg {
		return editDoneMsg{session: sess, err: err}
	})
}

func (m *Model) finishEdit(msg editDoneMsg) {
	defer msg.session.Close()
	if msg.err != nil {
		m.err = fmt.Errorf("editor: %w", msg.err)
		return
	}
	title, body, err := msg.session.Read()
	if err != nil {
		m.err = err
		return
	}
	id := msg.session.BlockID
	if !m.editor.RenameBlock(m.ctx, id, title) {
		m.status = fmt.Sprintf("block %d is gone", id)
		return
	}
	m.editor.SetBody(m.ctx, id, body)
	m.status = fmt.Sprintf("updated block %d", id)
}

func (m *Model) export() {
	doc, raw, err := m.editor.Export(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	rev, _ := doc.Revision()
	path := filepath.Join(m.exportDir, codec.FileName(rev))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		m.err = fmt.Errorf("write export: %w", err)
		return
	}
	log.Printf("[EDITOR] exported %s", path)
	m.status = "exported " + path
}

func (m *Model) copyDocument() {
	doc, err := m.editor.Document(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	raw, err := codec.Encode(doc)
	if err != nil {
		m.err = err
		return
	}
	if err := m.clip(string(raw)); err != nil {
		m.err = fmt.Errorf("clipboard: %w", err)
		return
	}
	m.status = "copied document to clipboard"
}

func (m Model) canvasRows() int {
	if m.height < 2 {
		return 1
	}
	return m.height - 1
}

func (m Model) View() string {
	vs := m.editor.Viewport()
	var rows []string
	m.editor.Inspect(func() {
		rows = Render(m.scene, vs, m.width, m.canvasRows())
	})

	var b strings.Builder
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n")
	b.WriteString(m.statusBar(vs))
	return b.String()
}

func (m Model) statusBar(vs domain.ViewportState) string {
	left := brandStyle.Render("flowboard") + " " + dimStyle.Render(fmt.Sprintf("%.0f%%", vs.Scale*100))
	msg := m.status
	if m.err != nil {
		msg = errStyle.Render(m.err.Error())
	}
	line := left + "  " + msg
	if w := m.width - lipgloss.Width(line); w > 0 {
		line += strings.Repeat(" ", w)
	}
	return statusBarStyle.Render(line)
}
