package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/tkhr/codeview/internal/render"
	"github.com/tkhr/codeview/internal/tree"
)

const (
	footerHeight      = 1
	minContentWidth   = 20
	minTreePanelWidth = 18
	defaultTreeWidth  = 28

	// statusError is the status-bar indicator for a failed render.
	statusError = "ERROR"
)

var (
	treeBlurBorderColor  = lipgloss.Color("#3b4261")
	treeFocusBorderColor = lipgloss.Color("#7aa2f7")
	treeLineStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6"))
	treeSelectedActive   = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#1a1b26")).
				Background(lipgloss.Color("#7aa2f7")).
				Bold(true)
	treeSelectedInactive = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#c0caf5")).
				Background(lipgloss.Color("#283457"))
	helpBoxStyle = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Background(lipgloss.Color("#1f2335"))
	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(lipgloss.Color("#1f2335"))
	statusPathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6"))
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b")).Bold(true)
	statusMetaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// Model implements the Bubble Tea program for the code browser.
type Model struct {
	contentVP          viewport.Model
	treeVP             viewport.Model
	renderer           *render.Renderer
	keys               keyMap
	treeVisible        bool
	treePreferredWidth int
	treeContentWidth   int
	treeFocus          bool
	showHelp           bool
	pendingKey         string
	ready              bool
	width              int
	height             int
	err                error

	treeRoot      *tree.Node
	flatTree      []treeLine
	treeSelection int
	rootDir       string
	displayRoot   string

	activePath    string
	activeRelPath string
	statusText    string
	statusIsError bool
	language      string
	lineCount     int

	watcher *fsWatcher
}

type treeLine struct {
	entry *tree.Node
	label string
}

// NewModel constructs the browser model with the provided initial state.
func NewModel(state State) *Model {
	contentVP := viewport.New(0, 0)
	contentVP.Style = lipgloss.NewStyle().Padding(0, 1)
	contentVP.SetHorizontalStep(2)

	treeVP := viewport.New(0, 0)
	treeVP.Style = treePanelStyle(treeBlurBorderColor)
	treeVP.MouseWheelEnabled = false

	m := &Model{
		contentVP:          contentVP,
		treeVP:             treeVP,
		renderer:           render.New(state.Theme),
		keys:               defaultKeyMap,
		treeVisible:        state.TreeVisible && state.TreeRoot != nil,
		treePreferredWidth: state.TreePreferredWidth,
		treeRoot:           state.TreeRoot,
		rootDir:            state.RootDir,
		displayRoot:        state.DisplayRoot,
	}

	if m.treeRoot != nil {
		m.refreshTreeViewWithSelection(state.TreeSelectionPath)
	}
	m.updateTreePanelStyle()

	if state.FocusTree {
		m.focusTree()
	}

	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.rootDir == "" {
		return nil
	}
	return m.startWatchingRoot()
}

// View implements tea.Model.
func (m *Model) View() string {
	body := m.contentVP.View()
	if m.treeVisible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.treeVP.View(), body)
	}

	if m.err != nil {
		errLine := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b")).Render(m.err.Error())
		body = lipgloss.JoinVertical(lipgloss.Left, errLine, body)
	}

	if m.showHelp {
		helpOverlay := helpBoxStyle.Render(m.helpContent())
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, helpOverlay)
		}
		return helpOverlay
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar())
}

func (m *Model) helpContent() string {
	bindings := []key.Binding{
		m.keys.FocusTree, m.keys.FocusContent,
		m.keys.Up, m.keys.Down,
		m.keys.HalfPageUp, m.keys.HalfPageDown,
		m.keys.Top, m.keys.Bottom,
		m.keys.Left, m.keys.Right,
		m.keys.Open,
		m.keys.ToggleTree,
		m.keys.Quit,
	}
	lines := []string{"help (? or esc to close)"}
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("%-10s %s", h.Key, h.Desc))
	}
	return strings.Join(lines, "\n")
}

// statusBar renders the footer line: current path (or the error indicator)
// on the left, file metadata and a quit hint on the right.
func (m *Model) statusBar() string {
	var left string
	switch {
	case m.statusIsError:
		left = statusErrorStyle.Render(m.statusText)
	case m.statusText != "":
		left = statusPathStyle.Render(m.statusText)
	}

	var right string
	if !m.statusIsError && m.activePath != "" {
		right = statusMetaStyle.Render(fmt.Sprintf("%s · %d lines", m.language, m.lineCount))
	} else {
		right = statusMetaStyle.Render("? help · q quit")
	}

	width := m.width - statusBarStyle.GetHorizontalFrameSize()
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return statusBarStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fileEventMsg:
		return m, m.handleFileEvent(msg)
	case fileWatchErrMsg:
		m.err = msg.err
		return m, m.waitForFileEvent()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		k := msg.String()
		if k != "g" {
			m.pendingKey = ""
		}

		if m.showHelp {
			m.pendingKey = ""
			switch k {
			case "q", "?", "esc":
				m.showHelp = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			m.pendingKey = ""
			return m, nil
		case key.Matches(msg, m.keys.FocusTree):
			if m.treeVisible {
				m.focusTree()
			}
			return m, nil
		case key.Matches(msg, m.keys.FocusContent):
			m.blurTree()
			return m, nil
		case key.Matches(msg, m.keys.ToggleTree):
			if m.treeRoot != nil {
				m.treeVisible = !m.treeVisible
				if !m.treeVisible {
					m.blurTree()
				}
				m.resize(m.width, m.height)
			}
			return m, nil
		}

		if m.treeFocus && m.treeVisible {
			handled, cmd := m.handleTreeKey(k)
			if handled || cmd != nil {
				return m, cmd
			}
			return m, nil
		}

		if m.handleContentKey(k) {
			return m, nil
		}

		var cmd tea.Cmd
		m.contentVP, cmd = m.contentVP.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.contentVP, cmd = m.contentVP.Update(msg)
	return m, cmd
}

func (m *Model) handleContentKey(k string) bool {
	switch k {
	case "j", "down":
		m.contentVP.ScrollDown(1)
	case "k", "up":
		m.contentVP.ScrollUp(1)
	case "ctrl+d", "pgdown":
		m.contentVP.HalfPageDown()
	case "ctrl+u", "pgup":
		m.contentVP.HalfPageUp()
	case "h", "left":
		m.contentVP.ScrollLeft(max(2, m.contentVP.Width/6))
	case "l", "right":
		m.contentVP.ScrollRight(max(2, m.contentVP.Width/6))
	case "g":
		if m.pendingKey == "g" {
			m.contentVP.GotoTop()
			m.pendingKey = ""
		} else {
			m.pendingKey = "g"
		}
		return true
	case "G":
		m.pendingKey = ""
		m.contentVP.GotoBottom()
	default:
		return false
	}
	m.pendingKey = ""
	return true
}

func (m *Model) handleTreeKey(k string) (bool, tea.Cmd) {
	if m.treeRoot == nil {
		return false, nil
	}
	switch k {
	case "j", "down":
		m.moveTreeSelection(1)
		return true, nil
	case "k", "up":
		m.moveTreeSelection(-1)
		return true, nil
	case "ctrl+d", "pgdown":
		m.moveTreeSelection(max(1, m.treeVP.Height/2))
		return true, nil
	case "ctrl+u", "pgup":
		m.moveTreeSelection(-max(1, m.treeVP.Height/2))
		return true, nil
	case "ctrl+j":
		m.contentVP.ScrollDown(1)
		return true, nil
	case "ctrl+k":
		m.contentVP.ScrollUp(1)
		return true, nil
	case "ctrl+f":
		m.contentVP.ScrollDown(max(1, m.contentVP.Height/2))
		return true, nil
	case "ctrl+b":
		m.contentVP.ScrollUp(max(1, m.contentVP.Height/2))
		return true, nil
	case "l", "right", "enter":
		return true, m.openOrDescend()
	case "h", "left":
		m.closeOrAscend()
		return true, nil
	case "g":
		if m.pendingKey == "g" {
			if len(m.flatTree) > 0 {
				m.treeSelection = 0
				m.pendingKey = ""
				m.updateTreeContent(m.treeContentWidth)
				m.ensureSelectionVisible()
			}
		} else {
			m.pendingKey = "g"
		}
		return true, nil
	case "G":
		m.pendingKey = ""
		if len(m.flatTree) > 0 {
			m.treeSelection = len(m.flatTree) - 1
			m.updateTreeContent(m.treeContentWidth)
			m.ensureSelectionVisible()
		}
		return true, nil
	}
	m.pendingKey = ""
	return false, nil
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= footerHeight {
		return
	}

	m.width = width
	m.height = height
	m.ready = true

	treeWidth := m.treeWidth(width)
	contentWidth := width - treeWidth
	if m.treeVisible && treeWidth > 0 {
		contentWidth--
	}
	if contentWidth < minContentWidth {
		contentWidth = minContentWidth
	}

	contentHeight := max(height-footerHeight, 1)
	m.contentVP.Width = contentWidth
	m.contentVP.Height = contentHeight

	// Markdown wraps to the pane, so the active file has to be rendered
	// again at the new width. Failed selections are not retried here.
	if m.activePath != "" && !m.statusIsError {
		offset := m.contentVP.YOffset
		m.showFile(m.activePath, m.activeRelPath)
		if !m.statusIsError {
			m.contentVP.SetYOffset(offset)
		}
	}

	if m.treeVisible && treeWidth > 0 {
		m.treeVP.Width = treeWidth
		m.treeVP.Height = contentHeight
		m.ensureSelectionVisible()
	} else {
		m.treeVP.Width = 0
		m.treeVP.Height = contentHeight
	}
}

func (m *Model) treeWidth(totalWidth int) int {
	if !m.treeVisible {
		return 0
	}
	preferred := m.treePreferredWidth
	if preferred <= 0 {
		preferred = defaultTreeWidth
	}

	frame := m.treeVP.Style.GetHorizontalFrameSize()
	minPanel := max(minTreePanelWidth-frame, 0)
	maxPanel := max(totalWidth/2-frame, minPanel)
	panelContentWidth := clamp(preferred, minPanel, maxPanel)

	width := panelContentWidth + frame
	if totalWidth-width < minContentWidth {
		width = max(totalWidth-minContentWidth, 0)
	}
	if width > totalWidth {
		width = totalWidth
	}
	return width
}

func (m *Model) contentRenderWidth() int {
	w := m.contentVP.Width - m.contentVP.Style.GetHorizontalFrameSize()
	if w < 0 {
		return 0
	}
	return w
}

func (m *Model) moveTreeSelection(delta int) {
	if len(m.flatTree) == 0 {
		return
	}
	m.treeSelection = clamp(m.treeSelection+delta, 0, len(m.flatTree)-1)
	m.updateTreeContent(m.treeContentWidth)
}

func (m *Model) openOrDescend() tea.Cmd {
	entry := m.currentTreeEntry()
	if entry == nil {
		return nil
	}
	if entry.IsDir {
		if !entry.Open {
			entry.Open = true
			if !m.loadNode(entry) {
				entry.Open = false
				return nil
			}
			m.refreshTreeViewWithSelection(entry.Path)
			return nil
		}
		if !m.loadNode(entry) {
			return nil
		}
		if len(entry.Children) > 0 {
			m.moveTreeSelection(1)
		}
		return nil
	}
	return m.openFileEntry(entry)
}

func (m *Model) closeOrAscend() {
	entry := m.currentTreeEntry()
	if entry == nil {
		return
	}
	if entry.IsDir && entry.Open {
		entry.Open = false
		maxWidth := m.rebuildFlatTree()
		if idx := m.indexForPath(entry.Path); idx >= 0 {
			m.treeSelection = idx
		} else {
			m.treeSelection = clamp(m.treeSelection, 0, len(m.flatTree)-1)
		}
		m.treeContentWidth = maxWidth
		m.updateTreeContent(maxWidth)
		return
	}
	if entry.Parent != nil {
		m.refreshTreeViewWithSelection(entry.Parent.Path)
	}
}

func (m *Model) currentTreeEntry() *tree.Node {
	if len(m.flatTree) == 0 || m.treeSelection < 0 || m.treeSelection >= len(m.flatTree) {
		return nil
	}
	return m.flatTree[m.treeSelection].entry
}

// openFileEntry is the selection event: render the file into the content
// pane, then follow it on disk.
func (m *Model) openFileEntry(entry *tree.Node) tea.Cmd {
	if m.rootDir == "" {
		return nil
	}
	absPath := filepath.Join(m.rootDir, filepath.FromSlash(entry.Path))
	m.showFile(absPath, entry.Path)
	if m.statusIsError {
		return nil
	}
	return m.startWatching(absPath)
}

// showFile runs the render pipeline for one selection. Render failures end
// up as a diagnostic trace in the content pane with the status bar set to
// the error indicator; they never leave this method as errors.
func (m *Model) showFile(absPath, relPath string) {
	display := composeDisplayPath(m.displayRoot, relPath)

	res, err := m.renderer.Render(absPath, m.contentRenderWidth())
	m.activePath = absPath
	m.activeRelPath = relPath
	if err != nil {
		logrus.WithField("path", absPath).WithError(err).Warn("render failed")
		m.contentVP.SetContent(render.FormatTrace(display, err))
		m.contentVP.GotoTop()
		m.statusText = statusError
		m.statusIsError = true
		m.language = ""
		m.lineCount = 0
		return
	}

	logrus.WithFields(logrus.Fields{"path": absPath, "lines": res.Lines, "lang": res.Language}).Debug("rendered")
	m.err = nil
	m.contentVP.SetContent(res.Content)
	m.contentVP.GotoTop()
	m.statusText = display
	m.statusIsError = false
	m.language = res.Language
	m.lineCount = res.Lines
}

func (m *Model) refreshTreeViewWithSelection(path string) {
	if m.treeRoot == nil {
		return
	}
	if !m.loadNode(m.treeRoot) {
		return
	}
	m.expandPath(path)
	maxWidth := m.rebuildFlatTree()
	if len(m.flatTree) > 0 {
		if idx := m.indexForPath(path); idx >= 0 {
			m.treeSelection = idx
		} else {
			m.treeSelection = clamp(m.treeSelection, 0, len(m.flatTree)-1)
		}
	} else {
		m.treeSelection = 0
	}
	m.treeContentWidth = maxWidth
	m.updateTreeContent(maxWidth)
}

func (m *Model) expandPath(path string) {
	if m.treeRoot == nil || path == "" {
		return
	}
	if !m.treeRoot.Open {
		m.treeRoot.Open = true
	}
	parts := strings.Split(path, "/")
	current := m.treeRoot
	for _, part := range parts {
		if !m.loadNode(current) {
			return
		}
		child := current.ChildByName(part)
		if child == nil {
			return
		}
		if child.IsDir {
			child.Open = true
		}
		current = child
	}
}

func (m *Model) rebuildFlatTree() int {
	if m.treeRoot == nil {
		m.flatTree = nil
		return 0
	}
	var lines []treeLine
	maxWidth := 0
	var walk func(*tree.Node, int)
	walk = func(node *tree.Node, depth int) {
		label := formatTreeLabel(node, depth)
		if w := lipgloss.Width(label); w > maxWidth {
			maxWidth = w
		}
		lines = append(lines, treeLine{entry: node, label: label})
		if node.IsDir && node.Open {
			if !m.loadNode(node) {
				return
			}
			for _, child := range node.Children {
				walk(child, depth+1)
			}
		}
	}
	walk(m.treeRoot, 0)
	m.flatTree = lines
	return maxWidth
}

func (m *Model) updateTreeContent(width int) {
	if m.treeRoot == nil {
		return
	}
	if width <= 0 {
		width = minTreePanelWidth
	}
	var builder strings.Builder
	for i, line := range m.flatTree {
		text := line.label
		switch {
		case i == m.treeSelection && m.treeFocus:
			builder.WriteString(treeSelectedActive.Render(text))
		case i == m.treeSelection:
			builder.WriteString(treeSelectedInactive.Render(text))
		default:
			builder.WriteString(treeLineStyle.Render(text))
		}
		if i < len(m.flatTree)-1 {
			builder.WriteByte('\n')
		}
	}
	m.treePreferredWidth = max(width+4, minTreePanelWidth)
	m.treeVP.SetContent(builder.String())
	m.ensureSelectionVisible()
}

func (m *Model) indexForPath(path string) int {
	for i, line := range m.flatTree {
		if line.entry.Path == path {
			return i
		}
	}
	return -1
}

func (m *Model) ensureSelectionVisible() {
	if len(m.flatTree) == 0 || m.treeVP.Height == 0 {
		return
	}
	if m.treeSelection < m.treeVP.YOffset {
		m.treeVP.SetYOffset(m.treeSelection)
		return
	}
	bottom := m.treeVP.YOffset + m.treeVP.Height - 1
	if m.treeSelection > bottom {
		m.treeVP.SetYOffset(m.treeSelection - m.treeVP.Height + 1)
	}
}

func (m *Model) focusTree() {
	m.treeFocus = true
	m.updateTreePanelStyle()
	m.updateTreeContent(m.treeContentWidth)
	m.ensureSelectionVisible()
}

func (m *Model) blurTree() {
	m.treeFocus = false
	m.updateTreePanelStyle()
	m.updateTreeContent(m.treeContentWidth)
}

func (m *Model) updateTreePanelStyle() {
	color := treeBlurBorderColor
	if m.treeFocus {
		color = treeFocusBorderColor
	}
	m.treeVP.Style = treePanelStyle(color)
}

func (m *Model) loadNode(node *tree.Node) bool {
	if node == nil {
		return false
	}
	if err := node.EnsureLoaded(); err != nil {
		m.err = err
		return false
	}
	return true
}

func treePanelStyle(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(color)
}

func formatTreeLabel(entry *tree.Node, depth int) string {
	if depth == 0 {
		return entry.Name + "/"
	}
	indent := strings.Repeat("  ", depth-1)
	indicator := "  "
	if entry.IsDir {
		if entry.Open {
			indicator = "- "
		} else {
			indicator = "+ "
		}
	}
	label := indent + indicator + entry.Name
	if entry.IsDir {
		label += "/"
	}
	return label
}

func composeDisplayPath(root, rel string) string {
	rel = filepath.ToSlash(rel)
	if root == "" {
		return rel
	}
	if rel == "" {
		return root + "/"
	}
	return filepath.ToSlash(filepath.Join(root, rel))
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
