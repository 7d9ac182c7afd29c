package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MarkovWon/Knowdes/pkg/expand"
	"github.com/MarkovWon/Knowdes/pkg/generate"
	"github.com/MarkovWon/Knowdes/pkg/graph"
	"github.com/MarkovWon/Knowdes/pkg/layout"
	"github.com/MarkovWon/Knowdes/pkg/workspace"
)

// =============================================================================
// Model
// =============================================================================

// interactionMode decides what a click on a node does.
type interactionMode int

const (
	// modeSelect toggles selection membership on click.
	modeSelect interactionMode = iota
	// modeBrowse opens the detail panel with a study plan on click.
	modeBrowse
)

// frameInterval paces the physics animation (~30 fps).
const frameInterval = 33 * time.Millisecond

// dragThreshold is how many cells the pointer may travel before a press
// stops being a click and becomes a drag.
const dragThreshold = 1

// nodeDetail holds the browse-mode side panel state.
type nodeDetail struct {
	id      string
	label   string
	text    string
	loading bool
}

// graphModel is the bubbletea model for the interactive graph view.
type graphModel struct {
	cli     *CLI
	store   *workspace.Store
	coord   *expand.Coordinator
	planner generate.Planner
	path    string

	sim    *layout.Simulation
	width  int
	height int

	mode   interactionMode
	panX   float64
	panY   float64
	scale  float64
	status string
	detail *nodeDetail

	// Press bookkeeping for click-vs-drag discrimination.
	pressID string
	pressX  int
	pressY  int
	moved   bool
}

// newGraphModel builds the model around an already-loaded workspace.
func newGraphModel(c *CLI, store *workspace.Store, coord *expand.Coordinator, planner generate.Planner, path string) graphModel {
	return graphModel{
		cli:     c,
		store:   store,
		coord:   coord,
		planner: planner,
		path:    path,
		mode:    modeSelect,
		scale:   1,
	}
}

// =============================================================================
// Messages
// =============================================================================

type frameMsg time.Time

type expandDoneMsg struct {
	res graph.MergeResult
	err error
}

type planDoneMsg struct {
	id   string
	text string
	err  error
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m graphModel) Init() tea.Cmd {
	return frameTick()
}

// =============================================================================
// Update
// =============================================================================

func (m graphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuildSim()
		return m, nil

	case frameMsg:
		if m.sim != nil && !m.sim.Settled() {
			m.sim.Step()
		}
		return m, frameTick()

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case expandDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Expansion failed: %v", msg.err)
			return m, nil
		}
		if len(msg.res.AddedNodes) == 0 {
			m.status = "Nothing new: the backend returned only known concepts"
			return m, nil
		}
		m.status = fmt.Sprintf("Added %d nodes, %d links", len(msg.res.AddedNodes), msg.res.AddedLinks)
		m.rebuildSim()
		return m, nil

	case planDoneMsg:
		if m.detail == nil || m.detail.id != msg.id {
			// The panel moved on while the plan was loading.
			return m, nil
		}
		m.detail.loading = false
		if msg.err != nil {
			m.detail.text = fmt.Sprintf("Plan unavailable: %v", msg.err)
		} else {
			m.detail.text = msg.text
		}
		return m, nil
	}

	return m, nil
}

func (m graphModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.mode == modeSelect {
			m.mode = modeBrowse
		} else {
			m.mode = modeSelect
		}
		return m, nil

	case "esc":
		m.detail = nil
		return m, nil

	case "e":
		return m.startExpansion()

	case "c":
		m.store.ClearSelection()
		m.status = "Selection cleared"
		return m, nil

	case "w":
		m.syncPositions()
		if err := m.store.Save(m.path); err != nil {
			m.status = fmt.Sprintf("Write failed: %v", err)
		} else {
			m.status = fmt.Sprintf("Saved %s", m.path)
		}
		return m, nil

	case "r":
		if m.sim != nil {
			m.sim.Reheat()
		}
		return m, nil

	case "up":
		m.panY -= 2 / m.scale
	case "down":
		m.panY += 2 / m.scale
	case "left":
		m.panX -= 2 / m.scale
	case "right":
		m.panX += 2 / m.scale

	case "+", "=":
		m.zoom(1.25)
	case "-":
		m.zoom(1 / 1.25)
	}
	return m, nil
}

func (m graphModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.zoom(1.1)
		case tea.MouseButtonWheelDown:
			m.zoom(1 / 1.1)
		case tea.MouseButtonLeft:
			m.pressX, m.pressY = msg.X, msg.Y
			m.moved = false
			if id, ok := m.nodeAt(msg.X, msg.Y); ok {
				m.pressID = id
			}
		}

	case tea.MouseActionMotion:
		if m.pressID == "" {
			break
		}
		if !m.moved && (abs(msg.X-m.pressX) > dragThreshold || abs(msg.Y-m.pressY) > dragThreshold) {
			m.moved = true
			wx, wy := m.toWorld(msg.X, msg.Y)
			m.sim.DragStart(m.pressID, wx, wy)
		}
		if m.moved {
			wx, wy := m.toWorld(msg.X, msg.Y)
			m.sim.DragMove(m.pressID, wx, wy)
		}

	case tea.MouseActionRelease:
		if m.pressID == "" {
			break
		}
		id := m.pressID
		m.pressID = ""
		if m.moved {
			m.sim.DragEnd(id)
			m.syncPositions()
			break
		}
		// A click. Selection changes restyle the next frame; the
		// simulation keeps whatever momentum it had.
		if m.mode == modeSelect {
			m.store.ToggleSelection(id)
			return m, nil
		}
		return m.openDetail(id)
	}
	return m, nil
}

// =============================================================================
// Actions
// =============================================================================

func (m graphModel) startExpansion() (tea.Model, tea.Cmd) {
	if m.coord.Busy() {
		m.status = "An expansion is already running"
		return m, nil
	}
	if len(m.store.SelectedIDs()) == 0 {
		m.status = "Nothing selected. Click nodes in select mode, then press e"
		return m, nil
	}

	m.status = "Expanding selection..."
	coord, store := m.coord, m.store
	return m, func() tea.Msg {
		res, err := coord.Expand(context.Background(), store)
		return expandDoneMsg{res: res, err: err}
	}
}

func (m graphModel) openDetail(id string) (tea.Model, tea.Cmd) {
	g, _ := m.store.Snapshot()
	node := g.FindNode(id)
	if node == nil {
		return m, nil
	}

	m.detail = &nodeDetail{id: id, label: node.DisplayLabel(), loading: true}
	topic := m.store.Topic()
	ref := graph.NodeRef{ID: node.ID, Label: node.Label}
	planner := m.planner
	return m, func() tea.Msg {
		text, err := planner.Plan(context.Background(), topic, ref)
		return planDoneMsg{id: id, text: text, err: err}
	}
}

// rebuildSim recreates the simulation from the current graph, preserving
// settled positions where nodes survive.
func (m *graphModel) rebuildSim() {
	if m.width == 0 || m.height == 0 {
		return
	}
	if m.sim != nil {
		m.syncPositions()
	}
	g, _ := m.store.Snapshot()
	// Rows cover roughly twice the world height of a column's width.
	cfg := m.cli.layoutConfig(float64(m.width), float64(m.canvasHeight()*2))
	m.sim = layout.New(g, cfg)
}

// syncPositions writes the simulation's coordinates into the workspace.
func (m *graphModel) syncPositions() {
	if m.sim == nil {
		return
	}
	pos := make(map[string][2]float64)
	for _, b := range m.sim.Bodies() {
		pos[b.ID] = [2]float64{b.X, b.Y}
	}
	m.store.ApplyPositions(pos)
}

func (m *graphModel) zoom(factor float64) {
	s := m.scale * factor
	if s < m.cli.Config.Viewer.MinScale {
		s = m.cli.Config.Viewer.MinScale
	}
	if s > m.cli.Config.Viewer.MaxScale {
		s = m.cli.Config.Viewer.MaxScale
	}
	m.scale = s
}

// =============================================================================
// Geometry
// =============================================================================

// canvasHeight is the terminal rows available to the graph itself.
func (m graphModel) canvasHeight() int {
	h := m.height - 2 // header and footer
	if h < 1 {
		h = 1
	}
	return h
}

// toScreen projects world coordinates onto terminal cells. A cell is
// about twice as tall as it is wide, so rows compress y by two.
func (m graphModel) toScreen(wx, wy float64) (int, int) {
	cx := float64(m.width) / 2
	cy := float64(m.canvasHeight())
	x := cx + (wx-cx-m.panX)*m.scale
	y := cy + (wy-cy-m.panY)*m.scale
	return int(math.Round(x)), int(math.Round(y / 2))
}

// toWorld inverts toScreen for mouse coordinates. The mouse row is
// relative to the full terminal, so the header row is subtracted.
func (m graphModel) toWorld(col, row int) (float64, float64) {
	cx := float64(m.width) / 2
	cy := float64(m.canvasHeight())
	wx := cx + m.panX + (float64(col)-cx)/m.scale
	wy := cy + m.panY + (float64(row-1)*2-cy)/m.scale
	return wx, wy
}

// nodeAt hit-tests a mouse position against the node markers.
func (m graphModel) nodeAt(col, row int) (string, bool) {
	if m.sim == nil {
		return "", false
	}
	bestID, bestDist := "", math.MaxFloat64
	for _, b := range m.sim.Bodies() {
		x, y := m.toScreen(b.X, b.Y)
		dx, dy := float64(col-x), float64(row-(y+1))
		d := dx*dx + dy*dy
		if d < bestDist {
			bestID, bestDist = b.ID, d
		}
	}
	if bestDist <= 4 { // within two cells
		return bestID, true
	}
	return "", false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// =============================================================================
// View
// =============================================================================

// cell kinds, styled at render time.
const (
	cellEmpty = iota
	cellLink
	cellNode
	cellSelected
	cellLabel
	cellPanel
)

var cellStyles = map[int]lipgloss.Style{
	cellLink:     lipgloss.NewStyle().Foreground(colorDim),
	cellNode:     lipgloss.NewStyle().Foreground(colorWhite),
	cellSelected: lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
	cellLabel:    lipgloss.NewStyle().Foreground(colorGray),
	cellPanel:    lipgloss.NewStyle().Foreground(colorWhite),
}

func (m graphModel) View() string {
	if m.width == 0 || m.sim == nil {
		return "loading..."
	}

	rows, kinds := m.renderCanvas()

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteString("\n")
	for r := 0; r < len(rows); r++ {
		b.WriteString(styleRow(rows[r], kinds[r]))
		b.WriteString("\n")
	}
	b.WriteString(m.footerLine())
	return b.String()
}

func (m graphModel) renderCanvas() ([][]rune, [][]int) {
	w, h := m.width, m.canvasHeight()
	rows := make([][]rune, h)
	kinds := make([][]int, h)
	for r := range rows {
		rows[r] = []rune(strings.Repeat(" ", w))
		kinds[r] = make([]int, w)
	}

	plot := func(col, row int, ch rune, kind int) {
		if col < 0 || col >= w || row < 0 || row >= h {
			return
		}
		rows[row][col] = ch
		kinds[row][col] = kind
	}

	g, _ := m.store.Snapshot()

	for _, l := range g.Links {
		a, b := m.sim.Body(l.Source), m.sim.Body(l.Target)
		if a == nil || b == nil {
			continue
		}
		x0, y0 := m.toScreen(a.X, a.Y)
		x1, y1 := m.toScreen(b.X, b.Y)
		drawLine(x0, y0, x1, y1, func(col, row int) {
			plot(col, row, '·', cellLink)
		})
	}

	for _, b := range m.sim.Bodies() {
		x, y := m.toScreen(b.X, b.Y)
		marker, kind := '●', cellNode
		if m.store.IsSelected(b.ID) {
			marker, kind = '◉', cellSelected
		}
		plot(x, y, marker, kind)

		node := g.FindNode(b.ID)
		if node == nil {
			continue
		}
		lk := cellLabel
		if kind == cellSelected {
			lk = cellSelected
		}
		for i, ch := range []rune(node.DisplayLabel()) {
			plot(x+2+i, y, ch, lk)
		}
	}

	if m.detail != nil {
		m.overlayDetail(rows, kinds)
	}
	return rows, kinds
}

// overlayDetail writes the browse panel into the right edge of the canvas.
func (m graphModel) overlayDetail(rows [][]rune, kinds [][]int) {
	w := m.width
	panelW := 32
	if panelW > w/2 {
		panelW = w / 2
	}
	if panelW < 10 {
		return
	}
	left := w - panelW

	body := m.detail.text
	if m.detail.loading {
		body = "Drafting a study plan..."
	}
	lines := append([]string{m.detail.label, strings.Repeat("─", panelW-2)}, wrapText(body, panelW-3)...)

	for r := 0; r < len(rows) && r < len(lines)+1; r++ {
		for col := left; col < w; col++ {
			rows[r][col] = ' '
			kinds[r][col] = cellPanel
		}
		rows[r][left] = '│'
		if r < len(lines) {
			for i, ch := range []rune(lines[r]) {
				if left+2+i < w {
					rows[r][left+2+i] = ch
				}
			}
		}
	}
}

func (m graphModel) headerLine() string {
	g, _ := m.store.Snapshot()
	mode := "select"
	if m.mode == modeBrowse {
		mode = "browse"
	}

	parts := []string{
		StyleTitle.Render(m.store.Topic()),
		StyleDim.Render(fmt.Sprintf("%d nodes · %d links", len(g.Nodes), len(g.Links))),
		StyleHighlight.Render(mode + " mode"),
	}
	if n := len(m.store.SelectedIDs()); n > 0 {
		parts = append(parts, StyleSuccess.Render(fmt.Sprintf("%d selected", n)))
	}
	if m.coord.Busy() {
		parts = append(parts, StyleWarning.Render("expanding..."))
	}
	return strings.Join(parts, StyleDim.Render("  │  "))
}

func (m graphModel) footerLine() string {
	if m.status != "" {
		return StyleHighlight.Render(m.status)
	}
	return StyleDim.Render("click: select/inspect  drag: move  e: expand  c: clear  w: write  tab: mode  q: quit")
}

// styleRow renders one canvas row, batching runs of equal style.
func styleRow(runes []rune, kinds []int) string {
	var b strings.Builder
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && kinds[i] == kinds[start] {
			continue
		}
		segment := string(runes[start:i])
		if style, ok := cellStyles[kinds[start]]; ok {
			segment = style.Render(segment)
		}
		b.WriteString(segment)
		start = i
	}
	return b.String()
}

// drawLine walks cells between two points (Bresenham).
func drawLine(x0, y0, x1, y1 int, plot func(col, row int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// wrapText breaks s into lines no wider than width.
func wrapText(s string, width int) []string {
	if width < 1 {
		return nil
	}
	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) > width {
				lines = append(lines, line)
				line = word
				continue
			}
			line += " " + word
		}
		lines = append(lines, line)
	}
	return lines
}
