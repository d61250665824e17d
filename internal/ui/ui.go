package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/place"
	"github.com/duskmoth/sidestage/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	EventListView ViewState = iota
	CanvasView
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	client *services.Client
	view   ViewState
	width  int
	height int

	eventList list.Model
	events    []services.Event

	slug     string
	palette  []string
	colorIdx int
	cursorX  int
	cursorY  int
	rec      *Reconciler
	frames   <-chan models.Cell
	cancelWS context.CancelFunc
	notice   string

	err  error
	help help.Model
	keys keyMap
}

type eventsFetchedMsg struct {
	events []services.Event
	err    error
}

type canvasFetchedMsg struct {
	canvas *services.Canvas
	status *place.Status
	err    error
}

type cellFrameMsg models.Cell

type subscriptionClosedMsg struct{}

type writeAcceptedMsg struct {
	cell   models.Cell
	status *place.Status
}

type writeRejectedMsg struct {
	x, y    int
	retryAt time.Time
	err     error
}

type tickMsg time.Time

// NewModel creates a new TUI model over an API client.
func NewModel(ctx context.Context, client *services.Client) *Model {
	return &Model{
		ctx:    ctx,
		client: client,
		view:   EventListView,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by fetching the public event directory.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchEvents(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.eventList.Width() == 0 {
			m.eventList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case EventListView:
			return m.handleEventListKeys(msg)
		case CanvasView:
			return m.handleCanvasKeys(msg)
		}

	case eventsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.events = msg.events
		items := make([]list.Item, len(msg.events))
		for i, e := range msg.events {
			items[i] = eventItem{event: e}
		}
		m.eventList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.eventList.Title = "Events"
		m.eventList.SetSize(m.width-4, m.height-8)
		return m, nil

	case canvasFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = EventListView
			return m, nil
		}
		m.palette = msg.canvas.Palette
		m.colorIdx = 0
		m.cursorX, m.cursorY = 0, 0
		m.rec = NewReconciler(msg.canvas)
		if msg.status != nil {
			m.rec.SetCooldown(msg.status.NextAllowedWrite)
		}
		m.view = CanvasView
		return m, m.subscribe()

	case cellFrameMsg:
		if m.rec != nil {
			m.rec.Confirm(models.Cell(msg))
		}
		return m, m.waitForFrame()

	case subscriptionClosedMsg:
		if m.view == CanvasView {
			m.notice = "live feed disconnected"
		}
		return m, nil

	case writeAcceptedMsg:
		if m.rec != nil {
			m.rec.Confirm(msg.cell)
			if msg.status != nil {
				m.rec.SetCooldown(msg.status.NextAllowedWrite)
			}
		}
		m.notice = ""
		return m, nil

	case writeRejectedMsg:
		if m.rec != nil {
			m.rec.Reject(msg.x, msg.y, msg.retryAt)
		}
		if msg.retryAt.IsZero() {
			m.notice = fmt.Sprintf("write failed: %v", msg.err)
		}
		return m, nil

	case tickMsg:
		return m, tick()
	}

	if m.view == EventListView {
		var cmd tea.Cmd
		m.eventList, cmd = m.eventList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case EventListView:
		return m.renderEventList()
	case CanvasView:
		return m.renderCanvas()
	default:
		return ""
	}
}

func (m *Model) handleEventListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if selected, ok := m.eventList.SelectedItem().(eventItem); ok {
			m.slug = selected.event.Slug
			return m, m.fetchCanvas()
		}
	}

	var cmd tea.Cmd
	m.eventList, cmd = m.eventList.Update(msg)
	return m, cmd
}

func (m *Model) handleCanvasKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.closeSubscription()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.closeSubscription()
		m.view = EventListView
		return m, nil
	case key.Matches(msg, m.keys.up):
		if m.cursorY > 0 {
			m.cursorY--
		}
	case key.Matches(msg, m.keys.down):
		if m.rec != nil && m.cursorY < m.rec.Height()-1 {
			m.cursorY++
		}
	case key.Matches(msg, m.keys.left):
		if m.cursorX > 0 {
			m.cursorX--
		}
	case key.Matches(msg, m.keys.right):
		if m.rec != nil && m.cursorX < m.rec.Width()-1 {
			m.cursorX++
		}
	case key.Matches(msg, m.keys.nextColor):
		if len(m.palette) > 0 {
			m.colorIdx = (m.colorIdx + 1) % len(m.palette)
		}
	case key.Matches(msg, m.keys.prevColor):
		if len(m.palette) > 0 {
			m.colorIdx = (m.colorIdx - 1 + len(m.palette)) % len(m.palette)
		}
	case key.Matches(msg, m.keys.paint):
		return m, m.paint()
	}
	return m, nil
}

// paint applies the write optimistically and sends it to the server. A
// cached cooldown refuses the attempt locally.
func (m *Model) paint() tea.Cmd {
	if m.rec == nil || len(m.palette) == 0 {
		return nil
	}

	now := time.Now()
	if ok, until := m.rec.CanWrite(now); !ok {
		m.notice = fmt.Sprintf("cooldown: %s left", time.Until(until).Round(time.Second))
		return nil
	}

	x, y, color := m.cursorX, m.cursorY, m.palette[m.colorIdx]
	if !m.rec.Apply(x, y, color, now) {
		return nil
	}

	return func() tea.Msg {
		cell, err := m.client.SetCell(m.ctx, m.slug, x, y, color)
		if err != nil {
			retryAt, _ := services.RetryDeadline(err)
			return writeRejectedMsg{x: x, y: y, retryAt: retryAt, err: err}
		}

		// Refresh standing so the local cooldown matches the server's.
		status, _ := m.client.PlaceStatus(m.ctx, m.slug)
		return writeAcceptedMsg{cell: *cell, status: status}
	}
}

func (m *Model) fetchEvents() tea.Cmd {
	return func() tea.Msg {
		events, err := m.client.Events(m.ctx)
		return eventsFetchedMsg{events: events, err: err}
	}
}

func (m *Model) fetchCanvas() tea.Cmd {
	return func() tea.Msg {
		canvas, err := m.client.Canvas(m.ctx, m.slug)
		if err != nil {
			return canvasFetchedMsg{err: err}
		}
		status, _ := m.client.PlaceStatus(m.ctx, m.slug)
		return canvasFetchedMsg{canvas: canvas, status: status}
	}
}

func (m *Model) subscribe() tea.Cmd {
	wsCtx, cancel := context.WithCancel(m.ctx)
	m.cancelWS = cancel

	frames, err := m.client.Subscribe(wsCtx, m.slug)
	if err != nil {
		m.notice = fmt.Sprintf("live feed unavailable: %v", err)
		return nil
	}
	m.frames = frames
	return m.waitForFrame()
}

func (m *Model) waitForFrame() tea.Cmd {
	frames := m.frames
	return func() tea.Msg {
		if frames == nil {
			return subscriptionClosedMsg{}
		}
		cell, ok := <-frames
		if !ok {
			return subscriptionClosedMsg{}
		}
		return cellFrameMsg(cell)
	}
}

func (m *Model) closeSubscription() {
	if m.cancelWS != nil {
		m.cancelWS()
		m.cancelWS = nil
	}
	m.frames = nil
}

func (m *Model) renderEventList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.eventList.View(), helpView)
}

func (m *Model) renderCanvas() string {
	if m.rec == nil {
		return "Loading canvas..."
	}

	var grid strings.Builder
	for y := 0; y < m.rec.Height(); y++ {
		for x := 0; x < m.rec.Width(); x++ {
			grid.WriteString(renderCell(m.rec.Cell(x, y), x == m.cursorX && y == m.cursorY))
		}
		grid.WriteByte('\n')
	}

	var paletteBar strings.Builder
	for i, color := range m.palette {
		block := cellBlock
		if i == m.colorIdx {
			block = "[]"
		}
		paletteBar.WriteString(Swatch(block, color))
		paletteBar.WriteByte(' ')
	}

	statusLine := m.notice
	if ok, until := m.rec.CanWrite(time.Now()); !ok {
		statusLine = styles.warn.Render(fmt.Sprintf("cooldown: %s", time.Until(until).Round(time.Second)))
	}

	title := styles.title.Render(m.slug)
	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.paint, m.keys.nextColor, m.keys.back, m.keys.quit,
	})

	return fmt.Sprintf("%s\n%s\n%s\n%s\n\n%s", title, grid.String(), paletteBar.String(), statusLine, helpView)
}
