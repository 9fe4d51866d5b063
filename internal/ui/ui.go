package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/player"
	"github.com/aria-player/aria/internal/services"
	"github.com/aria-player/aria/internal/shared"
	"github.com/aria-player/aria/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueView ViewState = iota
	LikesView
	SearchView
	CurateView
)

// tickInterval paces transport refreshes from the facade snapshot.
const tickInterval = 500 * time.Millisecond

// seekStep is the number of seconds one arrow press moves the position.
const seekStep = 5.0

// volumeStep is the volume change per keypress.
const volumeStep = 0.05

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	facade  *player.Facade
	catalog services.Catalog
	curator *tasks.CuratorEngine

	width  int
	height int
	snap   player.Snapshot

	queueList  list.Model
	likesList  list.Model
	resultList list.Model

	input  textinput.Model
	typing bool

	searching bool
	searchErr error

	curating     bool
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	curateResult *tasks.CuratorRunResult
	curateErr    error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies. catalog and
// curator may be nil when the corresponding service is not configured; the
// affected views report that instead of the whole UI failing to start.
func NewModel(ctx context.Context, facade *player.Facade, catalog services.Catalog, curator *tasks.CuratorEngine) *Model {
	input := textinput.New()
	input.CharLimit = 200

	return &Model{
		ctx:        ctx,
		view:       QueueView,
		facade:     facade,
		catalog:    catalog,
		curator:    curator,
		queueList:  newTrackList("Queue"),
		likesList:  newTrackList("Liked Tracks"),
		resultList: newTrackList("Results"),
		input:      input,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

func newTrackList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return l
}

// Init starts the transport refresh loop.
func (m *Model) Init() tea.Cmd {
	m.refreshSnapshot()
	return tea.Batch(m.tick(), textinput.Blink)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.queueList, &m.likesList, &m.resultList} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tickMsg:
		m.refreshSnapshot()
		return m, m.tick()

	case searchDoneMsg:
		m.searching = false
		m.searchErr = msg.err
		m.resultList.Title = "Search Results"
		return m, m.resultList.SetItems(trackItems(msg.tracks, -1))

	case curateProgressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case curateDoneMsg:
		m.curating = false
		m.curateResult = msg.result
		m.curateErr = msg.err
		m.progressChan = nil
		if msg.result != nil {
			items := make([]list.Item, len(msg.result.Results))
			for i, r := range msg.result.Results {
				items[i] = suggestionItem{result: r}
			}
			m.resultList.Title = msg.result.Name
			return m, m.resultList.SetItems(items)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case QueueView:
		body = m.renderQueue()
	case LikesView:
		body = m.renderLikes()
	case SearchView:
		body = m.renderSearch()
	case CurateView:
		body = m.renderCurate()
	}
	return fmt.Sprintf("%s\n%s", body, m.renderTransport())
}

// handleKeys routes keypresses: text entry first, then transport keys shared
// by every view, then the per-view handlers.
func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing {
		return m.handleInputKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		m.facade.TogglePlay()
	case key.Matches(msg, m.keys.next):
		m.facade.Next()
	case key.Matches(msg, m.keys.prev):
		m.facade.Previous()
	case key.Matches(msg, m.keys.seekBack):
		m.facade.Seek(m.snap.Position - seekStep)
	case key.Matches(msg, m.keys.seekFwd):
		m.facade.Seek(m.snap.Position + seekStep)
	case key.Matches(msg, m.keys.volDown):
		m.facade.SetVolume(shared.Clamp01(m.snap.Volume - volumeStep))
	case key.Matches(msg, m.keys.volUp):
		m.facade.SetVolume(shared.Clamp01(m.snap.Volume + volumeStep))
	case key.Matches(msg, m.keys.shuffle):
		m.facade.ToggleShuffle()
	case key.Matches(msg, m.keys.repeat):
		m.facade.CycleRepeatMode()
	case key.Matches(msg, m.keys.like):
		if m.snap.Current != nil {
			m.facade.ToggleLike(m.ctx, *m.snap.Current)
		}
	case key.Matches(msg, m.keys.queue):
		m.view = QueueView
	case key.Matches(msg, m.keys.likes):
		m.view = LikesView
	case key.Matches(msg, m.keys.search):
		return m.enterSearch()
	case key.Matches(msg, m.keys.curate):
		return m.enterCurate()
	default:
		return m.handleViewKeys(msg)
	}

	m.refreshSnapshot()
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitInput()
	case "esc":
		m.typing = false
		m.input.Blur()
		m.view = QueueView
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case QueueView:
		if msg.String() == "enter" {
			if t, ok := selectedTrack(m.queueList); ok {
				m.facade.PlayTrack(t)
				m.refreshSnapshot()
			}
			return m, nil
		}
	case LikesView:
		switch msg.String() {
		case "enter":
			if t, ok := selectedTrack(m.likesList); ok {
				m.facade.PlayTrack(t)
				m.refreshSnapshot()
			}
			return m, nil
		case "a":
			if t, ok := selectedTrack(m.likesList); ok {
				m.facade.Enqueue(t)
			}
			return m, nil
		}
	case SearchView:
		switch msg.String() {
		case "enter":
			if t, ok := selectedTrack(m.resultList); ok {
				m.facade.PlayTrack(t)
				m.refreshSnapshot()
			}
			return m, nil
		case "a":
			if t, ok := selectedTrack(m.resultList); ok {
				m.facade.Enqueue(t)
			}
			return m, nil
		case "esc":
			return m.enterSearch()
		}
	case CurateView:
		switch msg.String() {
		case "enter":
			if m.curateResult != nil && len(m.curateResult.Tracks) > 0 {
				m.facade.ReplaceQueue(m.curateResult.Tracks)
				m.facade.PlayTrack(m.curateResult.Tracks[0])
				m.view = QueueView
				m.refreshSnapshot()
			}
			return m, nil
		case "esc":
			if !m.curating {
				return m.enterCurate()
			}
			return m, nil
		}
	}

	return m.updateLists(msg)
}

func (m *Model) enterSearch() (tea.Model, tea.Cmd) {
	m.view = SearchView
	m.typing = true
	m.searchErr = nil
	m.input.Placeholder = "search the catalog"
	m.input.SetValue("")
	return m, m.input.Focus()
}

func (m *Model) enterCurate() (tea.Model, tea.Cmd) {
	m.view = CurateView
	m.typing = true
	m.curateResult = nil
	m.curateErr = nil
	m.input.Placeholder = "describe a playlist"
	m.input.SetValue("")
	return m, m.input.Focus()
}

func (m *Model) submitInput() (tea.Model, tea.Cmd) {
	query := m.input.Value()
	m.typing = false
	m.input.Blur()

	switch m.view {
	case SearchView:
		if m.catalog == nil {
			m.searchErr = fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
			return m, nil
		}
		m.searching = true
		return m, m.runSearch(query)
	case CurateView:
		if m.curator == nil {
			m.curateErr = fmt.Errorf("%w: curator not configured", shared.ErrServiceUnavailable)
			return m, nil
		}
		return m, m.startCurate(query)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case QueueView:
		m.queueList, cmd = m.queueList.Update(msg)
	case LikesView:
		m.likesList, cmd = m.likesList.Update(msg)
	case SearchView, CurateView:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

// refreshSnapshot pulls the latest playback state and rebuilds the queue and
// likes lists from it. SetItems keeps the cursor position, so a refresh does
// not disturb navigation.
func (m *Model) refreshSnapshot() {
	m.snap = m.facade.Snapshot()
	m.queueList.SetItems(trackItems(m.snap.Queue, m.snap.QueueIndex))
	m.likesList.SetItems(trackItems(m.facade.Liked(), -1))
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *Model) runSearch(term string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.catalog.SearchTracks(m.ctx, term)
		return searchDoneMsg{tracks: tracks, err: err}
	}
}

func (m *Model) startCurate(prompt string) tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.curating = true
	m.progress = tasks.ProgressUpdate{}

	go func() {
		result, err := m.curator.Run(m.ctx, prompt, m.progressChan)
		m.curateResult = result
		m.curateErr = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return curateDoneMsg{result: m.curateResult, err: m.curateErr}
		}

		update, ok := <-m.progressChan
		if !ok {
			return curateDoneMsg{result: m.curateResult, err: m.curateErr}
		}
		return curateProgressMsg(update)
	}
}

func (m *Model) renderQueue() string {
	if len(m.snap.Queue) == 0 {
		title := styles.title.Render("Queue")
		hint := styles.help.Render("queue is empty; press / to search or c to curate")
		return fmt.Sprintf("%s\n%s\n%s", title, hint, m.help.View(m.keys))
	}
	return fmt.Sprintf("%s\n\n%s", m.queueList.View(), m.help.ShortHelpView(m.shortHelp()))
}

func (m *Model) renderLikes() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.add, m.keys.queue, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.likesList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search")

	if m.typing {
		return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), styles.help.Render("enter to search, esc to cancel"))
	}
	if m.searching {
		return fmt.Sprintf("%s\n%s", title, "Searching...")
	}
	if m.searchErr != nil {
		return fmt.Sprintf("%s\n%s", title, styles.err.Render(fmt.Sprintf("Search failed: %v", m.searchErr)))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.add, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCurate() string {
	title := styles.title.Render("Curate")

	if m.typing {
		return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), styles.help.Render("enter to curate, esc to cancel"))
	}
	if m.curating {
		return fmt.Sprintf("%s\n%s\n%s", title, m.renderCuratePhase(), m.progress.Message)
	}
	if m.curateErr != nil {
		return fmt.Sprintf("%s\n%s", title, styles.err.Render(fmt.Sprintf("Curation failed: %v", m.curateErr)))
	}
	if m.curateResult == nil {
		return fmt.Sprintf("%s\n%s", title, styles.help.Render("press esc to enter a prompt"))
	}

	summary := fmt.Sprintf("Resolved %d/%d suggestions", m.curateResult.ResolvedCount, m.curateResult.Total)
	if m.curateResult.FailedCount > 0 {
		summary = styles.warn.Render(summary)
	} else {
		summary = styles.ok.Render(summary)
	}

	playAll := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play all"))
	helpKeys := []key.Binding{playAll, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.resultList.View(), summary, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCuratePhase() string {
	switch m.progress.Phase {
	case tasks.GatherLibrary:
		return "Gathering your library..."
	case tasks.Prompting:
		return "Asking the curator..."
	case tasks.Resolving:
		return fmt.Sprintf("Resolving suggestions (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Resolved:
		return "Finishing up..."
	default:
		return "Working..."
	}
}

// renderTransport draws the persistent one-line playback bar.
func (m *Model) renderTransport() string {
	snap := m.snap
	if snap.Current == nil {
		return styles.transport.Render("■ nothing playing")
	}

	icon := "⏸"
	if snap.Playing {
		icon = "▶"
	}
	liked := ""
	if m.facade.IsLiked(snap.Current.ID) {
		liked = " ♥"
	}

	line := fmt.Sprintf("%s %s • %s%s  %s / %s  vol %d%%",
		icon, snap.Current.Title, snap.Current.Artist, liked,
		shared.FormatClock(snap.Position), shared.FormatClock(snap.Duration),
		int(snap.Volume*100+0.5),
	)
	if snap.Shuffle {
		line += "  shuffle"
	}
	if snap.Repeat != models.RepeatOff {
		line += fmt.Sprintf("  repeat %s", snap.Repeat)
	}
	return styles.transport.Render(line)
}

func (m *Model) shortHelp() []key.Binding {
	return []key.Binding{m.keys.enter, m.keys.toggle, m.keys.next, m.keys.like, m.keys.search, m.keys.curate, m.keys.quit}
}

func selectedTrack(l list.Model) (models.Track, bool) {
	selected := l.SelectedItem()
	if selected == nil {
		return models.Track{}, false
	}
	item, ok := selected.(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}
