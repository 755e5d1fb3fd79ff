// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-turntable/internal/app"
	"github.com/hazadus/go-turntable/internal/cover"
	"github.com/hazadus/go-turntable/internal/player"
	"github.com/hazadus/go-turntable/internal/utils"
)

// Размер обложки в символах; каждый символ показывает два пикселя по вертикали
const (
	coverCols = 32
	coverRows = 16
)

const maxTextWidth = 48

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)
)

// ActionMsg доставляет команду из другой горутины (MPRIS)
type ActionMsg struct {
	Action string
}

// ProgressMsg содержит обновления прогресса воспроизведения
type ProgressMsg struct {
	Status player.Status
}

// PlaybackFinishedMsg отправляется, когда трек доиграл до конца
type PlaybackFinishedMsg struct{}

// Model представляет модель экрана воспроизведения
type Model struct {
	title  string
	artist string
	album  string

	coverArt string
	state    app.State
	status   player.Status

	progressBar progress.Model
	dispatch    func(action string)
	progress    <-chan player.Status
	done        <-chan struct{}
	width       int
}

var _ app.Display = (*Model)(nil)

// NewModel создает модель экрана воспроизведения
func NewModel() *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{progressBar: prog}
}

// Attach подключает обработчик команд и каналы плеера
func (m *Model) Attach(dispatch func(action string), progress <-chan player.Status, done <-chan struct{}) {
	m.dispatch = dispatch
	m.progress = progress
	m.done = done
}

// SetSongTitle реализует app.Display
func (m *Model) SetSongTitle(title string) { m.title = title }

// SetSongArtist реализует app.Display
func (m *Model) SetSongArtist(artist string) { m.artist = artist }

// SetSongAlbum реализует app.Display
func (m *Model) SetSongAlbum(album string) { m.album = album }

// SetStatus реализует app.Display
func (m *Model) SetStatus(state app.State) { m.state = state }

// Status реализует app.Display
func (m *Model) Status() app.State { return m.state }

// SetCover рисует обложку полублоками
func (m *Model) SetCover(img *image.RGBA) {
	if img == nil {
		m.coverArt = ""
		return
	}
	m.coverArt = renderHalfBlocks(cover.Thumbnail(img, coverCols, coverRows*2))
}

// Init запускает прослушивание прогресса
func (m *Model) Init() tea.Cmd {
	return m.listenForProgress()
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(60, msg.Width-10))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "enter":
			m.emit(app.ActionPlay)
		case "p":
			m.emit(app.ActionPause)
		case "s":
			m.emit(app.ActionStop)
		}
		return m, nil

	case ActionMsg:
		m.emit(msg.Action)
		return m, nil

	case ProgressMsg:
		m.status = msg.Status

		var percent float64
		if msg.Status.Duration > 0 {
			percent = float64(msg.Status.Position) / float64(msg.Status.Duration)
		}

		return m, tea.Batch(
			m.progressBar.SetPercent(percent),
			m.listenForProgress(),
		)

	case PlaybackFinishedMsg:
		m.emit(app.ActionStop)
		m.status.Position = 0
		return m, tea.Batch(
			m.progressBar.SetPercent(0),
			m.listenForProgress(),
		)

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎵 turntable"))
	b.WriteString("\n\n")

	if m.coverArt != "" {
		b.WriteString(m.coverArt)
		b.WriteString("\n\n")
	}

	b.WriteString(trackInfoStyle.Render(fmt.Sprintf(
		"🎵 %s\n🎤 %s\n💿 %s",
		utils.TruncateString(m.title, maxTextWidth),
		utils.TruncateString(m.artist, maxTextWidth),
		utils.TruncateString(m.album, maxTextWidth),
	)))
	b.WriteString("\n")

	b.WriteString(statusStyle.Render(fmt.Sprintf("%s %s", statusIcon(m.state), m.state)))
	b.WriteString("\n")

	b.WriteString(m.progressBar.View())
	b.WriteString("\n")
	b.WriteString(utils.FormatPosition(m.status.Position, m.status.Duration))
	b.WriteString("\n")

	b.WriteString(controlsStyle.Render(
		"Пробел/Enter: воспроизведение/пауза • p: пауза • s: стоп • q: выход",
	))
	return b.String()
}

func (m *Model) emit(action string) {
	if m.dispatch != nil {
		m.dispatch(action)
	}
}

// listenForProgress слушает обновления прогресса от плеера
func (m *Model) listenForProgress() tea.Cmd {
	if m.progress == nil && m.done == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case status, ok := <-m.progress:
			if !ok {
				// Плеер закрыт
				return nil
			}
			return ProgressMsg{Status: status}

		case _, ok := <-m.done:
			if !ok {
				return nil
			}
			return PlaybackFinishedMsg{}
		}
	}
}

func statusIcon(state app.State) string {
	switch state {
	case app.Playing:
		return "▶"
	case app.Paused:
		return "⏸"
	default:
		return "⏹"
	}
}

// renderHalfBlocks рисует картинку символами "▀": верхний пиксель цветом текста, нижний цветом фона
func renderHalfBlocks(img *image.RGBA) string {
	bounds := img.Bounds()
	var b strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		if y > bounds.Min.Y {
			b.WriteByte('\n')
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hexColor(img.RGBAAt(x, y)))
			if y+1 < bounds.Max.Y {
				style = style.Background(hexColor(img.RGBAAt(x, y+1)))
			}
			b.WriteString(style.Render("▀"))
		}
	}
	return b.String()
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
