package player

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-turntable/internal/app"
	"github.com/hazadus/go-turntable/internal/metadata"
	"github.com/hazadus/go-turntable/internal/player"
)

type fakeBackend struct {
	calls []string
}

func (f *fakeBackend) Play()  { f.calls = append(f.calls, "play") }
func (f *fakeBackend) Pause() { f.calls = append(f.calls, "pause") }
func (f *fakeBackend) Stop()  { f.calls = append(f.calls, "stop") }

func startModel(t *testing.T, track metadata.Track) (*Model, *fakeBackend) {
	t.Helper()

	model := NewModel()
	backend := &fakeBackend{}
	opener := func(string) (app.Backend, error) { return backend, nil }
	reader := func(string) (metadata.Track, error) { return track, nil }

	controller, _, err := app.Start(model, opener, reader, "song.mp3")
	if err != nil {
		t.Fatalf("Ошибка запуска: %v", err)
	}
	model.Attach(controller.Dispatch, nil, nil)
	return model, backend
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeysDispatchActions(t *testing.T) {
	model, backend := startModel(t, metadata.Track{Title: "Song"})

	steps := []struct {
		key      string
		expected app.State
	}{
		{" ", app.Playing},
		{"enter", app.Paused},
		{"enter", app.Playing},
		{"p", app.Paused},
		{"s", app.Stopped},
		{"s", app.Stopped},
		{"x", app.Stopped},
	}

	for _, step := range steps {
		model.Update(key(step.key))
		if model.Status() != step.expected {
			t.Errorf("После %q ожидался статус %s, получено %s", step.key, step.expected, model.Status())
		}
	}

	expectedCalls := []string{"play", "pause", "play", "pause", "stop", "stop"}
	if strings.Join(backend.calls, ",") != strings.Join(expectedCalls, ",") {
		t.Errorf("Ожидались вызовы %v, получено %v", expectedCalls, backend.calls)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		model, _ := startModel(t, metadata.Track{})
		_, cmd := model.Update(key(k))
		if cmd == nil {
			t.Fatalf("Для %q ожидалась команда выхода", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("Для %q ожидался tea.QuitMsg", k)
		}
	}
}

func TestActionMsg(t *testing.T) {
	model, backend := startModel(t, metadata.Track{})

	model.Update(ActionMsg{Action: app.ActionPlay})
	if model.Status() != app.Playing {
		t.Errorf("Ожидался статус playing, получено %s", model.Status())
	}

	model.Update(ActionMsg{Action: "seek"})
	if model.Status() != app.Playing || len(backend.calls) != 1 {
		t.Error("Неизвестная команда не должна менять статус")
	}
}

func TestPlaybackFinishedStops(t *testing.T) {
	model, backend := startModel(t, metadata.Track{})

	model.Update(key(" "))
	model.Update(PlaybackFinishedMsg{})

	if model.Status() != app.Stopped {
		t.Errorf("Ожидался статус stopped, получено %s", model.Status())
	}
	if backend.calls[len(backend.calls)-1] != "stop" {
		t.Errorf("Ожидался вызов stop, получено %v", backend.calls)
	}
}

func TestViewShowsPlaceholders(t *testing.T) {
	model, _ := startModel(t, metadata.Track{})

	view := model.View()
	for _, want := range []string{metadata.UnknownTitle, metadata.UnknownArtist, metadata.UnknownAlbum, "stopped", "00:00 / 00:00"} {
		if !strings.Contains(view, want) {
			t.Errorf("View должен содержать %q", want)
		}
	}
}

func TestProgressMsgUpdatesTime(t *testing.T) {
	model, _ := startModel(t, metadata.Track{Title: "Song"})

	_, cmd := model.Update(ProgressMsg{Status: player.Status{Position: 30 * time.Second, Duration: 2 * time.Minute, Playing: true}})
	if cmd == nil {
		t.Error("Ожидалась команда анимации прогресс-бара")
	}
	if !strings.Contains(model.View(), "00:30 / 02:00") {
		t.Error("View должен содержать текущую позицию")
	}
}

func TestListenForProgress(t *testing.T) {
	model := NewModel()
	if model.listenForProgress() != nil {
		t.Error("Без каналов плеера команда не нужна")
	}

	progress := make(chan player.Status, 1)
	done := make(chan struct{}, 1)
	model.Attach(func(string) {}, progress, done)

	progress <- player.Status{Position: time.Second}
	if msg, ok := model.listenForProgress()().(ProgressMsg); !ok || msg.Status.Position != time.Second {
		t.Errorf("Ожидался ProgressMsg, получено %#v", msg)
	}

	done <- struct{}{}
	if _, ok := model.listenForProgress()().(PlaybackFinishedMsg); !ok {
		t.Error("Ожидался PlaybackFinishedMsg")
	}

	close(progress)
	close(done)
	if msg := model.listenForProgress()(); msg != nil {
		t.Errorf("После закрытия плеера ожидался nil, получено %#v", msg)
	}
}

func TestSetCoverRendersHalfBlocks(t *testing.T) {
	model := NewModel()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	model.SetCover(img)

	lines := strings.Split(model.coverArt, "\n")
	if len(lines) != coverRows {
		t.Errorf("Ожидалось %d строк обложки, получено %d", coverRows, len(lines))
	}
	if strings.Count(lines[0], "▀") != coverCols {
		t.Errorf("Ожидалось %d символов в строке, получено %d", coverCols, strings.Count(lines[0], "▀"))
	}

	model.SetCover(nil)
	if model.coverArt != "" {
		t.Error("После SetCover(nil) обложка должна быть пустой")
	}
}
