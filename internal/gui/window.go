// Package gui содержит графическую оболочку плеера на fyne
package gui

import (
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	fynelayout "fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/hazadus/go-turntable/internal/app"
	"github.com/hazadus/go-turntable/internal/failure"
	"github.com/hazadus/go-turntable/internal/utils"
)

var icons = map[string]func() fyne.Resource{
	"":      nil,
	"play":  theme.MediaPlayIcon,
	"pause": theme.MediaPauseIcon,
	"stop":  theme.MediaStopIcon,
}

func iconByName(name string) (func() fyne.Resource, bool) {
	icon, ok := icons[name]
	return icon, ok
}

// Window окно плеера, собранное по раскладке
type Window struct {
	window  fyne.Window
	props   map[string]binding.String
	cover   *canvas.Image
	buttons map[string][]*widget.Button

	mu     sync.Mutex
	status app.State
	onEmit func(action string)
}

var _ app.Display = (*Window)(nil)

// New строит окно по раскладке
func New(a fyne.App, layout *Layout) (*Window, error) {
	if a == nil {
		return nil, fmt.Errorf("приложение fyne не создано: %w", failure.ErrUIConstruction)
	}
	if layout == nil {
		layout = DefaultLayout()
	}

	w := &Window{
		props:   make(map[string]binding.String, len(textProps)),
		buttons: make(map[string][]*widget.Button),
	}
	for _, name := range textProps {
		w.props[name] = binding.NewString()
	}
	_ = w.props[PropPlayerStatus].Set(app.Stopped.String())
	_ = w.props[PropPosition].Set(utils.FormatPosition(0, 0))

	content, err := w.build(&layout.Root)
	if err != nil {
		return nil, err
	}

	w.window = a.NewWindow(layout.Title)
	if layout.Width > 0 && layout.Height > 0 {
		w.window.Resize(fyne.NewSize(layout.Width, layout.Height))
	}
	w.window.SetContent(content)
	return w, nil
}

func (w *Window) build(n *Node) (fyne.CanvasObject, error) {
	switch n.Kind {
	case KindVBox, KindHBox, KindCenter:
		children := make([]fyne.CanvasObject, 0, len(n.Children))
		for i := range n.Children {
			child, err := w.build(&n.Children[i])
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		switch n.Kind {
		case KindVBox:
			return container.NewVBox(children...), nil
		case KindHBox:
			return container.NewHBox(children...), nil
		default:
			return container.NewCenter(children...), nil
		}

	case KindLabel:
		var label *widget.Label
		if n.Bind != "" {
			label = widget.NewLabelWithData(w.props[n.Bind])
		} else {
			label = widget.NewLabel(n.Text)
		}
		label.TextStyle = textStyle(n.Style)
		label.Alignment = textAlign(n.Align)
		label.Truncation = fyne.TextTruncateEllipsis
		return label, nil

	case KindImage:
		if w.cover != nil {
			return nil, fmt.Errorf("обложка размещена в раскладке дважды: %w", failure.ErrUIConstruction)
		}
		w.cover = &canvas.Image{FillMode: canvas.ImageFillContain}
		if n.Size != nil {
			w.cover.SetMinSize(fyne.NewSize(n.Size.Width, n.Size.Height))
		}
		return w.cover, nil

	case KindButton:
		icon, _ := iconByName(n.Icon)
		action := n.Emit
		button := widget.NewButton(n.Text, func() { w.dispatch(action) })
		if icon != nil {
			button.SetIcon(icon())
		}
		w.buttons[action] = append(w.buttons[action], button)
		return button, nil

	case KindSpacer:
		return fynelayout.NewSpacer(), nil
	}
	return nil, fmt.Errorf("неизвестный тип узла %q: %w", n.Kind, failure.ErrUIConstruction)
}

func textStyle(style string) fyne.TextStyle {
	switch style {
	case "bold":
		return fyne.TextStyle{Bold: true}
	case "italic":
		return fyne.TextStyle{Italic: true}
	case "monospace":
		return fyne.TextStyle{Monospace: true}
	}
	return fyne.TextStyle{}
}

func textAlign(align string) fyne.TextAlign {
	switch align {
	case "center":
		return fyne.TextAlignCenter
	case "trailing":
		return fyne.TextAlignTrailing
	}
	return fyne.TextAlignLeading
}

// OnEmit задает обработчик команд от кнопок
func (w *Window) OnEmit(fn func(action string)) {
	w.mu.Lock()
	w.onEmit = fn
	w.mu.Unlock()
}

// Emit отправляет команду в цикл событий окна. Можно вызывать из любой горутины.
func (w *Window) Emit(action string) {
	fyne.Do(func() { w.dispatch(action) })
}

func (w *Window) dispatch(action string) {
	w.mu.Lock()
	fn := w.onEmit
	w.mu.Unlock()

	if fn == nil {
		log.Printf("команда %q без обработчика", action)
		return
	}
	fn(action)
}

// SetPosition обновляет позицию воспроизведения. Можно вызывать из любой горутины.
func (w *Window) SetPosition(current, total time.Duration) {
	text := utils.FormatPosition(current, total)
	fyne.Do(func() { _ = w.props[PropPosition].Set(text) })
}

// SetSongTitle реализует app.Display
func (w *Window) SetSongTitle(title string) { _ = w.props[PropSongTitle].Set(title) }

// SetSongArtist реализует app.Display
func (w *Window) SetSongArtist(artist string) { _ = w.props[PropSongArtist].Set(artist) }

// SetSongAlbum реализует app.Display
func (w *Window) SetSongAlbum(album string) { _ = w.props[PropSongAlbum].Set(album) }

// SetCover показывает обложку без масштабирования исходного буфера
func (w *Window) SetCover(img *image.RGBA) {
	if w.cover == nil {
		return
	}
	if img == nil {
		w.cover.Image = nil
	} else {
		w.cover.Image = img
	}
	w.cover.Refresh()
}

// SetStatus реализует app.Display
func (w *Window) SetStatus(state app.State) {
	w.mu.Lock()
	w.status = state
	w.mu.Unlock()
	_ = w.props[PropPlayerStatus].Set(state.String())
}

// Status реализует app.Display
func (w *Window) Status() app.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Property возвращает текущее значение текстового свойства
func (w *Window) Property(name string) string {
	prop, ok := w.props[name]
	if !ok {
		return ""
	}
	value, _ := prop.Get()
	return value
}

// Cover возвращает показанную обложку или nil
func (w *Window) Cover() image.Image {
	if w.cover == nil {
		return nil
	}
	return w.cover.Image
}

// Buttons возвращает кнопки, отправляющие команду
func (w *Window) Buttons(action string) []*widget.Button {
	return w.buttons[action]
}

// Close закрывает окно. Можно вызывать из любой горутины.
func (w *Window) Close() {
	fyne.Do(w.window.Close)
}

// ShowAndRun показывает окно и блокируется до его закрытия
func (w *Window) ShowAndRun() {
	w.window.ShowAndRun()
}
