package app

import (
	"fmt"
	"image"
	"log"

	"github.com/hazadus/go-turntable/internal/cover"
	"github.com/hazadus/go-turntable/internal/metadata"
)

// Display набор свойств интерфейса, которые заполняет приложение
type Display interface {
	SetSongTitle(title string)
	SetSongArtist(artist string)
	SetSongAlbum(album string)
	SetCover(img *image.RGBA)
	SetStatus(state State)
	Status() State
}

// Backend управление воспроизведением
type Backend interface {
	Play()
	Pause()
	Stop()
}

// Opener захватывает устройство вывода и загружает трек на паузе
type Opener func(path string) (Backend, error)

// TrackReader читает теги файла
type TrackReader func(path string) (metadata.Track, error)

// Controller обрабатывает команды интерфейса
type Controller struct {
	display   Display
	backend   Backend
	listeners []func(State)
}

// NewController создает контроллер поверх интерфейса и плеера
func NewController(display Display, backend Backend) *Controller {
	return &Controller{display: display, backend: backend}
}

// OnStatusChange подписывает на изменения показанного статуса
func (c *Controller) OnStatusChange(fn func(State)) {
	c.listeners = append(c.listeners, fn)
}

// Dispatch выполняет одну команду интерфейса. Неизвестные команды игнорируются.
func (c *Controller) Dispatch(action string) {
	switch action {
	case ActionPlay:
		c.togglePlay()
	case ActionPause:
		c.pause()
	case ActionStop:
		c.stop()
	default:
		return
	}

	status := c.display.Status()
	for _, fn := range c.listeners {
		fn(status)
	}
}

func (c *Controller) togglePlay() {
	if c.display.Status() == Playing {
		c.display.SetStatus(Paused)
		c.backend.Pause()
		return
	}
	c.display.SetStatus(Playing)
	c.backend.Play()
}

func (c *Controller) pause() {
	c.display.SetStatus(Paused)
	c.backend.Pause()
}

func (c *Controller) stop() {
	c.display.SetStatus(Stopped)
	c.backend.Stop()
}

// Render заполняет поля интерфейса из тегов. Битая обложка прерывает запуск.
func Render(display Display, track metadata.Track) error {
	display.SetSongTitle(track.DisplayTitle())
	display.SetSongArtist(track.DisplayArtist())
	display.SetSongAlbum(track.DisplayAlbum())

	if track.Picture == nil {
		return nil
	}
	img, err := cover.Decode(track.Picture.Data)
	if err != nil {
		return fmt.Errorf("ошибка отображения обложки: %w", err)
	}
	display.SetCover(img)
	return nil
}

// Start выполняет последовательность запуска: статус, устройство вывода и трек, теги.
// Любая ошибка фатальна.
func Start(display Display, open Opener, readTrack TrackReader, path string) (*Controller, metadata.Track, error) {
	display.SetStatus(Stopped)

	backend, err := open(path)
	if err != nil {
		return nil, metadata.Track{}, err
	}
	log.Printf("трек загружен: %s", path)

	track, err := readTrack(path)
	if err != nil {
		return nil, metadata.Track{}, err
	}
	if err := Render(display, track); err != nil {
		return nil, metadata.Track{}, err
	}

	return NewController(display, backend), track, nil
}
