// Package mpris публикует плеер на шине D-Bus по протоколу MPRIS2,
// чтобы мультимедийные клавиши рабочего стола управляли воспроизведением
package mpris

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/hazadus/go-turntable/internal/app"
	"github.com/hazadus/go-turntable/internal/metadata"
)

// Имена и пути MPRIS на сессионной шине
const (
	BusName         = "org.mpris.MediaPlayer2.turntable"
	ObjectPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	RootInterface   = "org.mpris.MediaPlayer2"
	PlayerInterface = "org.mpris.MediaPlayer2.Player"

	trackID = dbus.ObjectPath("/org/hazadus/turntable/track/0")
)

// Server принимает команды MPRIS и превращает их в команды интерфейса
type Server struct {
	conn  *dbus.Conn
	props *prop.Properties
	emit  func(action string)

	mu    sync.Mutex
	state app.State
}

func newServer(emit func(action string)) *Server {
	return &Server{emit: emit, state: app.Stopped}
}

// Register подключается к сессионной шине и публикует плеер.
// emit должен быть безопасен для вызова из горутины D-Bus.
func Register(emit func(action string), track metadata.Track, length time.Duration) (*Server, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к сессионной шине: %w", err)
	}

	s := newServer(emit)
	s.conn = conn

	if err := s.export(track, length); err != nil {
		conn.Close()
		return nil, err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка регистрации имени %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, errors.New("имя " + BusName + " уже занято")
	}

	log.Printf("MPRIS: зарегистрирован как %s", BusName)
	return s, nil
}

func (s *Server) export(track metadata.Track, length time.Duration) error {
	if err := s.conn.Export(rootObject{}, ObjectPath, RootInterface); err != nil {
		return fmt.Errorf("ошибка публикации %s: %w", RootInterface, err)
	}
	if err := s.conn.Export(s, ObjectPath, PlayerInterface); err != nil {
		return fmt.Errorf("ошибка публикации %s: %w", PlayerInterface, err)
	}

	playerProps := map[string]*prop.Prop{
		"CanControl":     {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanPlay":        {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanPause":       {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanSeek":        {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanGoNext":      {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanGoPrevious":  {Value: false, Writable: false, Emit: prop.EmitFalse},
		"Rate":           {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"MinimumRate":    {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"MaximumRate":    {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"Volume":         {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"Position":       {Value: int64(0), Writable: false, Emit: prop.EmitFalse},
		"Metadata":       {Value: Metadata(track, length), Writable: false, Emit: prop.EmitTrue},
		"PlaybackStatus": {Value: PlaybackStatus(app.Stopped), Writable: false, Emit: prop.EmitTrue},
	}

	rootProps := map[string]*prop.Prop{
		"CanQuit":             {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanRaise":            {Value: false, Writable: false, Emit: prop.EmitFalse},
		"HasTrackList":        {Value: false, Writable: false, Emit: prop.EmitFalse},
		"Identity":            {Value: "turntable", Writable: false, Emit: prop.EmitFalse},
		"SupportedUriSchemes": {Value: []string{"file"}, Writable: false, Emit: prop.EmitFalse},
		"SupportedMimeTypes":  {Value: []string{"audio/mpeg", "audio/wav", "audio/flac", "audio/ogg"}, Writable: false, Emit: prop.EmitFalse},
	}

	props, err := prop.Export(s.conn, ObjectPath, map[string]map[string]*prop.Prop{
		RootInterface:   rootProps,
		PlayerInterface: playerProps,
	})
	if err != nil {
		return fmt.Errorf("ошибка публикации свойств: %w", err)
	}
	s.props = props

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       RootInterface,
				Methods:    introspect.Methods(rootObject{}),
				Properties: props.Introspection(RootInterface),
			},
			{
				Name:       PlayerInterface,
				Methods:    introspect.Methods(s),
				Properties: props.Introspection(PlayerInterface),
			},
		},
	}
	if err := s.conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("ошибка публикации интроспекции: %w", err)
	}
	return nil
}

// SetPlaybackStatus отражает показанный статус в свойстве PlaybackStatus
func (s *Server) SetPlaybackStatus(state app.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if s.props != nil {
		s.props.SetMust(PlayerInterface, "PlaybackStatus", PlaybackStatus(state))
	}
}

// Close освобождает имя на шине и закрывает соединение
func (s *Server) Close() {
	if s.conn == nil {
		return
	}
	if _, err := s.conn.ReleaseName(BusName); err != nil {
		log.Printf("MPRIS: ошибка освобождения имени: %v", err)
	}
	if err := s.conn.Close(); err != nil {
		log.Printf("MPRIS: ошибка закрытия соединения: %v", err)
	}
}

// Play начинает воспроизведение. Команда play в интерфейсе переключает
// состояние, поэтому во время воспроизведения ничего не отправляем.
func (s *Server) Play() *dbus.Error {
	s.mu.Lock()
	playing := s.state == app.Playing
	s.mu.Unlock()

	if !playing {
		s.emit(app.ActionPlay)
	}
	return nil
}

// Pause ставит воспроизведение на паузу
func (s *Server) Pause() *dbus.Error {
	s.emit(app.ActionPause)
	return nil
}

// PlayPause переключает воспроизведение
func (s *Server) PlayPause() *dbus.Error {
	s.emit(app.ActionPlay)
	return nil
}

// Stop останавливает воспроизведение
func (s *Server) Stop() *dbus.Error {
	s.emit(app.ActionStop)
	return nil
}

// Next, Previous, Seek, SetPosition и OpenUri входят в обязательный набор
// методов MPRIS, но плеер играет один файл без перемотки

func (s *Server) Next() *dbus.Error                              { return nil }
func (s *Server) Previous() *dbus.Error                          { return nil }
func (s *Server) Seek(int64) *dbus.Error                         { return nil }
func (s *Server) SetPosition(dbus.ObjectPath, int64) *dbus.Error { return nil }
func (s *Server) OpenUri(string) *dbus.Error                     { return nil }

type rootObject struct{}

func (rootObject) Raise() *dbus.Error { return nil }
func (rootObject) Quit() *dbus.Error  { return nil }

// PlaybackStatus переводит статус в значение свойства MPRIS
func PlaybackStatus(state app.State) string {
	switch state {
	case app.Playing:
		return "Playing"
	case app.Paused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// Metadata собирает свойство Metadata для трека
func Metadata(track metadata.Track, length time.Duration) map[string]dbus.Variant {
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackID),
		"xesam:title":   dbus.MakeVariant(track.DisplayTitle()),
		"xesam:artist":  dbus.MakeVariant([]string{track.DisplayArtist()}),
		"xesam:album":   dbus.MakeVariant(track.DisplayAlbum()),
	}
	if length > 0 {
		md["mpris:length"] = dbus.MakeVariant(length.Microseconds())
	}
	return md
}
