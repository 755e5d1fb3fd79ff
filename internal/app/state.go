// Package app связывает плеер, теги и оболочку интерфейса
package app

// State состояние воспроизведения, которое показывает интерфейс.
// Истинное состояние хранит плеер.
type State int

// Состояния воспроизведения
const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Команды, которые присылает интерфейс
const (
	ActionPlay  = "play"
	ActionPause = "pause"
	ActionStop  = "stop"
)
