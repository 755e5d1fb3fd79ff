// Package tui содержит текстовую оболочку плеера
package tui

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-turntable/internal/tui/player"
)

// App представляет TUI приложение
type App struct {
	program *tea.Program
}

// NewApp создает TUI приложение поверх модели экрана воспроизведения
func NewApp(model *player.Model, opts ...tea.ProgramOption) *App {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &App{program: tea.NewProgram(model, opts...)}
}

// Send передает команду в цикл событий. Можно вызывать из любой горутины.
func (a *App) Send(action string) {
	a.program.Send(player.ActionMsg{Action: action})
}

// Quit завершает цикл событий. Можно вызывать из любой горутины.
func (a *App) Quit() {
	a.program.Quit()
}

// Run запускает приложение и блокируется до выхода.
// Пока экран занят интерфейсом, лог пишется в logPath.
func (a *App) Run(logPath string) error {
	if logPath != "" {
		f, err := tea.LogToFile(logPath, "turntable: ")
		if err != nil {
			return fmt.Errorf("ошибка открытия файла лога: %w", err)
		}
		defer func() {
			log.SetOutput(os.Stderr)
			f.Close()
		}()
	}

	_, err := a.program.Run()
	return err
}
