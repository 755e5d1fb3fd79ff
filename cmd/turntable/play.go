package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	fyneapp "fyne.io/fyne/v2/app"

	ctrl "github.com/hazadus/go-turntable/internal/app"
	"github.com/hazadus/go-turntable/internal/config"
	"github.com/hazadus/go-turntable/internal/gui"
	"github.com/hazadus/go-turntable/internal/metadata"
	"github.com/hazadus/go-turntable/internal/mpris"
	"github.com/hazadus/go-turntable/internal/player"
	"github.com/hazadus/go-turntable/internal/source"
	"github.com/hazadus/go-turntable/internal/tui"
	tuiplayer "github.com/hazadus/go-turntable/internal/tui/player"
)

const fyneAppID = "com.github.hazadus.turntable"

// play разрешает источник и запускает выбранную оболочку
func (app *Application) play(ctx context.Context, ref string) error {
	resolver := source.NewResolver(app.Config.CacheDir, app.newS3Downloader)
	src, err := resolver.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Printf("ошибка удаления временного файла: %v", err)
		}
	}()

	log.Printf("открываем %s", src.Path)

	switch app.Config.UI {
	case config.UITerminal:
		return app.runTUI(ctx, src.Path)
	default:
		return app.runGUI(ctx, src.Path)
	}
}

// session хранит плеер, открытый во время запуска
type session struct {
	app    *Application
	player *player.Player
}

// open захватывает устройство вывода и загружает трек на паузе
func (s *session) open(path string) (ctrl.Backend, error) {
	p := player.New(
		player.WithBufferDuration(time.Duration(s.app.Config.SpeakerBufferMs) * time.Millisecond),
	)
	if err := p.Open(); err != nil {
		_ = p.Close()
		return nil, err
	}
	if err := p.Load(path); err != nil {
		_ = p.Close()
		return nil, err
	}
	s.player = p
	return p, nil
}

func (s *session) close() {
	if s.player == nil {
		return
	}
	if err := s.player.Close(); err != nil {
		log.Printf("ошибка закрытия плеера: %v", err)
	}
}

func (app *Application) runGUI(ctx context.Context, path string) error {
	layout, err := gui.LoadLayout(app.Config.GUILayout)
	if err != nil {
		return err
	}

	fyneApp := fyneapp.NewWithID(fyneAppID)
	window, err := gui.New(fyneApp, layout)
	if err != nil {
		return err
	}

	s := &session{app: app}
	defer s.close()

	extractor := metadata.NewExtractor()
	controller, track, err := ctrl.Start(window, s.open, extractor.ExtractFromFile, path)
	if err != nil {
		return err
	}
	window.OnEmit(controller.Dispatch)

	stopMPRIS := app.startMPRIS(controller, window.Emit, track, s.player.Status().Duration)
	defer stopMPRIS()

	go forwardProgress(s.player.Progress(), s.player.Done(), window.SetPosition, window.Emit)

	quit := make(chan struct{})
	defer close(quit)
	go func() {
		select {
		case <-ctx.Done():
			// Единственное окно: его закрытие завершает приложение
			window.Close()
		case <-quit:
		}
	}()

	window.ShowAndRun()
	return nil
}

func (app *Application) runTUI(ctx context.Context, path string) error {
	model := tuiplayer.NewModel()

	s := &session{app: app}
	defer s.close()

	extractor := metadata.NewExtractor()
	controller, track, err := ctrl.Start(model, s.open, extractor.ExtractFromFile, path)
	if err != nil {
		return err
	}
	model.Attach(controller.Dispatch, s.player.Progress(), s.player.Done())

	tuiApp := tui.NewApp(model)

	stopMPRIS := app.startMPRIS(controller, tuiApp.Send, track, s.player.Status().Duration)
	defer stopMPRIS()

	quit := make(chan struct{})
	defer close(quit)
	go func() {
		select {
		case <-ctx.Done():
			tuiApp.Quit()
		case <-quit:
		}
	}()

	if err := os.MkdirAll(app.Config.CacheDir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания директории кэша: %w", err)
	}
	return tuiApp.Run(filepath.Join(app.Config.CacheDir, "turntable.log"))
}

// startMPRIS публикует плеер в D-Bus. Ошибка регистрации не мешает работе.
func (app *Application) startMPRIS(controller *ctrl.Controller, emit func(string), track metadata.Track, length time.Duration) func() {
	if !app.Config.MPRISEnabled() {
		return func() {}
	}

	server, err := mpris.Register(emit, track, length)
	if err != nil {
		log.Printf("MPRIS недоступен: %v", err)
		return func() {}
	}
	controller.OnStatusChange(server.SetPlaybackStatus)
	return server.Close
}

// forwardProgress передает прогресс плеера в окно, пока плеер не закрыт.
// По окончании трека отправляет stop, чтобы статус вернулся в stopped.
func forwardProgress(progress <-chan player.Status, done <-chan struct{}, setPosition func(current, total time.Duration), emit func(string)) {
	for {
		select {
		case status, ok := <-progress:
			if !ok {
				return
			}
			setPosition(status.Position, status.Duration)
		case _, ok := <-done:
			if !ok {
				return
			}
			emit(ctrl.ActionStop)
		}
	}
}
