package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazadus/go-turntable/internal/config"
	"github.com/hazadus/go-turntable/internal/failure"
	"github.com/hazadus/go-turntable/internal/metadata"
	"github.com/hazadus/go-turntable/internal/player"
)

// createTestApplication создает тестовое приложение с временной директорией кэша
func createTestApplication(t *testing.T, tempDir string) *Application {
	testConfig := config.Default()
	testConfig.CacheDir = tempDir
	testConfig.AwsRegion = "us-east-1"
	testConfig.AwsAccessKey = "test-key"
	testConfig.AwsSecretKey = "test-secret"
	testConfig.AwsEndpoint = "http://localhost:9000"

	return NewApplication(testConfig)
}

// TestRootCommandRequiresFile проверяет, что без --file команда завершается ошибкой
func TestRootCommandRequiresFile(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	rootCmd := app.createRootCommand(context.Background())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Ожидалась ошибка без флага --file")
	}
	if !strings.Contains(err.Error(), `required flag(s) "file" not set`) {
		t.Errorf("Неожиданная ошибка: %v", err)
	}
	if failure.Suggestion(err) == "" {
		t.Error("Для отсутствующего флага ожидалась подсказка")
	}
}

// TestRootCommandRejectsPositionalArgs проверяет, что файл передается только через флаг
func TestRootCommandRejectsPositionalArgs(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	rootCmd := app.createRootCommand(context.Background())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--file", "a.mp3", "b.mp3"})

	if err := rootCmd.Execute(); err == nil {
		t.Error("Ожидалась ошибка для позиционного аргумента")
	}
}

// TestRootCommandVersion проверяет вывод --version
func TestRootCommandVersion(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	rootCmd := app.createRootCommand(context.Background())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Ошибка выполнения --version: %v", err)
	}
	if !strings.Contains(buf.String(), version) {
		t.Errorf("Вывод --version не содержит версию: %s", buf.String())
	}
}

// TestRootCommandHelp проверяет, что справка описывает флаг --file
func TestRootCommandHelp(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	rootCmd := app.createRootCommand(context.Background())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Ошибка выполнения --help: %v", err)
	}
	for _, expected := range []string{"--file", "-f"} {
		if !strings.Contains(buf.String(), expected) {
			t.Errorf("Справка не содержит %q: %s", expected, buf.String())
		}
	}
}

// TestPlayMissingFile проверяет, что отсутствующий файл прерывает запуск до открытия звука
func TestPlayMissingFile(t *testing.T) {
	tempDir := t.TempDir()
	app := createTestApplication(t, tempDir)
	rootCmd := app.createRootCommand(context.Background())
	rootCmd.SetArgs([]string{"-f", filepath.Join(tempDir, "missing.mp3")})

	err := rootCmd.Execute()
	if !errors.Is(err, failure.ErrFileNotFound) {
		t.Errorf("Ожидалась ErrFileNotFound, получено: %v", err)
	}
}

// TestPrintError проверяет вывод ошибки с подсказкой
func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, failure.ErrUnsupportedFormat)

	output := buf.String()
	if !strings.Contains(output, "неподдерживаемый формат") {
		t.Errorf("Вывод не содержит ошибку: %s", output)
	}
	if !strings.Contains(output, "MP3, WAV, FLAC") {
		t.Errorf("Вывод не содержит подсказку: %s", output)
	}

	buf.Reset()
	printError(&buf, errors.New("boom"))
	if strings.Contains(buf.String(), "💡") {
		t.Errorf("Для неизвестной ошибки подсказка не нужна: %s", buf.String())
	}
}

// TestNewS3Downloader проверяет создание клиента S3 из конфигурации
func TestNewS3Downloader(t *testing.T) {
	app := createTestApplication(t, t.TempDir())

	downloader, err := app.newS3Downloader()
	if err != nil {
		t.Fatalf("Ошибка создания клиента S3: %v", err)
	}
	if downloader == nil {
		t.Error("Клиент S3 не должен быть nil")
	}
}

// TestStartMPRISDisabled проверяет, что выключенный MPRIS не регистрируется
func TestStartMPRISDisabled(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	disabled := false
	app.Config.MPRIS = &disabled

	stop := app.startMPRIS(nil, func(string) {}, metadata.Track{}, 0)
	stop()
}

// TestForwardProgress проверяет передачу прогресса и команду stop по окончании трека
func TestForwardProgress(t *testing.T) {
	progress := make(chan player.Status, 1)
	done := make(chan struct{}, 1)

	var positions []time.Duration
	var actions []string
	finished := make(chan struct{})
	go func() {
		forwardProgress(progress, done,
			func(current, _ time.Duration) { positions = append(positions, current) },
			func(action string) { actions = append(actions, action) },
		)
		close(finished)
	}()

	progress <- player.Status{Position: time.Second, Duration: time.Minute}
	time.Sleep(20 * time.Millisecond)
	done <- struct{}{}
	time.Sleep(20 * time.Millisecond)
	close(progress)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwardProgress не завершился после закрытия канала")
	}

	if len(positions) != 1 || positions[0] != time.Second {
		t.Errorf("Ожидалась одна позиция 1s, получено %v", positions)
	}
	if len(actions) != 1 || actions[0] != "stop" {
		t.Errorf("Ожидалась команда stop, получено %v", actions)
	}
}
