// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-turntable/internal/failure"
)

// Оболочки интерфейса
const (
	UIGraphical = "gui"
	UITerminal  = "tui"
)

// Значения по умолчанию
const (
	DefaultUI              = UIGraphical
	DefaultSpeakerBufferMs = 100
	DefaultCacheDir        = "~/.cache/turntable"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	UI              string `yaml:"ui"`
	SpeakerBufferMs int    `yaml:"speaker_buffer_ms"`
	MPRIS           *bool  `yaml:"mpris"`
	GUILayout       string `yaml:"gui_layout"`
	CacheDir        string `yaml:"cache_dir"`
	AwsAccessKey    string `yaml:"aws_access_key"`
	AwsSecretKey    string `yaml:"aws_secret_key"`
	AwsRegion       string `yaml:"aws_region"`
	AwsEndpoint     string `yaml:"aws_endpoint"`
}

// Default возвращает конфигурацию по умолчанию с раскрытыми путями
func Default() *Config {
	config := &Config{}
	if err := config.applyDefaults(); err != nil {
		config.CacheDir = filepath.Join(os.TempDir(), "turntable")
	}
	return config
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не является ошибкой: используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	path, err := expandHome(filePath)
	if err != nil {
		return nil, err
	}

	config := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Работаем на значениях по умолчанию
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации (yaml): %w: %v", failure.ErrInvalidConfig, err)
		}
	}

	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	switch c.UI {
	case UIGraphical, UITerminal:
	default:
		return fmt.Errorf("%w: ui должен быть %q или %q, получено %q", failure.ErrInvalidConfig, UIGraphical, UITerminal, c.UI)
	}
	if c.SpeakerBufferMs <= 0 || c.SpeakerBufferMs > 2000 {
		return fmt.Errorf("%w: speaker_buffer_ms вне диапазона 1..2000: %d", failure.ErrInvalidConfig, c.SpeakerBufferMs)
	}
	return nil
}

// MPRISEnabled сообщает, нужно ли регистрировать плеер в D-Bus
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS == nil || *c.MPRIS
}

func (c *Config) applyDefaults() error {
	if c.UI == "" {
		c.UI = DefaultUI
	}
	if c.SpeakerBufferMs == 0 {
		c.SpeakerBufferMs = DefaultSpeakerBufferMs
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}

	var err error
	if c.CacheDir, err = expandHome(c.CacheDir); err != nil {
		return err
	}
	if c.GUILayout != "" {
		if c.GUILayout, err = expandHome(c.GUILayout); err != nil {
			return err
		}
	}
	return nil
}

// expandHome раскрывает тильду в начале пути
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
