// Package failure описывает классы ошибок запуска плеера и подсказки для пользователя
package failure

import (
	"errors"
	"strings"
)

// Классы ошибок, на которые оборачиваются все ошибки этапа запуска
var (
	ErrFileNotFound      = errors.New("файл не найден")
	ErrUnreadable        = errors.New("файл недоступен для чтения")
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат")
	ErrNoOutputDevice    = errors.New("нет устройства вывода звука")
	ErrUIConstruction    = errors.New("ошибка построения интерфейса")
	ErrInvalidConfig     = errors.New("некорректная конфигурация")
)

// Error оборачивает ошибку и добавляет к ней подсказку
type Error struct {
	Err        error
	Suggestion string
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithSuggestion оборачивает ошибку подсказкой
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &Error{Err: err, Suggestion: suggestion}
}

// Suggestion возвращает подсказку для ошибки или пустую строку
func Suggestion(err error) string {
	if err == nil {
		return ""
	}

	var withHint *Error
	if errors.As(err, &withHint) && withHint.Suggestion != "" {
		return withHint.Suggestion
	}

	switch {
	case errors.Is(err, ErrFileNotFound):
		return "Проверьте путь, переданный в --file"
	case errors.Is(err, ErrUnreadable):
		return "Проверьте права доступа к файлу"
	case errors.Is(err, ErrUnsupportedFormat):
		return "Поддерживаются MP3, WAV, FLAC и Ogg Vorbis"
	case errors.Is(err, ErrNoOutputDevice):
		return "Подключите устройство вывода звука или проверьте настройки звуковой системы"
	case errors.Is(err, ErrUIConstruction):
		return "Проверьте файл разметки, указанный в gui_layout"
	case errors.Is(err, ErrInvalidConfig):
		return "Проверьте ~/.turntable.yaml"
	}

	if strings.Contains(strings.ToLower(err.Error()), "required flag") {
		return "Укажите файл: turntable --file <путь>"
	}
	return ""
}
