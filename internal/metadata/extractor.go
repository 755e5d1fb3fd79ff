// Package metadata предоставляет функционал для извлечения метаданных из аудио файлов
package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhowden/tag"

	"github.com/hazadus/go-turntable/internal/failure"
)

// Заглушки для отсутствующих полей
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Picture встроенная в тег картинка
type Picture struct {
	MIMEType string
	Data     []byte
}

// Track хранит метаданные трека. Пустая строка означает отсутствие поля.
type Track struct {
	Title   string
	Artist  string
	Album   string
	Picture *Picture
}

// DisplayTitle возвращает название или заглушку
func (t Track) DisplayTitle() string {
	return orDefault(t.Title, UnknownTitle)
}

// DisplayArtist возвращает исполнителя или заглушку
func (t Track) DisplayArtist() string {
	return orDefault(t.Artist, UnknownArtist)
}

// DisplayAlbum возвращает альбом или заглушку
func (t Track) DisplayAlbum() string {
	return orDefault(t.Album, UnknownAlbum)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromFile извлекает метаданные из файла
func (e *Extractor) ExtractFromFile(filePath string) (Track, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Track{}, fmt.Errorf("ошибка открытия файла %s: %w", filePath, failure.ErrFileNotFound)
		}
		return Track{}, fmt.Errorf("ошибка открытия файла %s: %w: %v", filePath, failure.ErrUnreadable, err)
	}
	defer file.Close()

	return e.ExtractFromReader(file)
}

// ExtractFromReader извлекает метаданные из io.ReadSeeker.
// Файл совсем без тегов дает пустой Track, битый тег дает ошибку.
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker) (Track, error) {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Track{}, fmt.Errorf("ошибка чтения: %w: %v", failure.ErrUnreadable, err)
	}

	// WAV хранит ID3v2 в отдельном чанке, который библиотека тегов не видит
	chunk, isContainer, err := findID3Chunk(reader)
	if err != nil {
		return Track{}, err
	}

	var metadata tag.Metadata
	switch {
	case isContainer && chunk == nil:
		return Track{}, nil
	case isContainer:
		metadata, err = tag.ReadID3v2Tags(bytes.NewReader(chunk))
	default:
		short, shortErr := tooShortForTags(reader)
		if shortErr != nil {
			return Track{}, shortErr
		}
		if short {
			return Track{}, nil
		}
		metadata, err = tag.ReadFrom(reader)
	}

	if errors.Is(err, tag.ErrNoTagsFound) {
		return Track{}, nil
	}
	if err != nil {
		return Track{}, fmt.Errorf("ошибка чтения тегов: %w: %v", failure.ErrUnsupportedFormat, err)
	}

	return fromMetadata(metadata), nil
}

// id3v1Size размер блока ID3v1 в конце файла
const id3v1Size = 128

// tooShortForTags сообщает, что файл без префикса ID3 короче блока ID3v1.
// Библиотека тегов ищет ID3v1 смещением от конца и на таком файле падает.
// Оставляет позицию в начале файла.
func tooShortForTags(reader io.ReadSeeker) (bool, error) {
	size, err := reader.Seek(0, io.SeekEnd)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения: %w: %v", failure.ErrUnreadable, err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("ошибка чтения: %w: %v", failure.ErrUnreadable, err)
	}
	if size >= id3v1Size {
		return false, nil
	}

	prefix := make([]byte, 3)
	n, _ := io.ReadFull(reader, prefix)
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("ошибка чтения: %w: %v", failure.ErrUnreadable, err)
	}
	return !bytes.Equal(prefix[:n], []byte("ID3")), nil
}

func fromMetadata(metadata tag.Metadata) Track {
	track := Track{
		Title:  metadata.Title(),
		Artist: metadata.Artist(),
		Album:  metadata.Album(),
	}
	if pic := metadata.Picture(); pic != nil && len(pic.Data) > 0 {
		track.Picture = &Picture{MIMEType: pic.MIMEType, Data: pic.Data}
	}
	return track
}
