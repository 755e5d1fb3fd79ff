package player

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/go-turntable/internal/failure"
)

// Format поддерживаемый аудио формат
type Format string

// Поддерживаемые форматы
const (
	FormatMP3    Format = "mp3"
	FormatWAV    Format = "wav"
	FormatFLAC   Format = "flac"
	FormatVorbis Format = "vorbis"
)

var extensions = map[string]Format{
	".mp3":  FormatMP3,
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".flac": FormatFLAC,
	".ogg":  FormatVorbis,
	".oga":  FormatVorbis,
}

// DetectFormat определяет формат по сигнатуре, а если она не распознана, по расширению
func DetectFormat(path string, header []byte) (Format, error) {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return FormatWAV, nil
	case bytes.HasPrefix(header, []byte("fLaC")):
		return FormatFLAC, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return FormatVorbis, nil
	case bytes.HasPrefix(header, []byte("ID3")):
		return FormatMP3, nil
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// Синхрослово MPEG кадра
		return FormatMP3, nil
	}

	if format, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return format, nil
	}
	return "", fmt.Errorf("не удалось определить формат %s: %w", filepath.Base(path), failure.ErrUnsupportedFormat)
}

// decode подбирает декодер beep для файла
func decode(file *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, beep.Format{}, fmt.Errorf("ошибка чтения заголовка: %w: %v", failure.ErrUnsupportedFormat, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, beep.Format{}, fmt.Errorf("ошибка чтения: %w: %v", failure.ErrUnreadable, err)
	}

	format, err := DetectFormat(file.Name(), header[:n])
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		f        beep.Format
	)
	switch format {
	case FormatMP3:
		streamer, f, err = mp3.Decode(file)
	case FormatWAV:
		streamer, f, err = wav.Decode(file)
	case FormatFLAC:
		streamer, f, err = flac.Decode(file)
	case FormatVorbis:
		streamer, f, err = vorbis.Decode(file)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("ошибка декодирования %s: %w: %v", format, failure.ErrUnsupportedFormat, err)
	}
	return streamer, f, nil
}
