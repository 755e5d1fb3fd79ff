package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hazadus/go-turntable/internal/failure"
)

// maxID3ChunkSize ограничивает размер чанка с тегами, который читается в память
const maxID3ChunkSize = 64 << 20

// findID3Chunk ищет чанк "id3 " в RIFF (WAV).
// isContainer == false означает, что файл не RIFF и его нужно отдать библиотеке тегов.
func findID3Chunk(r io.ReadSeeker) (chunk []byte, isContainer bool, err error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		// Слишком короткий файл: пусть решает библиотека тегов
		return nil, false, nil
	}

	if string(header[0:4]) != "RIFF" {
		return nil, false, nil
	}

	chunkHeader := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, true, nil
			}
			return nil, true, fmt.Errorf("ошибка чтения чанка: %w: %v", failure.ErrUnreadable, err)
		}

		id := strings.TrimSpace(string(chunkHeader[0:4]))
		size := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))

		if strings.EqualFold(id, "id3") {
			if size > maxID3ChunkSize {
				return nil, true, fmt.Errorf("чанк id3 слишком большой (%d байт): %w", size, failure.ErrUnsupportedFormat)
			}
			chunk = make([]byte, size)
			if _, err := io.ReadFull(r, chunk); err != nil {
				return nil, true, fmt.Errorf("обрезанный чанк id3: %w", failure.ErrUnsupportedFormat)
			}
			return chunk, true, nil
		}

		// Чанки выравниваются по четной границе
		skip := size + size%2
		if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
			return nil, true, fmt.Errorf("ошибка перехода по чанкам: %w: %v", failure.ErrUnreadable, err)
		}
	}
}
