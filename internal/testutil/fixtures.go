// Package testutil собирает тестовые аудио файлы с тегами прямо в памяти
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// Tags описывает содержимое тестового блока ID3v2
type Tags struct {
	Title   string
	Artist  string
	Album   string
	Picture []byte
	MIME    string
}

// ID3v2 собирает тег ID3v2.3 с текстовыми фреймами и необязательной обложкой
func ID3v2(tags Tags) []byte {
	var frames bytes.Buffer
	writeText := func(id, value string) {
		if value == "" {
			return
		}
		payload := append([]byte{0x00}, value...)
		writeFrame(&frames, id, payload)
	}
	writeText("TIT2", tags.Title)
	writeText("TPE1", tags.Artist)
	writeText("TALB", tags.Album)

	if len(tags.Picture) > 0 {
		mime := tags.MIME
		if mime == "" {
			mime = "image/png"
		}
		var payload bytes.Buffer
		payload.WriteByte(0x00) // ISO-8859-1
		payload.WriteString(mime)
		payload.WriteByte(0x00)
		payload.WriteByte(0x03) // передняя обложка
		payload.WriteByte(0x00) // пустое описание
		payload.Write(tags.Picture)
		writeFrame(&frames, "APIC", payload.Bytes())
	}

	var out bytes.Buffer
	out.WriteString("ID3")
	out.Write([]byte{0x03, 0x00, 0x00})
	out.Write(syncsafe(frames.Len()))
	out.Write(frames.Bytes())
	return out.Bytes()
}

func writeFrame(buf *bytes.Buffer, id string, payload []byte) {
	buf.WriteString(id)
	_ = binary.Write(buf, binary.BigEndian, uint32(len(payload)))
	buf.Write([]byte{0x00, 0x00})
	buf.Write(payload)
}

func syncsafe(n int) []byte {
	return []byte{
		byte(n>>21) & 0x7f,
		byte(n>>14) & 0x7f,
		byte(n>>7) & 0x7f,
		byte(n) & 0x7f,
	}
}

// WAV собирает моно PCM 16 бит с синусом 440 Гц; если id3 не пуст,
// он дописывается чанком "id3 " после данных
func WAV(sampleRate int, samples int, id3 []byte) []byte {
	var data bytes.Buffer
	for i := 0; i < samples; i++ {
		v := int16(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)) * 8000)
		_ = binary.Write(&data, binary.LittleEndian, v)
	}

	var body bytes.Buffer
	body.WriteString("WAVE")

	body.WriteString("fmt ")
	_ = binary.Write(&body, binary.LittleEndian, uint32(16))
	_ = binary.Write(&body, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&body, binary.LittleEndian, uint16(1)) // моно
	_ = binary.Write(&body, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&body, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&body, binary.LittleEndian, uint16(2))
	_ = binary.Write(&body, binary.LittleEndian, uint16(16))

	body.WriteString("data")
	_ = binary.Write(&body, binary.LittleEndian, uint32(data.Len()))
	body.Write(data.Bytes())

	if len(id3) > 0 {
		body.WriteString("id3 ")
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(id3)))
		body.Write(id3)
		if len(id3)%2 == 1 {
			body.WriteByte(0x00)
		}
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

// PNG кодирует однотонную картинку заданного размера
func PNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 256), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// WriteFile кладет содержимое во временную директорию теста
func WriteFile(t testing.TB, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}
	return path
}
