// Package streaming содержит буферизованный HTTP ридер для скачивания треков по ссылке
package streaming

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"time"
)

// userAgent передается серверу в каждом запросе
const userAgent = "go-turntable/1.0"

// headerTimeout ограничивает ожидание заголовков ответа.
// Тело качается без ограничения по времени, отменить загрузку можно через ctx.
const headerTimeout = 30 * time.Second

// Файл качается один раз, поэтому пул соединений не настраивается
var client = &http.Client{
	Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: headerTimeout,
	},
}

// Reader буферизованное тело HTTP ответа
type Reader struct {
	body *bufio.Reader
	resp *http.Response
}

// NewReader выполняет GET по ссылке и возвращает поток тела ответа
func NewReader(ctx context.Context, url string, bufferSize int) (*Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	// Без сжатия размер на диске совпадает с Content-Length
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	return &Reader{body: bufio.NewReaderSize(resp.Body, bufferSize), resp: resp}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.body.Read(p)
}

// ContentType возвращает Content-Type ответа
func (r *Reader) ContentType() string {
	return r.resp.Header.Get("Content-Type")
}

// Close закрывает соединение
func (r *Reader) Close() error {
	return r.resp.Body.Close()
}
