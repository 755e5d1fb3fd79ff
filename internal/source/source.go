// Package source превращает аргумент --file в путь к локальному файлу
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/hazadus/go-turntable/internal/failure"
	"github.com/hazadus/go-turntable/internal/s3"
	"github.com/hazadus/go-turntable/internal/streaming"
)

const streamBufferSize = 256 * 1024 // 256KB буфер

// S3Downloader скачивает объект из S3
type S3Downloader interface {
	Download(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error)
}

// Source локальный файл, готовый к воспроизведению
type Source struct {
	Path      string
	temporary bool
}

// Temporary сообщает, скачан ли файл во временную директорию
func (s *Source) Temporary() bool {
	return s.temporary
}

// Close удаляет временный файл; для локальных файлов ничего не делает
func (s *Source) Close() error {
	if !s.temporary {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления временного файла: %w", err)
	}
	return nil
}

// Resolver разбирает локальные пути, ссылки http(s):// и s3://
type Resolver struct {
	cacheDir string
	newS3    func() (S3Downloader, error)
}

// NewResolver создает резолвер. newS3 вызывается только для ссылок s3://.
func NewResolver(cacheDir string, newS3 func() (S3Downloader, error)) *Resolver {
	return &Resolver{cacheDir: cacheDir, newS3: newS3}
}

// Resolve возвращает локальный файл для ссылки
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Source, error) {
	switch {
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return r.fetchHTTP(ctx, ref)
	case strings.HasPrefix(ref, "s3://"):
		return r.fetchS3(ctx, ref)
	default:
		return resolveLocal(ref)
	}
}

func resolveLocal(filePath string) (*Source, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("файл %s: %w", filePath, failure.ErrFileNotFound)
		}
		return nil, fmt.Errorf("файл %s: %w: %v", filePath, failure.ErrUnreadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s является директорией: %w", filePath, failure.ErrUnreadable)
	}
	return &Source{Path: filePath}, nil
}

func (r *Resolver) fetchHTTP(ctx context.Context, rawURL string) (*Source, error) {
	log.Printf("загружаем файл по URL: %s", rawURL)

	reader, err := streaming.NewReader(ctx, rawURL, streamBufferSize)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки %s: %w: %v", rawURL, failure.ErrUnreadable, err)
	}
	defer reader.Close()

	contentType := reader.ContentType()
	if contentType != "" && !strings.Contains(contentType, "audio/") && !strings.Contains(contentType, "application/octet-stream") {
		log.Printf("предупреждение: неожиданный Content-Type: %s", contentType)
	}

	file, err := r.createTemp(extensionOf(rawURL))
	if err != nil {
		return nil, err
	}
	src := &Source{Path: file.Name(), temporary: true}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		_ = src.Close()
		return nil, fmt.Errorf("ошибка загрузки %s: %w: %v", rawURL, failure.ErrUnreadable, err)
	}
	if err := file.Close(); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("ошибка записи временного файла: %w", err)
	}
	return src, nil
}

// s3Suggestion подсказка для ошибок доступа к S3
const s3Suggestion = "Проверьте aws_region, aws_access_key, aws_secret_key и aws_endpoint в ~/.turntable.yaml"

func (r *Resolver) fetchS3(ctx context.Context, rawURL string) (*Source, error) {
	bucket, key, err := s3.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", failure.ErrFileNotFound, err)
	}
	if r.newS3 == nil {
		return nil, failure.WithSuggestion(fmt.Errorf("доступ к S3 не настроен: %w", failure.ErrUnreadable), s3Suggestion)
	}
	downloader, err := r.newS3()
	if err != nil {
		return nil, failure.WithSuggestion(fmt.Errorf("ошибка подключения к S3: %w: %v", failure.ErrUnreadable, err), s3Suggestion)
	}

	log.Printf("скачиваем s3://%s/%s", bucket, key)

	file, err := r.createTemp(path.Ext(key))
	if err != nil {
		return nil, err
	}
	src := &Source{Path: file.Name(), temporary: true}

	_, err = downloader.Download(ctx, bucket, key, file)
	closeErr := file.Close()
	if err != nil {
		_ = src.Close()
		return nil, failure.WithSuggestion(fmt.Errorf("%w: %v", failure.ErrUnreadable, err), s3Suggestion)
	}
	if closeErr != nil {
		_ = src.Close()
		return nil, fmt.Errorf("ошибка записи временного файла: %w", closeErr)
	}
	return src, nil
}

func (r *Resolver) createTemp(ext string) (*os.File, error) {
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории кэша: %w", err)
	}
	file, err := os.CreateTemp(r.cacheDir, "turntable-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	return file, nil
}

// extensionOf достает расширение из пути ссылки без параметров запроса
func extensionOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}
