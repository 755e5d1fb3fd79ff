// Package s3 предоставляет функционал для скачивания треков из Amazon S3
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Config содержит настройки для S3
type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// downloadAPI часть s3manager.Downloader, которой пользуется пакет
type downloadAPI interface {
	DownloadWithContext(ctx aws.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*s3manager.Downloader)) (int64, error)
}

// Downloader обертка для S3 downloader
type Downloader struct {
	s3Downloader downloadAPI
}

// NewDownloader создает новый S3 downloader
func NewDownloader(config *Config) (*Downloader, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}

	// Без ключей используется стандартная цепочка учетных данных AWS
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		)
	}

	// Если указан endpoint, добавляем его
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return &Downloader{s3Downloader: s3manager.NewDownloader(sess)}, nil
}

// Download скачивает объект в w и возвращает число байт
func (d *Downloader) Download(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error) {
	n, err := d.s3Downloader.DownloadWithContext(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка скачивания s3://%s/%s: %w", bucket, key, err)
	}
	return n, nil
}

// ParseURL разбирает ссылку вида s3://bucket/path/to/key
func ParseURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("неверная ссылка S3: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("ожидалась схема s3://, получено %q", u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("в ссылке %q нет бакета или ключа", raw)
	}
	return u.Host, key, nil
}
