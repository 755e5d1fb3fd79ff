package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazadus/go-turntable/internal/config"
	"github.com/hazadus/go-turntable/internal/failure"
	"github.com/hazadus/go-turntable/internal/s3"
	"github.com/hazadus/go-turntable/internal/source"
)

const defaultConfigPath = "~/.turntable.yaml"

// version подставляется при сборке через -ldflags
var version = "dev"

// Application хранит зависимости, общие для всех команд
type Application struct {
	Config *config.Config
}

// NewApplication создает приложение с загруженной конфигурацией
func NewApplication(cfg *config.Config) *Application {
	return &Application{Config: cfg}
}

// newS3Downloader создает клиент S3 для ссылок s3://
func (app *Application) newS3Downloader() (source.S3Downloader, error) {
	downloader, err := s3.NewDownloader(&s3.Config{
		Region:    app.Config.AwsRegion,
		AccessKey: app.Config.AwsAccessKey,
		SecretKey: app.Config.AwsSecretKey,
		Endpoint:  app.Config.AwsEndpoint,
	})
	if err != nil {
		return nil, err
	}
	return downloader, nil
}

// printError выводит ошибку и подсказку, если она есть
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "❌ Ошибка: %v\n", err)
	if suggestion := failure.Suggestion(err); suggestion != "" {
		fmt.Fprintf(w, "💡 %s\n", suggestion)
	}
}

func main() {
	log.SetPrefix("turntable: ")

	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := NewApplication(cfg)
	if err := app.createRootCommand(ctx).Execute(); err != nil {
		printError(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
