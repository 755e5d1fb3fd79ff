package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду плеера
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	var filePath string

	rootCmd := &cobra.Command{
		Use:   "turntable --file <path>",
		Short: "A minimal desktop music player",
		Long: `A minimal desktop music player: plays one MP3, WAV, FLAC or Ogg Vorbis file
and shows its title, artist, album and cover art.

The file may be a local path, an http(s):// URL or an s3://bucket/key reference.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.play(ctx, filePath)
		},
	}

	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "audio file to play (path, http(s):// or s3:// URL)")
	_ = rootCmd.MarkFlagRequired("file")

	return rootCmd
}
