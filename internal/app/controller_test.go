package app

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazadus/go-turntable/internal/failure"
	"github.com/hazadus/go-turntable/internal/metadata"
	"github.com/hazadus/go-turntable/internal/testutil"
)

type fakeDisplay struct {
	title, artist, album string
	cover                *image.RGBA
	status               State
}

func (d *fakeDisplay) SetSongTitle(title string)   { d.title = title }
func (d *fakeDisplay) SetSongArtist(artist string) { d.artist = artist }
func (d *fakeDisplay) SetSongAlbum(album string)   { d.album = album }
func (d *fakeDisplay) SetCover(img *image.RGBA)    { d.cover = img }
func (d *fakeDisplay) SetStatus(state State)       { d.status = state }
func (d *fakeDisplay) Status() State               { return d.status }

type fakeBackend struct {
	calls []string
}

func (b *fakeBackend) Play()  { b.calls = append(b.calls, "play") }
func (b *fakeBackend) Pause() { b.calls = append(b.calls, "pause") }
func (b *fakeBackend) Stop()  { b.calls = append(b.calls, "stop") }

func newTestController(initial State) (*Controller, *fakeDisplay, *fakeBackend) {
	display := &fakeDisplay{status: initial}
	backend := &fakeBackend{}
	return NewController(display, backend), display, backend
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "playing", Playing.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "stopped", Stopped.String())
}

func TestDispatchTargetStates(t *testing.T) {
	for _, initial := range []State{Stopped, Playing, Paused} {
		c, display, backend := newTestController(initial)
		c.Dispatch(ActionPause)
		assert.Equal(t, Paused, display.status, "pause from %s", initial)
		assert.Equal(t, []string{"pause"}, backend.calls)

		c, display, backend = newTestController(initial)
		c.Dispatch(ActionStop)
		assert.Equal(t, Stopped, display.status, "stop from %s", initial)
		assert.Equal(t, []string{"stop"}, backend.calls)
	}
}

func TestDispatchStopIsIdempotent(t *testing.T) {
	c, display, _ := newTestController(Playing)

	c.Dispatch(ActionStop)
	assert.Equal(t, Stopped, display.status)
	c.Dispatch(ActionStop)
	assert.Equal(t, Stopped, display.status)
}

func TestDispatchPlayToggles(t *testing.T) {
	c, display, backend := newTestController(Stopped)

	c.Dispatch(ActionPlay)
	assert.Equal(t, Playing, display.status)

	c.Dispatch(ActionPlay)
	assert.Equal(t, Paused, display.status)

	c.Dispatch(ActionPlay)
	assert.Equal(t, Playing, display.status)

	assert.Equal(t, []string{"play", "pause", "play"}, backend.calls)
}

func TestDispatchUnknownTokens(t *testing.T) {
	for _, token := range []string{"seek", "", "PLAY", "Stop", " play"} {
		c, display, backend := newTestController(Playing)
		notified := false
		c.OnStatusChange(func(State) { notified = true })

		c.Dispatch(token)

		assert.Equal(t, Playing, display.status, "token %q", token)
		assert.Empty(t, backend.calls, "token %q", token)
		assert.False(t, notified, "token %q", token)
	}
}

func TestDispatchNotifiesListeners(t *testing.T) {
	c, _, _ := newTestController(Stopped)
	var seen []State
	c.OnStatusChange(func(s State) { seen = append(seen, s) })

	c.Dispatch(ActionPlay)
	c.Dispatch(ActionPause)
	c.Dispatch(ActionStop)

	assert.Equal(t, []State{Playing, Paused, Stopped}, seen)
}

func TestRenderPlaceholders(t *testing.T) {
	display := &fakeDisplay{}

	require.NoError(t, Render(display, metadata.Track{}))

	assert.Equal(t, "Unknown Title", display.title)
	assert.Equal(t, "Unknown Artist", display.artist)
	assert.Equal(t, "Unknown Album", display.album)
	assert.Nil(t, display.cover)
}

func TestRenderCoverDimensions(t *testing.T) {
	display := &fakeDisplay{}
	track := metadata.Track{
		Title:   "Title",
		Picture: &metadata.Picture{MIMEType: "image/png", Data: testutil.PNG(64, 48)},
	}

	require.NoError(t, Render(display, track))

	require.NotNil(t, display.cover)
	assert.Equal(t, 64, display.cover.Bounds().Dx())
	assert.Equal(t, 48, display.cover.Bounds().Dy())
	assert.Equal(t, "Title", display.title)
}

func TestRenderBrokenCover(t *testing.T) {
	display := &fakeDisplay{}
	track := metadata.Track{Picture: &metadata.Picture{Data: []byte("garbage")}}

	err := Render(display, track)
	assert.ErrorIs(t, err, failure.ErrUnsupportedFormat)
}

func TestStartWAVScenario(t *testing.T) {
	id3 := testutil.ID3v2(testutil.Tags{Title: "Test", Artist: "Artist", Album: "Album"})
	path := testutil.WriteFile(t, "scenario.wav", testutil.WAV(8000, 400, id3))

	display := &fakeDisplay{status: Playing}
	backend := &fakeBackend{}
	var openedPath string
	open := func(p string) (Backend, error) {
		openedPath = p
		return backend, nil
	}

	c, track, err := Start(display, open, metadata.NewExtractor().ExtractFromFile, path)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, path, openedPath)
	assert.Equal(t, "Test", track.Title)
	assert.Equal(t, "Test", display.title)
	assert.Equal(t, "Artist", display.artist)
	assert.Equal(t, "Album", display.album)
	assert.Nil(t, display.cover)
	assert.Equal(t, Stopped, display.status)
	assert.Empty(t, backend.calls)

	c.Dispatch(ActionPlay)
	assert.Equal(t, Playing, display.status)
	assert.Equal(t, []string{"play"}, backend.calls)
}

func TestStartOpenFailure(t *testing.T) {
	display := &fakeDisplay{}
	readCalled := false
	open := func(string) (Backend, error) { return nil, failure.ErrNoOutputDevice }
	read := func(string) (metadata.Track, error) {
		readCalled = true
		return metadata.Track{}, nil
	}

	_, _, err := Start(display, open, read, "any.wav")
	assert.ErrorIs(t, err, failure.ErrNoOutputDevice)
	assert.False(t, readCalled, "теги не читаются, если не удалось открыть вывод")
	assert.Equal(t, Stopped, display.status)
}

func TestStartTagFailure(t *testing.T) {
	display := &fakeDisplay{}
	open := func(string) (Backend, error) { return &fakeBackend{}, nil }
	read := func(string) (metadata.Track, error) {
		return metadata.Track{}, errors.Join(failure.ErrUnsupportedFormat, errors.New("bad frame"))
	}

	_, _, err := Start(display, open, read, "any.wav")
	assert.ErrorIs(t, err, failure.ErrUnsupportedFormat)
	assert.Empty(t, display.title)
}
