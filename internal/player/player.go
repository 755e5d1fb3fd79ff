// Package player содержит компоненты для управления воспроизведением аудио
package player

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/hazadus/go-turntable/internal/failure"
)

// OutputSampleRate частота, на которой открывается устройство вывода.
// Треки с другой частотой пересэмплируются.
const OutputSampleRate beep.SampleRate = 44100

const (
	defaultBufferDuration   = 100 * time.Millisecond
	defaultProgressInterval = 500 * time.Millisecond
	resampleQuality         = 4
)

// Status представляет текущий статус плеера
type Status struct {
	Position time.Duration // Текущая позиция
	Duration time.Duration // Общая продолжительность
	Playing  bool          // Воспроизводится ли трек
}

// output абстрагирует пакет speaker
type output interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
	Clear()
}

type speakerOutput struct{}

func (speakerOutput) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}
func (speakerOutput) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerOutput) Lock()                   { speaker.Lock() }
func (speakerOutput) Unlock()                 { speaker.Unlock() }
func (speakerOutput) Clear()                  { speaker.Clear() }

// Option настраивает плеер
type Option func(*Player)

// WithBufferDuration задает размер буфера устройства вывода
func WithBufferDuration(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.bufferDuration = d
		}
	}
}

// WithProgressInterval задает период отправки обновлений прогресса
func WithProgressInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.progressInterval = d
		}
	}
}

// Player управляет воспроизведением одного трека
type Player struct {
	out              output
	bufferDuration   time.Duration
	progressInterval time.Duration

	// Каналы для обратной связи
	progressChan chan Status
	doneChan     chan struct{}

	// Внутреннее состояние
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	mutex         sync.Mutex
	isInitialized bool
	isPaused      bool
	closed        bool
	monitoring    bool
	finished      atomic.Bool

	// Компоненты для воспроизведения
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

// New создает новый экземпляр плеера поверх системного устройства вывода
func New(opts ...Option) *Player {
	return newPlayer(speakerOutput{}, opts...)
}

func newPlayer(out output, opts ...Option) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		out:              out,
		bufferDuration:   defaultBufferDuration,
		progressInterval: defaultProgressInterval,
		progressChan:     make(chan Status, 1),
		doneChan:         make(chan struct{}, 1),
		ctx:              ctx,
		cancel:           cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Progress возвращает канал для получения обновлений прогресса
func (p *Player) Progress() <-chan Status {
	return p.progressChan
}

// Done возвращает канал, в который приходит сигнал о естественном окончании трека
func (p *Player) Done() <-chan struct{} {
	return p.doneChan
}

// Open захватывает устройство вывода; повторный вызов ничего не делает
func (p *Player) Open() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.isInitialized {
		return nil
	}
	if err := p.out.Init(OutputSampleRate, OutputSampleRate.N(p.bufferDuration)); err != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w: %v", failure.ErrNoOutputDevice, err)
	}
	p.isInitialized = true
	return nil
}

// Load открывает и декодирует файл, ставит его в очередь вывода на паузе
func (p *Player) Load(path string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.isInitialized {
		return fmt.Errorf("устройство вывода не открыто: %w", failure.ErrNoOutputDevice)
	}
	if p.closed {
		return errors.New("плеер закрыт")
	}
	if err := p.unloadInternal(); err != nil {
		log.Printf("ошибка освобождения предыдущего трека: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("ошибка открытия файла %s: %w", path, failure.ErrFileNotFound)
		}
		return fmt.Errorf("ошибка открытия файла %s: %w: %v", path, failure.ErrUnreadable, err)
	}

	streamer, format, err := decode(file)
	if err != nil {
		file.Close()
		return err
	}

	p.file = file
	p.streamer = streamer
	p.format = format
	p.isPaused = true
	p.finished.Store(false)
	p.ctrl = p.newCtrl(true)
	p.out.Play(beep.Seq(p.ctrl, beep.Callback(p.onFinished)))

	// Запускаем мониторинг прогресса в отдельной горутине
	if !p.monitoring {
		p.monitoring = true
		p.wg.Add(1)
		go p.monitorProgress()
	}

	return nil
}

// newCtrl собирает цепочку пауза -> пересэмплирование -> декодер
func (p *Player) newCtrl(paused bool) *beep.Ctrl {
	var s beep.Streamer = p.streamer
	if p.format.SampleRate != OutputSampleRate {
		s = beep.Resample(resampleQuality, p.format.SampleRate, OutputSampleRate, p.streamer)
	}
	return &beep.Ctrl{Streamer: s, Paused: paused}
}

// onFinished вызывается из горутины speaker под его блокировкой
func (p *Player) onFinished() {
	p.finished.Store(true)
	select {
	case p.doneChan <- struct{}{}:
	default:
	}
}

// Play запускает или продолжает воспроизведение.
// После окончания трека воспроизведение начинается сначала.
func (p *Player) Play() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl == nil {
		return
	}

	if p.finished.Swap(false) {
		p.out.Lock()
		if err := p.streamer.Seek(0); err != nil {
			log.Printf("ошибка перемотки в начало: %v", err)
		}
		p.out.Unlock()
		p.ctrl = p.newCtrl(false)
		p.out.Play(beep.Seq(p.ctrl, beep.Callback(p.onFinished)))
	} else {
		p.out.Lock()
		p.ctrl.Paused = false
		p.out.Unlock()
	}
	p.isPaused = false
}

// Pause приостанавливает воспроизведение
func (p *Player) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl == nil {
		return
	}
	p.out.Lock()
	p.ctrl.Paused = true
	p.out.Unlock()
	p.isPaused = true
}

// Stop останавливает воспроизведение и перематывает трек в начало
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl == nil {
		return
	}
	p.out.Lock()
	p.ctrl.Paused = true
	if err := p.streamer.Seek(0); err != nil {
		log.Printf("ошибка перемотки в начало: %v", err)
	}
	p.out.Unlock()
	p.isPaused = true
}

// IsPlaying возвращает true, если трек воспроизводится
func (p *Player) IsPlaying() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.ctrl != nil && !p.isPaused && !p.finished.Load()
}

// Status возвращает снимок текущего состояния
func (p *Player) Status() Status {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.statusInternal()
}

// statusInternal должен вызываться под мьютексом
func (p *Player) statusInternal() Status {
	if p.streamer == nil {
		return Status{}
	}
	p.out.Lock()
	position := p.format.SampleRate.D(p.streamer.Position())
	total := p.format.SampleRate.D(p.streamer.Len())
	p.out.Unlock()

	return Status{
		Position: position,
		Duration: total,
		Playing:  !p.isPaused && !p.finished.Load(),
	}
}

// unloadInternal освобождает текущий трек (должен вызываться под мьютексом)
func (p *Player) unloadInternal() error {
	if p.ctrl != nil {
		p.out.Clear()
		p.ctrl = nil
	}

	var err error
	if p.streamer != nil {
		err = p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		// Декодер мог уже закрыть файл
		if closeErr := p.file.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && err == nil {
			err = closeErr
		}
		p.file = nil
	}
	p.isPaused = false
	return err
}

// Close закрывает плеер и освобождает ресурсы
func (p *Player) Close() error {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return nil
	}
	p.closed = true
	p.mutex.Unlock()

	p.cancel()
	p.wg.Wait()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.isInitialized {
		p.out.Clear()
	}
	err := p.unloadInternal()
	close(p.progressChan)
	close(p.doneChan)
	return err
}

// monitorProgress отправляет обновления прогресса, пока плеер не закрыт
func (p *Player) monitorProgress() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			status := p.Status()

			select {
			case p.progressChan <- status:
			default:
				// Если канал заблокирован, пропускаем обновление
			}
		}
	}
}
