package gui

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-turntable/internal/failure"
)

//go:embed layout.yaml
var defaultLayout []byte

// Свойства, к которым можно привязать элементы раскладки
const (
	PropSongTitle    = "song_title"
	PropSongArtist   = "song_artist"
	PropSongAlbum    = "song_album"
	PropPlayerStatus = "player_status"
	PropPosition     = "position"
	PropCover        = "cover"
)

var textProps = []string{PropSongTitle, PropSongArtist, PropSongAlbum, PropPlayerStatus, PropPosition}

// Типы узлов раскладки
const (
	KindVBox   = "vbox"
	KindHBox   = "hbox"
	KindCenter = "center"
	KindLabel  = "label"
	KindImage  = "image"
	KindButton = "button"
	KindSpacer = "spacer"
)

// Size размер элемента в единицах fyne
type Size struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// Node узел декларативного описания окна
type Node struct {
	Kind     string `yaml:"kind"`
	Bind     string `yaml:"bind,omitempty"`
	Text     string `yaml:"text,omitempty"`
	Icon     string `yaml:"icon,omitempty"`
	Emit     string `yaml:"emit,omitempty"`
	Style    string `yaml:"style,omitempty"`
	Align    string `yaml:"align,omitempty"`
	Size     *Size  `yaml:"size,omitempty"`
	Children []Node `yaml:"children,omitempty"`
}

// Layout описание окна плеера
type Layout struct {
	Title  string  `yaml:"title"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
	Root   Node    `yaml:"root"`
}

// DefaultLayout возвращает встроенную раскладку
func DefaultLayout() *Layout {
	layout, err := ParseLayout(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("встроенная раскладка повреждена: %v", err))
	}
	return layout
}

// LoadLayout читает раскладку из файла. Пустой путь означает встроенную раскладку.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения раскладки %s: %w: %v", path, failure.ErrUIConstruction, err)
	}
	return ParseLayout(data)
}

// ParseLayout разбирает YAML раскладки. Неизвестные поля считаются ошибкой.
func ParseLayout(data []byte) (*Layout, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var layout Layout
	if err := decoder.Decode(&layout); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("пустая раскладка: %w", failure.ErrUIConstruction)
		}
		return nil, fmt.Errorf("ошибка разбора раскладки: %w: %v", failure.ErrUIConstruction, err)
	}

	if layout.Title == "" {
		layout.Title = "turntable"
	}
	if err := layout.Root.validate("root"); err != nil {
		return nil, err
	}
	return &layout, nil
}

func (n *Node) validate(where string) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%s: %s: %w", where, fmt.Sprintf(format, args...), failure.ErrUIConstruction)
	}

	switch n.Kind {
	case KindVBox, KindHBox, KindCenter:
		if n.Bind != "" || n.Emit != "" {
			return fail("контейнер %s не поддерживает bind и emit", n.Kind)
		}
	case KindLabel:
		if n.Bind != "" && !slices.Contains(textProps, n.Bind) {
			return fail("неизвестное свойство %q", n.Bind)
		}
	case KindImage:
		if n.Bind != PropCover {
			return fail("изображение можно привязать только к %q", PropCover)
		}
	case KindButton:
		if n.Emit == "" {
			return fail("у кнопки не задана команда emit")
		}
		if _, ok := iconByName(n.Icon); !ok {
			return fail("неизвестная иконка %q", n.Icon)
		}
	case KindSpacer:
	case "":
		return fail("не задан тип узла")
	default:
		return fail("неизвестный тип узла %q", n.Kind)
	}

	switch n.Style {
	case "", "bold", "italic", "monospace":
	default:
		return fail("неизвестный стиль %q", n.Style)
	}
	switch n.Align {
	case "", "leading", "center", "trailing":
	default:
		return fail("неизвестное выравнивание %q", n.Align)
	}

	if len(n.Children) > 0 && !n.isContainer() {
		return fail("узел %s не может содержать дочерние элементы", n.Kind)
	}
	for i := range n.Children {
		if err := n.Children[i].validate(fmt.Sprintf("%s.children[%d]", where, i)); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) isContainer() bool {
	return n.Kind == KindVBox || n.Kind == KindHBox || n.Kind == KindCenter
}
