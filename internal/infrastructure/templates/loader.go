// Package templates загружает эталонные изображения состояний в оттенках серого.
package templates

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"screenstate/internal/domain/entity"
	"screenstate/internal/domain/port"
	apperrors "screenstate/internal/errors"
)

// ReadFunc читает файл изображения в оттенках серого
type ReadFunc func(path string) (*image.Gray, error)

// Loader загружает эталоны из <images>/<resolution>/ с откатом на <images>/
type Loader struct {
	imagesDir  string
	resolution string
	read       ReadFunc
}

// NewLoader создаёт загрузчик
func NewLoader(imagesDir, resolution string, read ReadFunc) *Loader {
	return &Loader{imagesDir: imagesDir, resolution: resolution, read: read}
}

// Load загружает все эталоны. Нечитаемые файлы логируются и пропускаются,
// состояния без единого эталона в набор не попадают.
func (l *Loader) Load(files *entity.OrderedMap[[]string]) *entity.TemplateSet {
	set := entity.NewTemplateSet()

	for _, state := range files.Keys() {
		names, _ := files.Get(state)
		for _, name := range names {
			path, err := l.resolve(name)
			if err != nil {
				slog.Error("template file not found", "state", state, "path", path, "error", err)
				set.MarkMissing(path)
				continue
			}

			img, err := l.read(path)
			if err != nil {
				slog.Error("cannot load template", "state", state, "path", path, "error", err)
				set.MarkMissing(path)
				continue
			}
			if img == nil || img.Bounds().Empty() {
				slog.Error("template is empty", "state", state, "path", path)
				set.MarkMissing(path)
				continue
			}
			set.Add(state, entity.Template{Path: path, Image: img})
		}

		if !set.Has(state) {
			slog.Warn("state has no loadable templates and cannot be recognized", "state", state)
		}
	}

	warnDuplicates(set)

	slog.Info("templates loaded",
		"states", set.Len(),
		"missing", len(set.Missing()),
		"resolution", l.resolution,
	)
	return set
}

// resolve ищет файл сначала в подкаталоге разрешения, затем в корне каталога изображений.
// Пути кандидатов абсолютные; при неудаче возвращается путь в подкаталоге разрешения.
func (l *Loader) resolve(name string) (string, error) {
	candidates := []string{absPath(filepath.Join(l.imagesDir, name))}
	if l.resolution != "" {
		candidates = append([]string{absPath(filepath.Join(l.imagesDir, l.resolution, name))}, candidates...)
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return candidates[0], apperrors.Wrap(
		fmt.Errorf("looked in %v", candidates), apperrors.KindTemplateLoad, "template file not found",
	).WithPath(candidates[0])
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Проверка реализации интерфейса
var _ port.TemplateLoader = (*Loader)(nil)
