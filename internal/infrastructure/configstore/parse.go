package configstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"screenstate/internal/domain/entity"
	apperrors "screenstate/internal/errors"
)

// entry элемент JSON-объекта верхнего уровня в порядке следования
type entry struct {
	key   string
	value json.RawMessage
}

// readObject читает файл как JSON-объект. Отсутствие файла и ошибки разбора
// логируются, в обоих случаях ok=false и отображение остаётся пустым.
func readObject(path string) ([]entry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("configuration file not found, using empty mapping", "path", path)
		} else {
			slog.Error("cannot read configuration file", "error",
				apperrors.Wrap(err, apperrors.KindConfigLoad, "read failed").WithPath(path))
		}
		return nil, false
	}

	entries, err := decodeObject(data)
	if err != nil {
		slog.Error("malformed configuration file, using empty mapping", "error",
			apperrors.Wrap(err, apperrors.KindConfigLoad, "decode failed").WithPath(path))
		return nil, false
	}
	return entries, true
}

// decodeObject разбирает объект верхнего уровня, сохраняя порядок ключей
func decodeObject(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("top-level value is not an object")
	}

	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		entries = append(entries, entry{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err == nil {
		return nil, fmt.Errorf("trailing data after top-level object")
	}
	return entries, nil
}

func parseTemplates(entries []entry) *entity.OrderedMap[[]string] {
	out := entity.NewOrderedMap[[]string]()
	for _, e := range entries {
		var files []string
		if err := json.Unmarshal(e.value, &files); err != nil {
			slog.Warn("templates entry is not a list of file names, skipping", "state", e.key, "error", err)
			continue
		}
		out.Set(entity.State(e.key), files)
	}
	return out
}

func parseOCRRegions(entries []entry) *entity.OrderedMap[[]entity.OCRRegion] {
	out := entity.NewOrderedMap[[]entity.OCRRegion]()
	for _, e := range entries {
		var items []json.RawMessage
		if err := json.Unmarshal(e.value, &items); err != nil {
			slog.Warn("ocr regions entry is not a list, skipping", "state", e.key, "error", err)
			continue
		}
		regions := make([]entity.OCRRegion, 0, len(items))
		for i, item := range items {
			var region entity.OCRRegion
			if err := json.Unmarshal(item, &region); err != nil {
				// Пустая зона сохраняет позиционные индексы остальных зон
				slog.Warn("malformed ocr region, it will never match", "state", e.key, "index", i, "error", err)
				region = entity.OCRRegion{}
			} else if !region.Region.Valid() {
				slog.Warn("ocr region has non-positive size, it will never match",
					"state", e.key, "index", i, "width", region.Region.Width, "height", region.Region.Height)
			}
			regions = append(regions, region)
		}
		out.Set(entity.State(e.key), regions)
	}
	return out
}

func parseTransitions(entries []entry) *entity.OrderedMap[[]entity.State] {
	out := entity.NewOrderedMap[[]entity.State]()
	for _, e := range entries {
		var next []entity.State
		if err := json.Unmarshal(e.value, &next); err != nil {
			slog.Warn("transitions entry is not a list of states, skipping", "state", e.key, "error", err)
			continue
		}
		out.Set(entity.State(e.key), next)
	}
	return out
}

func parseROIs(entries []entry) *entity.OrderedMap[entity.Rect] {
	out := entity.NewOrderedMap[entity.Rect]()
	for _, e := range entries {
		var roi entity.Rect
		if err := json.Unmarshal(e.value, &roi); err != nil {
			slog.Warn("roi entry is not a rectangle, skipping", "state", e.key, "error", err)
			continue
		}
		if !roi.Valid() {
			slog.Warn("roi has non-positive size, full capture will be searched", "state", e.key)
		}
		out.Set(entity.State(e.key), roi)
	}
	return out
}
