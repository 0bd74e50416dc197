package telegram

import (
	"fmt"
	"strconv"
	"strings"

	app "screenstate/internal/application"
	"screenstate/internal/domain/entity"
)

const maxHistoryLimit = 50

var sourceNames = map[entity.Source]string{
	entity.SourceScreen: "экран",
	entity.SourcePhoto:  "скриншот",
}

// formatEntry описывает результат распознавания
func formatEntry(entry *entity.HistoryEntry) string {
	r := entry.Report
	var sb strings.Builder

	switch r.Method {
	case entity.MethodTemplate:
		fmt.Fprintf(&sb, "✅ Состояние: %s\n", r.State)
		if r.Confidence != nil {
			fmt.Fprintf(&sb, "🎯 Эталон, уверенность %.2f\n", *r.Confidence)
		}
	case entity.MethodOCR:
		fmt.Fprintf(&sb, "✅ Состояние: %s\n", r.State)
		sb.WriteString("🔤 Подтверждено текстом\n")
		for i := 0; i < len(r.OCRResults); i++ {
			outcome, ok := r.OCRResults[i]
			if !ok {
				continue
			}
			mark := "✗"
			if outcome.MatchExpected {
				mark = "✓"
			}
			fmt.Fprintf(&sb, "  %s зона %d: %q\n", mark, i, outcome.ExtractedText)
		}
	default:
		sb.WriteString("❔ Состояние не распознано\n")
	}

	fmt.Fprintf(&sb, "⏱ %.3f с, %s, %s", r.DetectionTimeS, sourceNames[entry.Source], entry.CreatedAt.Format("15:04:05"))
	return sb.String()
}

// formatHistory описывает список распознаваний, новые первыми
func formatHistory(entries []*entity.HistoryEntry) string {
	if len(entries) == 0 {
		return msgNoHistory
	}

	var sb strings.Builder
	sb.WriteString("🕘 Последние распознавания:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s  %-8s %s\n", e.CreatedAt.Format("15:04:05"), e.Report.Method, e.Report.State)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatStats описывает конфигурацию после перезагрузки
func formatStats(stats app.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔄 Конфигурация перечитана\nСостояний с эталонами: %d\n", len(stats.States))
	fmt.Fprintf(&sb, "OCR-зон: %d, переходов: %d, ROI: %d", stats.OCRStates, stats.Transitions, stats.ROIs)
	if len(stats.Missing) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ Не загружено файлов: %d", len(stats.Missing))
	}
	for _, d := range stats.Duplicates {
		fmt.Fprintf(&sb, "\n⚠️ Одинаковые эталоны: %s и %s", d.First, d.Second)
	}
	return sb.String()
}

// parseLimit разбирает аргумент /history
func parseLimit(arg string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n <= 0 {
		return fallback
	}
	if n > maxHistoryLimit {
		return maxHistoryLimit
	}
	return n
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
