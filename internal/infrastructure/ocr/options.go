package ocr

import (
	"log/slog"
	"strconv"
	"strings"
)

// DefaultLanguage языки tesseract по умолчанию
const DefaultLanguage = "spa+eng"

// Variable переменная tesseract из строки конфигурации
type Variable struct {
	Key   string
	Value string
}

// Options разобранная строка конфигурации tesseract
type Options struct {
	PageSegMode int // -1 означает режим по умолчанию
	Variables   []Variable
}

// ParseLanguages разбирает строку вида "spa+eng"
func ParseLanguages(lang string) []string {
	var out []string
	for _, l := range strings.Split(lang, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// ParseConfig разбирает аргументы в стиле командной строки tesseract:
// "--psm 7" и "-c key=value". Неизвестные аргументы логируются и пропускаются.
func ParseConfig(config string) Options {
	opts := Options{PageSegMode: -1}
	tokens := strings.Fields(config)

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "--psm" && i+1 < len(tokens):
			i++
			opts.setPSM(tokens[i])
		case strings.HasPrefix(tok, "--psm="):
			opts.setPSM(strings.TrimPrefix(tok, "--psm="))
		case tok == "-c" && i+1 < len(tokens):
			i++
			opts.addVariable(tokens[i])
		case strings.HasPrefix(tok, "-c") && len(tok) > 2:
			opts.addVariable(tok[2:])
		case tok == "--oem" && i+1 < len(tokens):
			i++
			slog.Warn("ocr engine mode cannot be changed after initialization, ignoring", "oem", tokens[i])
		default:
			slog.Warn("unsupported ocr config argument, ignoring", "arg", tok)
		}
	}
	return opts
}

func (o *Options) setPSM(value string) {
	mode, err := strconv.Atoi(value)
	if err != nil || mode < 0 || mode > 13 {
		slog.Warn("invalid page segmentation mode, ignoring", "psm", value)
		return
	}
	o.PageSegMode = mode
}

func (o *Options) addVariable(pair string) {
	key, value, ok := strings.Cut(pair, "=")
	if !ok || key == "" {
		slog.Warn("invalid ocr variable, expected key=value", "arg", pair)
		return
	}
	o.Variables = append(o.Variables, Variable{Key: key, Value: value})
}
