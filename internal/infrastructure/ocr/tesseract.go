package ocr

// Tesseract извлекает текст через libtesseract.
// Реализация собирается с тегом tesseract, без него Extract возвращает ошибку.
type Tesseract struct {
	languages []string
	options   Options
}

// NewTesseract создаёт извлекатель. lang в формате "spa+eng", config в формате "--psm 7 -c key=value".
func NewTesseract(lang, config string) *Tesseract {
	if lang == "" {
		lang = DefaultLanguage
	}
	return &Tesseract{
		languages: ParseLanguages(lang),
		options:   ParseConfig(config),
	}
}

// Languages возвращает языки распознавания
func (t *Tesseract) Languages() []string {
	return append([]string(nil), t.languages...)
}
