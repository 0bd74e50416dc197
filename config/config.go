package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string

	ConfigDir string // каталог с четырьмя JSON-файлами конфигурации
	ImagesDir string // каталог эталонов
	LogFile   string // пустая строка отключает файловый лог

	Monitor    int    // 0 - все мониторы, 1+ - физический монитор
	Resolution string // подкаталог ImagesDir, который просматривается первым

	TemplateThreshold    float64
	OCRFallbackThreshold float64

	OCRLang              string
	OCRConfig            string
	OCRApplyThresholding bool

	HistorySize int
}

// EngineOptions параметры построения движка распознавания
type EngineOptions struct {
	Monitor              int
	Resolution           string
	Threshold            float64
	OCRFallbackThreshold float64
	OCRLang              string
	OCRConfig            string
	OCRApplyThresholding bool
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:        os.Getenv("TELEGRAM_TOKEN"),
		ConfigDir:            getEnv("CONFIG_DIR", "config"),
		ImagesDir:            getEnv("IMAGES_DIR", "images"),
		LogFile:              getEnv("LOG_FILE", "debug/screenstate.log"),
		Monitor:              getEnvInt("MONITOR", 1),
		Resolution:           getEnv("RESOLUTION", "4K"),
		TemplateThreshold:    getEnvFloat("TEMPLATE_THRESHOLD", 0.75),
		OCRFallbackThreshold: getEnvFloat("OCR_FALLBACK_THRESHOLD", 0.60),
		OCRLang:              getEnv("OCR_LANG", "spa+eng"),
		OCRConfig:            os.Getenv("OCR_CONFIG"),
		OCRApplyThresholding: getEnvBool("OCR_APPLY_THRESHOLDING", true),
		HistorySize:          getEnvInt("HISTORY_SIZE", 50),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	if c.TemplateThreshold < 0 || c.TemplateThreshold > 1 {
		return fmt.Errorf("TEMPLATE_THRESHOLD must be within [0,1], got %v", c.TemplateThreshold)
	}
	if c.OCRFallbackThreshold < 0 || c.OCRFallbackThreshold > 1 {
		return fmt.Errorf("OCR_FALLBACK_THRESHOLD must be within [0,1], got %v", c.OCRFallbackThreshold)
	}
	if c.TemplateThreshold < c.OCRFallbackThreshold {
		return fmt.Errorf("TEMPLATE_THRESHOLD (%v) must not be below OCR_FALLBACK_THRESHOLD (%v)",
			c.TemplateThreshold, c.OCRFallbackThreshold)
	}
	if c.Monitor < 0 {
		return fmt.Errorf("MONITOR must not be negative, got %d", c.Monitor)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("HISTORY_SIZE must be positive, got %d", c.HistorySize)
	}
	return nil
}

// EngineOptions возвращает параметры движка распознавания
func (c *Config) EngineOptions() EngineOptions {
	return EngineOptions{
		Monitor:              c.Monitor,
		Resolution:           c.Resolution,
		Threshold:            c.TemplateThreshold,
		OCRFallbackThreshold: c.OCRFallbackThreshold,
		OCRLang:              c.OCRLang,
		OCRConfig:            c.OCRConfig,
		OCRApplyThresholding: c.OCRApplyThresholding,
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}
