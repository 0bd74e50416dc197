// Команда recognize выполняет один цикл распознавания и печатает результат в JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"

	"screenstate/config"
	"screenstate/internal/container"
	"screenstate/internal/domain/entity"
	"screenstate/internal/infrastructure/configstore"
	"screenstate/internal/logging"
)

func main() {
	image := flag.String("image", "", "recognize an image file instead of the screen")
	learnROI := flag.Int("learn-roi", 0, "after a template hit on the screen, save the matched area grown by this margin as the state ROI")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// stdout только для результата, логи идут в stderr и файл
	cleanup, err := logging.Init(cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to init logging: %v", err)
	}
	defer cleanup()

	adapters := container.NewAdapters(cfg)
	appContainer, err := container.New(cfg, adapters)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	ctx := context.Background()
	if *image == "" {
		result := appContainer.Engine.Recognize(ctx)
		printReport(result.Report())
		if *learnROI > 0 {
			saveROI(adapters.Store, result, *learnROI)
		}
		return
	}

	data, err := os.ReadFile(*image)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}
	frame, err := adapters.Decoder.Decode(data)
	if err != nil {
		log.Fatalf("Failed to decode image: %v", err)
	}
	printReport(appContainer.Engine.Inspect(ctx, frame).Report())
}

// saveROI сохраняет область найденного эталона с отступом как ROI состояния
func saveROI(store *configstore.Store, result entity.Recognition, margin int) {
	match, ok := result.(entity.TemplateMatch)
	if !ok {
		slog.Warn("no template hit, roi is not saved", "method", result.Method())
		return
	}

	roi := entity.RectFrom(match.Area.Inset(-margin))
	if err := store.SaveROI(match.Name, roi); err != nil {
		log.Fatalf("Failed to save roi: %v", err)
	}
}

func printReport(report entity.Report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
