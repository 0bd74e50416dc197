package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "screenstate/internal/application"
	"screenstate/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я определяю, какой экран сейчас открыт.

📋 Команды:
/state — снять экран и распознать состояние
/last — последний результат
/history — последние распознавания
/reload — перечитать конфигурацию и эталоны
/help — справка

📸 Можно прислать скриншот, и я распознаю его.`

	msgHelp = `ℹ️ Как это работает:

1️⃣ Экран сравнивается с эталонами состояний
2️⃣ Если совпадение неуверенное, проверяется текст в заданных зонах
3️⃣ Результат: состояние, способ и время распознавания

📋 Команды:
/state — распознать текущий экран
/last — последний результат
/history [N] — последние N результатов
/reload — перечитать конфигурацию`

	msgSendCommand     = "📋 Используйте /state или пришлите скриншот. /help — справка."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Распознаю экран..."
	msgNoHistory       = "📭 Распознаваний ещё не было."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте другой скриншот."
	msgInternalError   = "⚠️ Внутренняя ошибка, подробности в логе."

	defaultHistoryLimit = 5
)

// Service операции распознавания, доступные боту
type Service interface {
	Recognize(ctx context.Context) (*entity.HistoryEntry, error)
	RecognizeImage(ctx context.Context, data []byte) (*entity.HistoryEntry, error)
	Last(ctx context.Context) (*entity.HistoryEntry, error)
	History(ctx context.Context, limit int) ([]*entity.HistoryEntry, error)
	Reload(ctx context.Context) app.Stats
}

// Bot представляет Telegram-бота
type Bot struct {
	api     *tgbotapi.BotAPI
	service Service
	client  *http.Client
}

// NewBot создаёт нового бота
func NewBot(token string, service Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	slog.Info("telegram bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:     api,
		service: service,
		client:  http.DefaultClient,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка скриншота
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg.Chat.ID, msg.Photo[len(msg.Photo)-1].FileID)
		return
	}
	if msg.Document != nil && isImage(msg.Document.MimeType) {
		b.handlePhoto(ctx, msg.Chat.ID, msg.Document.FileID)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendCommand)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "state":
		b.sendMessage(chatID, msgProcessing)
		entry, err := b.service.Recognize(ctx)
		if err != nil {
			slog.Error("recognition failed", "error", err)
			b.sendMessage(chatID, msgInternalError)
			return
		}
		b.sendMessage(chatID, formatEntry(entry))

	case "last":
		entry, err := b.service.Last(ctx)
		if err != nil {
			slog.Error("failed to read history", "error", err)
			b.sendMessage(chatID, msgInternalError)
			return
		}
		if entry == nil {
			b.sendMessage(chatID, msgNoHistory)
			return
		}
		b.sendMessage(chatID, formatEntry(entry))

	case "history":
		entries, err := b.service.History(ctx, parseLimit(msg.CommandArguments(), defaultHistoryLimit))
		if err != nil {
			slog.Error("failed to read history", "error", err)
			b.sendMessage(chatID, msgInternalError)
			return
		}
		b.sendMessage(chatID, formatHistory(entries))

	case "reload":
		b.sendMessage(chatID, formatStats(b.service.Reload(ctx)))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handlePhoto распознаёт присланный скриншот
func (b *Bot) handlePhoto(ctx context.Context, chatID int64, fileID string) {
	b.sendMessage(chatID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		slog.Error("failed to download photo", "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	slog.Debug("received image", "bytes", len(imageData))

	entry, err := b.service.RecognizeImage(ctx, imageData)
	if err != nil {
		slog.Error("photo recognition failed", "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	b.sendMessage(chatID, formatEntry(entry))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
