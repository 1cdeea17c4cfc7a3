package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/pivolan/data_agent/domain/models"
	"github.com/pivolan/data_agent/intent"
	"github.com/pivolan/data_agent/plot"
	"github.com/pivolan/data_agent/viz"
)

// lastFileByChat remembers the most recent upload per chat so that plain
// text messages can be treated as questions about that file.
var (
	lastFileMu     sync.RWMutex
	lastFileByChat = map[int64]string{}
)

const welcomeText = `Hi! 👋

Send me a spreadsheet and ask questions about it in plain language.

What I can do:
- Ingest CSV, TSV and XLSX files, including gzip/lz4/zip archives
- Clean the data and report quality issues
- Answer questions like "total sales by region", "top 10 products by revenue", "sales trend over time", "correlation between price and quantity"
- Reply with charts where it makes sense

How to work with me:
1. Send a file right into the chat
2. Then just type your question
`

func handleText(bot *tgbotapi.BotAPI, update tgbotapi.Update) {
	message := update.Message

	switch message.Command() {
	case "start", "help":
		msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
		_, err := bot.Send(msg)
		if err != nil {
			log.Printf("send welcome: %v", err)
		}
		return
	}

	lastFileMu.RLock()
	fileID, ok := lastFileByChat[message.Chat.ID]
	lastFileMu.RUnlock()
	if !ok {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Send me a data file first, then ask your question.")
		bot.Send(msg)
		return
	}

	entry, ok := lookupFile(fileID)
	if !ok {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Your file has expired, please upload it again.")
		bot.Send(msg)
		return
	}

	request := intent.Resolve(message.Text, entry.Profile)
	result, payload, _ := engine.Run(entry.Table, request)

	msg := tgbotapi.NewMessage(message.Chat.ID, composeAnswer(result, payload))
	if _, err := bot.Send(msg); err != nil {
		log.Printf("send answer: %v", err)
		return
	}

	if payload.Type == models.VizTable && len(payload.Table) > 0 {
		details := tgbotapi.NewMessage(message.Chat.ID, "<pre>"+viz.RenderText(payload)+"</pre>")
		details.ParseMode = tgbotapi.ModeHTML
		if _, err := bot.Send(details); err != nil {
			log.Printf("send table: %v", err)
		}
		return
	}
	sendChart(bot, message.Chat.ID, payload, message.Text)
}

// sendChart renders a PNG for chartable payloads and uploads it as a photo.
// Table payloads and render failures are silently skipped, the textual
// answer has already been delivered.
func sendChart(bot *tgbotapi.BotAPI, chatID int64, payload models.VisualizationPayload, title string) {
	png, err := plot.RenderPNG(payload, title)
	if err != nil {
		if !errors.Is(err, plot.ErrNoSeries) {
			log.Printf("render chart: %v", err)
		}
		return
	}

	pngFile := tgbotapi.FileBytes{
		Name:  "chart.png",
		Bytes: png,
	}
	photo := tgbotapi.NewPhotoUpload(chatID, pngFile)
	if _, err := bot.Send(photo); err != nil {
		log.Printf("send chart: %v", err)
	}
}

func handleDocument(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	fileURL, err := bot.GetFileDirectURL(message.Document.FileID)
	if err != nil {
		log.Printf("Error getting file URL: %v", err)
		msg := tgbotapi.NewMessage(message.Chat.ID, "Error on upload, if the file is too big try sending it compressed (gzip, zip or lz4).")
		bot.Send(msg)
		return
	}

	resp, err := http.Get(fileURL)
	if err != nil {
		log.Printf("Error downloading file: %v", err)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Error reading file: %v", err)
		return
	}

	entry, err := ingestFile(data, message.Document.FileName, strconv.Itoa(message.From.ID))
	if err != nil {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Could not process this file: "+err.Error())
		bot.Send(msg)
		return
	}

	lastFileMu.Lock()
	lastFileByChat[message.Chat.ID] = entry.FileID
	lastFileMu.Unlock()

	summary := "File accepted: " + entry.Filename + "\n" +
		"Rows: " + strconv.Itoa(entry.Profile.RowCount) + "\n\n"
	if issues := describeReport(entry.Report); issues != "" {
		summary += issues + "\n\n"
	}
	summary += "Now ask me a question about your data."

	msg := tgbotapi.NewMessage(message.Chat.ID, summary)
	if _, err := bot.Send(msg); err != nil {
		log.Printf("send upload summary: %v", err)
	}

	preview := tgbotapi.NewMessage(message.Chat.ID, "<pre>"+viz.RenderProfileText(entry.Profile)+"</pre>")
	preview.ParseMode = tgbotapi.ModeHTML
	if _, err := bot.Send(preview); err != nil {
		log.Printf("send profile: %v", err)
	}
}
