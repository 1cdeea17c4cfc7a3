package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/pivolan/data_agent/analysis"
	"github.com/pivolan/data_agent/config"
	"github.com/pivolan/data_agent/profile"
	"github.com/pivolan/data_agent/storage"
)

var (
	store  *storage.Store
	engine *analysis.Engine
	bot    *tgbotapi.BotAPI
)

func main() {
	fmt.Println("started")
	cfg := config.GetConfig()

	if cfg.DbDsn != "" {
		var err error
		store, err = storage.New(cfg.DbDsn)
		if err != nil {
			log.Fatalln("cannot connect to database", err)
		}
		fmt.Println("connected database")
	} else {
		log.Println("DB_DSN is empty, running without persistence")
	}

	profOpts := profile.Options{
		PreviewRows: cfg.PreviewRows,
		TopValues:   cfg.TopValues,
	}
	var cache analysis.ResultCache
	if store != nil {
		cache = storage.NewCacheStore(store, cfg.CacheTTL, nil)
	} else {
		cache = analysis.NewMemoryCache(cfg.CacheTTL, nil)
	}
	engine = analysis.NewEngine(cache, profOpts)

	http.HandleFunc("/upload", handleUpload)
	http.HandleFunc("/query", handleQuery)
	http.HandleFunc("/files/", handleFileInfo)
	http.HandleFunc("/chart", handleChart)

	go func() {
		fmt.Println("listen on: http://localhost" + cfg.ListenAddr)
		err := http.ListenAndServe(cfg.ListenAddr, nil)
		if err != nil {
			fmt.Println("Error starting server:", err)
			os.Exit(1)
		}
	}()

	go func() {
		for {
			time.Sleep(time.Minute)
			removeOldFiles(cfg.UploadDir, time.Now().Add(-time.Hour*2))
		}
	}()

	if cfg.TgToken == "" {
		log.Println("TG_TOKEN is empty, running without telegram bot")
		select {}
	}

	var err error
	bot, err = tgbotapi.NewBotAPI(cfg.TgToken)
	if err != nil {
		log.Fatal("tg error", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := bot.GetUpdatesChan(u)
	if err != nil {
		log.Fatal("tg updates error", err)
	}
	for update := range updates {
		if update.Message == nil {
			continue
		}

		if update.Message.Document != nil {
			go handleDocument(bot, update.Message)
		} else if update.Message.Text != "" {
			go handleText(bot, update)
		}
	}
}

func removeOldFiles(dirPath string, maxAge time.Time) error {
	files, err := os.ReadDir(dirPath)
	if err != nil {
		return err
	}

	for _, file := range files {
		filePath := filepath.Join(dirPath, file.Name())

		if file.IsDir() {
			err := removeOldFiles(filePath, maxAge)
			if err != nil {
				return err
			}
		} else {
			fileStat, err := os.Stat(filePath)
			if err != nil {
				return err
			}
			if fileStat.ModTime().Before(maxAge) {
				err := os.Remove(filePath)
				if err != nil {
					return err
				}
				fmt.Printf("Removed file: %s\n", filePath)
			}
		}
	}

	return nil
}
