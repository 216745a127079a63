package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"quizbank/internal/bot"
	"quizbank/internal/client"
	"quizbank/internal/config"
	"quizbank/internal/discovery"

	tele "gopkg.in/telebot.v4"
)

// apiURL prefers a healthy instance registered in Consul over the configured URL.
func apiURL(cfg *config.Config) string {
	if cfg.Consul.ConsulAddress == "" {
		return cfg.Client.APIBaseURL
	}
	registry, err := discovery.NewServiceRegistry(cfg.Consul, cfg.Server)
	if err != nil {
		log.Printf("Warning: %v", err)
		return cfg.Client.APIBaseURL
	}
	url, err := registry.ServiceURL(cfg.Server.ServiceName)
	if err != nil {
		log.Printf("Warning: %v, using %s", err, cfg.Client.APIBaseURL)
		return cfg.Client.APIBaseURL
	}
	return url + "/api"
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	cfg := config.Load()
	if cfg.Bot.Token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	local, err := client.NewLocalStore(cfg.Client.DataDir)
	if err != nil {
		log.Fatalf("Failed to open data directory: %v", err)
	}

	var (
		remote client.Remote
		parser bot.PDFParser
	)
	if base := apiURL(cfg); base != "" {
		api := client.NewAPI(base, cfg.Client.APIToken, cfg.Client.RequestTimeout)
		remote, parser = api, api

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout)
		if err := api.Ping(ctx); err != nil {
			log.Printf("Warning: API at %s is unreachable, starting from local data: %v", base, err)
		}
		cancel()
	} else {
		log.Println("No API configured, running on local data only")
	}

	store := client.NewStore(remote, local, cfg.Client.StudySetSize)
	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout)
	store.Load(loadCtx)
	cancel()
	log.Printf("Loaded %d questions", len(store.Questions()))

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Bot.PollTimeout},
	})
	if err != nil {
		log.Fatalf("telebot.NewBot: %v", err)
	}

	front := bot.New(tb, store, parser, bot.Options{
		DefaultPractice: cfg.Client.DefaultPractice,
		AutosaveDelay:   cfg.Client.AutosaveDelay,
		RequestTimeout:  cfg.Client.RequestTimeout,
		AdminChatIDs:    cfg.Bot.AdminChatIDs,
	})
	front.Register(tb, cfg.Bot.Debug)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	front.WatchBank(watchCtx)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go tb.Start()
	log.Printf("Bot @%s started", tb.Me.Username)

	<-shutdownChan
	log.Println("Stopping bot...")
	tb.Stop()
	stopWatch()
	front.Shutdown()
}
