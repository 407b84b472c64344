package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	wishlistops "github.com/jamesthegreati/WishlistOps-sub001"
	"github.com/jamesthegreati/WishlistOps-sub001/internal/config"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/discord"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/draft"
)

func main() {
	var configPath, repoDir, outDir, since string
	var dryRun bool

	flag.StringVar(&configPath, "config", "wishlistops.yml", "path to the YAML config file")
	flag.StringVar(&repoDir, "repo", "", "override the repository directory from config")
	flag.StringVar(&outDir, "out", "out", "output directory for dry-run banners")
	flag.StringVar(&since, "since", "", "announce commits after this ref instead of the recorded state")
	flag.BoolVar(&dryRun, "dry-run", false, "draft and compose locally, skip Discord")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("usage: %s [-config wishlistops.yml] [-repo dir] [-dry-run] [-out outdir]: %v",
			filepath.Base(os.Args[0]), err)
	}
	if repoDir != "" {
		cfg.RepoDir = repoDir
	}

	// .env for secrets; real environments just set the variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	chat, err := newChatClient(cfg)
	if err != nil {
		log.Fatal(err)
	}

	var session discord.Session
	if !dryRun {
		token := os.Getenv("DISCORD_TOKEN")
		if token == "" {
			log.Fatal("Missing required environment variable: DISCORD_TOKEN")
		}
		dg, err := discordgo.New("Bot " + token)
		if err != nil {
			log.Fatalf("Failed to create Discord session: %v", err)
		}
		if err := dg.Open(); err != nil {
			log.Fatalf("Failed to open Discord session: %v", err)
		}
		defer dg.Close()
		session = &discord.DiscordSession{Session: dg}
	}

	pipeline, err := wishlistops.New(cfg, session, chat)
	if err != nil {
		log.Fatal(err)
	}
	pipeline.DryRun = dryRun
	pipeline.OutDir = outDir
	pipeline.Since = since

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	if err := pipeline.Run(ctx); err != nil {
		log.Fatal(err)
	}
}

func newChatClient(cfg *config.Config) (draft.ChatClient, error) {
	switch cfg.Draft.Backend {
	case "ollama":
		return draft.NewOllamaClient(cfg.Draft.OllamaURL, cfg.Draft.Model)
	default:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			log.Fatal("Missing required environment variable: OPENAI_API_KEY")
		}
		return draft.NewOpenAIClient(key, cfg.Draft.BaseURL, cfg.Draft.Model), nil
	}
}
