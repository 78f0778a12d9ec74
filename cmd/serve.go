package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/sellerclaw/internal/answer"
	"github.com/nextlevelbuilder/sellerclaw/internal/bus"
	"github.com/nextlevelbuilder/sellerclaw/internal/channels"
	"github.com/nextlevelbuilder/sellerclaw/internal/channels/telegram"
	"github.com/nextlevelbuilder/sellerclaw/internal/config"
	"github.com/nextlevelbuilder/sellerclaw/internal/guard"
	"github.com/nextlevelbuilder/sellerclaw/internal/marketplace"
	"github.com/nextlevelbuilder/sellerclaw/internal/override"
	"github.com/nextlevelbuilder/sellerclaw/internal/poller"
	"github.com/nextlevelbuilder/sellerclaw/internal/providers"
	"github.com/nextlevelbuilder/sellerclaw/internal/retriever"
	"github.com/nextlevelbuilder/sellerclaw/internal/sessions"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the auto-reply gateway (default command)",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	// Setup structured logging
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Providers.OpenAI.APIKey == "" {
		slog.Error("no model API key configured, set SELLERCLAW_OPENAI_API_KEY")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reply pipeline: retriever + sessions + guard feeding the QA engine.
	g := guard.New(cfg.Guard.FallbackText, cfg.Guard.FailureSignatures)

	provider := providers.NewOpenAIProvider("openai",
		cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.APIBase, cfg.Providers.OpenAI.Model)

	retr, err := retriever.New(retriever.Config{
		TopK: cfg.Retriever.TopK,
		Chunker: retriever.ChunkerConfig{
			ChunkSize:    cfg.Retriever.ChunkSize,
			ChunkOverlap: cfg.Retriever.ChunkOverlap,
		},
	}, chromem.NewEmbeddingFuncOpenAI(cfg.Providers.OpenAI.APIKey,
		chromem.EmbeddingModelOpenAI(cfg.Retriever.EmbeddingModel)))
	if err != nil {
		slog.Error("failed to create retriever", "error", err)
		os.Exit(1)
	}

	knowledgePath := config.ExpandHome(cfg.Retriever.KnowledgeFile)
	if err := retr.IndexFile(ctx, knowledgePath); err != nil {
		slog.Warn("knowledge base not indexed, answering without context",
			"file", knowledgePath, "error", err)
	}
	if cfg.Retriever.WatchEnabled() {
		go func() {
			if err := retr.Watch(ctx, knowledgePath); err != nil && ctx.Err() == nil {
				slog.Warn("knowledge file watcher stopped", "error", err)
			}
		}()
	}

	sessMgr := sessions.NewManager(config.ExpandHome(cfg.Sessions.Storage), cfg.Sessions.HistoryLimit)

	engine := answer.NewEngine(provider, retr, sessMgr, g, cfg.Providers.OpenAI.Model)
	engine.SetGeneration(cfg.Providers.OpenAI.MaxTokens, cfg.Providers.OpenAI.Temperature)

	// Chat side: bus + channels + burst debouncer + operator overrides.
	msgBus := bus.New()
	overrides := override.NewRegistry()
	channelMgr := channels.NewManager(msgBus)

	debouncer := bus.NewInboundDebouncer(
		time.Duration(cfg.Channels.Telegram.DebounceSeconds)*time.Second,
		func(key, merged string) {
			channel, chatID, ok := strings.Cut(key, ":")
			if !ok {
				return
			}
			if ch, found := channelMgr.GetChannel(channel); found {
				if tc, ok := ch.(channels.TypingChannel); ok {
					if err := tc.SendTyping(ctx, chatID); err != nil {
						slog.Debug("typing indicator failed", "channel", channel, "error", err)
					}
				}
			}
			reply, err := engine.Answer(ctx, sessions.BuildSessionKey(channel, chatID), merged)
			if err != nil {
				slog.Warn("answer generation failed",
					"channel", channel, "chat_id", chatID, "error", err)
			}
			msgBus.PublishOutbound(bus.OutboundMessage{
				Channel: channel,
				ChatID:  chatID,
				Content: reply,
			})
		})

	// Inbound consumer: every channel message becomes a debounced fragment
	// keyed by conversation, so rapid bursts collapse into one question.
	go func() {
		for {
			msg, ok := msgBus.ConsumeInbound(ctx)
			if !ok {
				return
			}
			debouncer.Observe(msg.Channel+":"+msg.ChatID, msg.Content)
		}
	}()

	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token != "" {
		tg, err := telegram.New(cfg.Channels.Telegram, msgBus, overrides)
		if err != nil {
			slog.Error("failed to create telegram channel", "error", err)
			os.Exit(1)
		}
		channelMgr.RegisterChannel(tg.Name(), tg)
	}

	if err := channelMgr.StartAll(ctx); err != nil {
		slog.Error("failed to start channels", "error", err)
	}

	// Marketplace pollers: review/question sweep plus buyer-chat event walk.
	eg, pollCtx := errgroup.WithContext(ctx)
	if cfg.Marketplace.Enabled() {
		client := marketplace.NewClient(
			cfg.Marketplace.APIKey,
			cfg.Marketplace.FeedbacksBase,
			cfg.Marketplace.ChatBase,
			marketplace.Options{AuthScheme: cfg.Marketplace.AuthScheme},
		)
		answered := bus.NewDedupeCache(cfg.Marketplace.AnsweredCacheSize)
		sweeper := poller.NewItemSweeper(client, engine, answered,
			time.Duration(cfg.Marketplace.LookbackDays)*24*time.Hour, g.Fallback())
		responder := poller.NewChatResponder(client, engine,
			cfg.Marketplace.EventBatchLimit, cfg.Marketplace.ChatDebug)

		eg.Go(func() error {
			return poller.Run(pollCtx, "item-sweep",
				time.Duration(cfg.Marketplace.CheckIntervalSeconds)*time.Second, sweeper)
		})
		eg.Go(func() error {
			return poller.Run(pollCtx, "chat-events",
				time.Duration(cfg.Marketplace.ChatPollIntervalSeconds)*time.Second, responder)
		})
		slog.Info("marketplace pollers started",
			"sweep_interval_s", cfg.Marketplace.CheckIntervalSeconds,
			"chat_interval_s", cfg.Marketplace.ChatPollIntervalSeconds)
	} else {
		slog.Info("marketplace polling disabled, no API key configured")
	}

	slog.Info("sellerclaw started", "version", Version)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("graceful shutdown initiated", "signal", sig)
		channelMgr.StopAll(context.Background())
		debouncer.Stop()
		cancel()
	}()

	<-ctx.Done()
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("poller stopped with error", "error", err)
	}
	slog.Info("sellerclaw stopped")
}
