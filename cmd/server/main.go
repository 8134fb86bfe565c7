package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/0xcro3dile/campuschat-go/internal/adapters/completion"
	"github.com/0xcro3dile/campuschat-go/internal/adapters/conversation"
	"github.com/0xcro3dile/campuschat-go/internal/adapters/dialogue"
	"github.com/0xcro3dile/campuschat-go/internal/adapters/embedding"
	"github.com/0xcro3dile/campuschat-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/campuschat-go/internal/adapters/metadata"
	"github.com/0xcro3dile/campuschat-go/internal/adapters/vectorindex"
	"github.com/0xcro3dile/campuschat-go/internal/auth"
	"github.com/0xcro3dile/campuschat-go/internal/config"
	"github.com/0xcro3dile/campuschat-go/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/campuschat-go/internal/infrastructure/http"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[ERROR] loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Artifacts load once; reloading them means restarting the process.
	log.Printf("[INFO] loading vector index from %s", cfg.IndexPath())
	index, err := vectorindex.Load(cfg.IndexPath())
	if err != nil {
		log.Fatalf("[ERROR] loading vector index: %v", err)
	}

	log.Printf("[INFO] loading chunk metadata from %s", cfg.MetadataPath())
	meta, err := metadata.Open(cfg.MetadataPath())
	if err != nil {
		log.Fatalf("[ERROR] loading metadata: %v", err)
	}
	defer meta.Close()

	// Refuse to serve misaligned artifacts.
	if err := usecases.VerifyAlignment(index, meta); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	log.Printf("[INFO] loaded %d chunks (dim %d)", index.Len(), index.Dim())

	store, err := conversation.Open(cfg.Store.Database)
	if err != nil {
		log.Fatalf("[ERROR] opening conversation db: %v", err)
	}
	defer store.Close()

	authSvc, err := auth.NewService(store.DB())
	if err != nil {
		log.Fatalf("[ERROR] initializing auth: %v", err)
	}

	embedder := embedding.NewOpenAIAdapter(
		cfg.OpenAI.BaseURL, cfg.APIKey(), cfg.OpenAI.EmbeddingModel,
		time.Duration(cfg.OpenAI.EmbedTimeoutSecs)*time.Second,
	)
	completer := completion.NewOpenAIAdapter(
		cfg.OpenAI.BaseURL, cfg.APIKey(), cfg.OpenAI.CompletionModel,
		time.Duration(cfg.OpenAI.CompleteTimeoutSecs)*time.Second,
	)
	engine := dialogue.NewClient(cfg.Engine.WebhookURL, time.Duration(cfg.Engine.TimeoutSecs)*time.Second)

	answerUC := usecases.NewAnswerUseCase(embedder, index, meta, completer, cfg.Retrieval.TopK, cfg.Retrieval.University)
	chatUC := usecases.NewChatUseCase(store, store, engine)

	watchArtifacts(ctx, cfg)

	server := httpserver.NewServer(chatUC, answerUC, authSvc, cfg.Server.Addr)
	if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[ERROR] server: %v", err)
	}
}

// watchArtifacts logs when the on-disk artifacts diverge from what this
// process loaded. The loaded copies stay in use until a restart.
func watchArtifacts(ctx context.Context, cfg *config.AppConfig) {
	watcher, err := filewatcher.NewArtifactWatcher([]string{cfg.Store.Index, cfg.Store.Metadata})
	if err != nil {
		log.Printf("[ERROR] starting artifact watcher: %v", err)
		return
	}

	changes, err := watcher.Watch(ctx, cfg.Store.Dir)
	if err != nil {
		log.Printf("[ERROR] watching %s: %v", cfg.Store.Dir, err)
		watcher.Stop()
		return
	}

	go func() {
		defer watcher.Stop()
		for path := range changes {
			log.Printf("[INFO] artifact %s changed on disk; restart to load it", path)
		}
	}()
}
