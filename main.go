package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sebkrier/alexandria-sub000/api"
	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/embed"
	"github.com/sebkrier/alexandria-sub000/extract"
	"github.com/sebkrier/alexandria-sub000/process"
	"github.com/sebkrier/alexandria-sub000/query"
	"github.com/sebkrier/alexandria-sub000/queue"
	"github.com/sebkrier/alexandria-sub000/scheduler"
	"github.com/sebkrier/alexandria-sub000/secrets"
	"github.com/sebkrier/alexandria-sub000/storage"
	"github.com/sebkrier/alexandria-sub000/store"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}
	st, err := store.Open(dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	serverSecret := os.Getenv("SERVER_SECRET")
	if serverSecret == "" {
		log.Fatal("SERVER_SECRET is required (API keys are encrypted with it)")
	}
	cipher, err := secrets.NewCipher(serverSecret)
	if err != nil {
		log.Fatalf("Failed to initialize secrets cipher: %v", err)
	}

	defaultUser, err := st.EnsureUser(config.GetEnvOrDefault("DEFAULT_USER_EMAIL", "owner@localhost"))
	if err != nil {
		log.Fatalf("Failed to bootstrap default user: %v", err)
	}

	embedder := embed.NewDefaultProvider()
	if embedder == nil {
		log.Println("⚠️  No embedding provider configured; retrieval is keyword-only")
	} else {
		log.Printf("✅ Embedding provider ready (%s)", embedder.ModelName())
	}

	extractor := extract.NewRouter(extract.Options{
		Fetcher:       extract.NewFetcher(newRedisClient()),
		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),
		CurlPath:      config.GetEnvOrDefault("CURL_PATH", "curl"),
	})

	processor := process.NewService(st, cipher, embedder)
	querySvc := query.NewService(st, embedder)
	blobs := newBlobStore()

	processJob := func(ctx context.Context, job queue.Job) error {
		_, err := processor.ProcessArticle(ctx, job.UserID, job.ArticleID, job.ProviderID)
		return err
	}

	jobQueue, consumer := newQueue(processJob)
	defer jobQueue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if consumer != nil {
		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("Failed to start Kafka consumer: %v", err)
		}
		defer consumer.Close()
	}

	sweeper := scheduler.NewSweeper(st, jobQueue)
	if err := sweeper.Start(config.GetEnvOrDefault("SWEEP_SCHEDULE", "@every 5m")); err != nil {
		log.Fatalf("Failed to start stale sweep: %v", err)
	}
	defer sweeper.Stop()

	server := api.NewServer(api.Config{
		Store:       st,
		Extractor:   extractor,
		Processor:   processor,
		Query:       querySvc,
		Queue:       jobQueue,
		Blobs:       blobs,
		Cipher:      cipher,
		DefaultUser: defaultUser,
	})

	addr := ":" + config.GetEnvOrDefault("PORT", "8080")
	log.Printf("✅ Starting API server on %s", addr)
	if err := server.Router().Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// newQueue prefers Kafka when brokers are configured; otherwise jobs run
// on in-process workers so a single-binary deployment still works.
func newQueue(processJob queue.Processor) (queue.Queue, *queue.Consumer) {
	brokers := config.EnvList("KAFKA_BROKERS")
	if len(brokers) == 0 {
		workers := 2
		if v := os.Getenv("PROCESS_WORKERS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				workers = n
			}
		}
		log.Printf("Kafka not configured; processing in-process with %d worker(s)", workers)
		return queue.NewInProcessQueue(processJob, workers, 64), nil
	}

	producer, err := queue.NewKafkaQueue(brokers, config.ProcessTopic)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	consumer, err := queue.NewConsumer(brokers, config.ProcessTopic, config.ProcessGroupID, processJob)
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}
	return producer, consumer
}

// newBlobStore picks S3 when a bucket is configured, else a local
// directory, else disables PDF upload entirely.
func newBlobStore() storage.BlobStore {
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		blobs, err := storage.NewS3Store(context.Background(), storage.S3Config{
			Bucket:       bucket,
			Region:       os.Getenv("S3_REGION"),
			Profile:      os.Getenv("S3_PROFILE"),
			UsePathStyle: config.EnvBool("S3_USE_PATH_STYLE"),
		})
		if err != nil {
			log.Fatalf("Failed to init S3 storage: %v", err)
		}
		log.Printf("✅ PDF storage: s3://%s", bucket)
		return blobs
	}

	if dir := os.Getenv("STORAGE_DIR"); dir != "" {
		blobs, err := storage.NewLocalStore(dir)
		if err != nil {
			log.Fatalf("Failed to init local storage: %v", err)
		}
		log.Printf("✅ PDF storage: %s", dir)
		return blobs
	}

	log.Println("⚠️  No blob storage configured; PDF upload disabled")
	return nil
}

func newRedisClient() *redis.Client {
	rawURL := os.Getenv("REDIS_URL")
	if rawURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL, fetch cache disabled: %v", err)
		return nil
	}
	return redis.NewClient(opts)
}
