package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/repository"
	"github.com/Guyuepp/reddit-post-votes/internal/repository/memory"
	mysqlRepo "github.com/Guyuepp/reddit-post-votes/internal/repository/mysql"
	"github.com/Guyuepp/reddit-post-votes/internal/repository/mysql/model"
	myRedisCache "github.com/Guyuepp/reddit-post-votes/internal/repository/redis"
	"github.com/Guyuepp/reddit-post-votes/internal/rest"
	"github.com/Guyuepp/reddit-post-votes/internal/rest/middleware"
	"github.com/Guyuepp/reddit-post-votes/internal/usecase/post"
	"github.com/Guyuepp/reddit-post-votes/internal/usecase/vote"
	"github.com/Guyuepp/reddit-post-votes/internal/workers"
)

const (
	defaultTimeout      = 30
	defaultAddress      = ":9090"
	defaultCacheDB      = 0
	defaultBloomBitSize = 10000000
	dbMaxRetry          = 10
	dbRetryIntervalSec  = 2
)

func init() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file loaded, using process environment")
	}
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		logrus.Infof("failed to parse %s, using default %d", key, def)
		return def
	}
	return v
}

// envList splits a comma separated variable, dropping blanks
func envList(key string) []string {
	var res []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}

func main() {
	//prepare database
	dbHost := os.Getenv("DATABASE_HOST")
	dbPort := os.Getenv("DATABASE_PORT")
	dbUser := os.Getenv("DATABASE_USER")
	dbPass := os.Getenv("DATABASE_PASS")
	dbName := os.Getenv("DATABASE_NAME")
	connection := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", dbUser, dbPass, dbHost, dbPort, dbName)
	val := url.Values{}
	val.Add("parseTime", "1")
	val.Add("loc", "UTC")
	dsn := fmt.Sprintf("%s?%s", connection, val.Encode())

	var (
		db  *gorm.DB
		err error
	)

	for i := range dbMaxRetry {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if err = sqlDB.Ping(); err == nil {
					break
				}
				_ = sqlDB.Close()
			} else {
				err = dbErr
			}
		}
		logrus.Warnf("failed to connect to database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
		time.Sleep(dbRetryIntervalSec * time.Second)
	}
	if err != nil {
		logrus.Fatalf("could not connect to database after retries: %v", err)
	}

	defer func() {
		sqlDB, err := db.DB()
		if err != nil {
			logrus.Errorf("got error when getting sql.DB from gorm.DB: %v", err)
			return
		}
		if err := sqlDB.Close(); err != nil {
			logrus.Errorf("got error when closing the DB connection: %v", err)
		}
	}()

	if os.Getenv("DATABASE_AUTOMIGRATE") == "1" {
		if err := db.AutoMigrate(&model.Subreddit{}, &model.Post{}, &model.Comment{}, &model.Vote{}); err != nil {
			logrus.Fatalf("auto migrate failed: %v", err)
		}
	}

	// prepare cache
	client := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("CACHE_HOST") + ":" + os.Getenv("CACHE_PORT"),
		Password: os.Getenv("CACHE_PASS"),
		DB:       envInt("CACHE_DB", defaultCacheDB),
	})
	defer func() {
		if err := client.Close(); err != nil {
			logrus.Errorf("got error when closing the cache connection: %v", err)
		}
	}()

	if _, err = client.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to open connection to cache: %v", err)
	}

	// prepare gin
	gateways, err := middleware.ParseGateways(os.Getenv("VIEWER_GATEWAY_CIDRS"))
	if err != nil {
		logrus.Fatalf("invalid VIEWER_GATEWAY_CIDRS: %v", err)
	}
	route := gin.Default()
	route.Use(middleware.CORS(envList("CORS_ALLOWED_ORIGINS")))
	route.Use(middleware.SetRequestContextWithTimeout(time.Duration(envInt("CONTEXT_TIMEOUT", defaultTimeout)) * time.Second))
	route.Use(middleware.Viewer(gateways))

	// Prepare Repository
	postRepo := mysqlRepo.NewPostRepository(db)
	commentRepo := mysqlRepo.NewCommentRepository(db)
	voteDBRepo := mysqlRepo.NewVoteDBRepository(db)
	voteCache := myRedisCache.NewVoteCache(client)
	voteTTL := time.Duration(envInt("VOTE_CACHE_TTL_SEC", int(repository.DefaultVoteCacheTTL/time.Second))) * time.Second
	voteRepo := repository.NewVoteRepository(voteDBRepo, voteCache, voteTTL)

	bloomBitSize, err := strconv.ParseUint(os.Getenv("BLOOM_FILTER_SIZE"), 10, 64)
	if err != nil {
		logrus.Info("failed to parse bloom bit size, using default size")
		bloomBitSize = defaultBloomBitSize
	}
	bloomRepo := myRedisCache.NewRedisBloomRepo(client, bloomBitSize)

	var selection domain.PostSelection
	switch os.Getenv("SELECTION_STORE") {
	case "redis":
		selection = myRedisCache.NewSelectionSlot(client)
	default:
		selection = memory.NewSelectionSlot()
	}

	// Start worker
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scoresSyncer := workers.NewSyncScoresWorker(postRepo, voteDBRepo)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		scoresSyncer.Start(ctx)
	}()

	// Build service Layer
	var trackerOpts []vote.Option
	if os.Getenv("VOTE_OPTIMISTIC") == "1" {
		trackerOpts = append(trackerOpts, vote.WithOptimistic())
	}
	postSvc := post.NewService(postRepo, commentRepo, selection, bloomRepo)
	voteSvc := vote.NewService(voteRepo, bloomRepo, scoresSyncer, trackerOpts...)
	postHandler := rest.NewPostHandler(postSvc, selection)
	voteHandler := rest.NewVoteHandler(voteSvc)

	// Prepare bloom filter
	if err := postSvc.InitBloomFilter(ctx); err != nil {
		logrus.Errorf("failed to init bloom filter: %v", err)
		return
	}
	bloomRefresher := workers.NewBloomRefreshWorker(postSvc,
		time.Duration(envInt("BLOOM_REFRESH_SEC", int(workers.DefaultBloomRefreshInterval/time.Second)))*time.Second)
	go bloomRefresher.Start(ctx)

	// Register routes
	route.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	route.GET("/metrics", gin.WrapH(promhttp.Handler()))

	route.GET("/posts", postHandler.FetchPosts)
	route.GET("/posts/:id", postHandler.GetByID)
	route.POST("/posts/:id/select", postHandler.Select)

	route.GET("/posts/:id/votes", voteHandler.FetchVotes)
	route.POST("/posts/:id/votes", voteHandler.CastVote)
	route.GET("/posts/:id/card", voteHandler.Card)
	route.POST("/posts/:id/vote", voteHandler.Vote)

	// Start Server
	address := os.Getenv("SERVER_ADDRESS")
	if address == "" {
		address = defaultAddress
	}
	srv := &http.Server{
		Addr:    address,
		Handler: route,
	}
	go func() {
		logrus.Infof("Server is running on %s", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("listen: %s", err)
		}
	}()

	// shutdown
	<-ctx.Done()
	logrus.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Waiting for worker to flush...")
	<-workerDone

	logrus.Info("Server exiting")
}
