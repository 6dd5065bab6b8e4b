package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"architect/internal/config"
	"architect/internal/pkg/logger"
	"architect/internal/pkg/mongodb"
	"architect/internal/repository"
)

func main() {
	// 1. 加载配置（与 cmd/root.go 保持一致的搜索路径）
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.architect")

	viper.SetEnvPrefix("ARCHITECT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
		os.Exit(1)
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Mongo.URI == "" {
		fmt.Fprintln(os.Stderr, "mongo.uri is not configured, nothing to prune")
		os.Exit(1)
	}

	// 2. 连接 MongoDB
	client, err := mongodb.New(&cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongo")
	}
	defer func() {
		_ = client.Close(context.Background())
	}()

	// 3. 过期阈值：环境变量优先，其次配置，缺省 24h
	maxAge := cfg.Conversation.MaxAge
	if raw := os.Getenv("PRUNE_MAX_AGE"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal().Err(err).Str("value", raw).Msg("invalid PRUNE_MAX_AGE")
		}
		maxAge = parsed
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	// 4. 清理归档
	ctx := context.Background()
	repo := repository.NewArchiveRepo(client.Database())
	cutoff := time.Now().UTC().Add(-maxAge)

	removed, err := repo.PruneBefore(ctx, cutoff)
	if err != nil {
		log.Fatal().Err(err).Msg("prune archived conversations failed")
	}

	fmt.Printf("Pruned %d archived conversations older than %s\n", removed, maxAge)
}
