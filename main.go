// Package main はRADIUS多要素認証アダプターのエントリーポイント。
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/authcache"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/challenge"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/directory"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/firstfactor"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/guard"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/mfa"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/pipeline"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/proxy"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/server"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

func main() {
	// 1. 環境変数読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("設定読み込み失敗", "error", err)
		os.Exit(1)
	}

	// 2. ロガー初期化（JSON形式、INFO以上）
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With("app", "radius-adapter")
	slog.SetDefault(logger)

	slog.Info("radius-adapter起動開始",
		"listen_addr", cfg.ListenAddr,
		"mfa_api_url", cfg.MFAAPIURL,
	)

	// 3. Valkeyクライアント初期化
	valkeyClient, err := store.NewValkeyClient(cfg)
	if err != nil {
		slog.Error("Valkey接続失敗",
			"event_id", "VALKEY_CONN_ERR",
			"error", err,
		)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	slog.Info("Valkey接続完了", "addr", cfg.ValkeyAddr())

	// 4. Store層生成
	clientStore := store.NewClientStore(valkeyClient)
	challengeStore := store.NewChallengeStore(valkeyClient)
	retransStore := store.NewRetransmissionStore(valkeyClient)
	authCacheStore := store.NewAuthCacheStore(valkeyClient)

	// 5. 外部クライアント初期化
	mfaClient := mfa.NewClient(cfg)
	dir := directory.NewDirectory()

	proxyClient, err := proxy.NewClient()
	if err != nil {
		slog.Error("プロキシソケット初期化失敗",
			"event_id", "PROXY_INIT_ERR",
			"error", err,
		)
		os.Exit(1)
	}
	defer proxyClient.Close()

	// 6. パスワード退避用SecretBox
	box, err := challenge.NewSecretBox(cfg.MFAAPISecret)
	if err != nil {
		slog.Error("SecretBox初期化失敗", "error", err)
		os.Exit(1)
	}

	// 7. 判定エンジン組み立て
	dispatcher := firstfactor.NewDispatcher(dir, proxyClient)
	provider := challenge.NewProvider(challengeStore, mfaClient, dir, box)
	cache := authcache.NewCache(authCacheStore)
	engine := pipeline.NewEngine(dispatcher, provider, cache, mfaClient, dir)

	// 8. 再送検出・Secret解決・ハンドラ
	detector := guard.NewDetector(retransStore)
	secretSource := server.NewSecretSource(clientStore, cfg.RadiusSecret)
	handler := server.NewHandler(engine, clientStore, detector, cfg)

	// 9. UDPサーバー
	srv := server.NewServer(cfg.ListenAddr, handler, secretSource)

	// 10. サーバー起動（goroutine）
	go func() {
		slog.Info("RADIUSサーバー起動", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("サーバーエラー", "error", err)
		}
	}()

	// 11. シグナル待機 → Graceful Shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	slog.Info("シグナル受信、シャットダウン開始", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("シャットダウンエラー", "error", err)
	}

	slog.Info("radius-adapter停止完了")
}
