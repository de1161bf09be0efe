package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	goChatAuth "github.com/MrEthical07/goChatAuth"
	"github.com/MrEthical07/goChatAuth/internal/fakebackend"
)

const usage = `usage: chatauth [flags] <command> [args]

commands:
  signin                 obtain a new anonymous session
  reconnect <user-id>    resume a previous user with a new session
  validate [session-id]  ask the backend whether a session is live
  refresh [session-id]   extend a session, falling back to sign-in
  session [session-id]   print the backend's session summary
  restore                load the mirrored session from storage
  logout                 end the current session
  chat <message>         send a chat message
  history [user-id]      print stored chat history
  subscribe <email> [name]
  unsubscribe <email>
  demo                   walk the whole lifecycle against an in-process backend
  loadtest               drive concurrent clients and report latency percentiles
`

func main() {
	var (
		envFile   = flag.String("env", ".env", "dotenv file loaded before reading CHATAUTH_* variables")
		baseURL   = flag.String("base-url", "", "backend base URL; overrides CHATAUTH_BASE_URL")
		redisAddr = flag.String("redis-addr", "", "redis address for the session mirror; overrides CHATAUTH_REDIS_ADDR")
		demo      = flag.Bool("demo", false, "run against an in-process fake backend and miniredis")
		verbose   = flag.Bool("v", false, "debug logging")
		audit     = flag.Bool("audit", false, "log lifecycle audit events to stderr")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall command deadline")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := goChatAuth.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *redisAddr != "" {
		cfg.Storage.Backend = goChatAuth.StorageRedis
		cfg.Storage.RedisAddr = *redisAddr
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cleanup := func() {}
	if *demo || args[0] == "demo" {
		cfg, cleanup, err = demoEnvironment(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "demo environment: %v\n", err)
			os.Exit(1)
		}
	}
	defer cleanup()

	for _, w := range cfg.Lint() {
		if w.Severity == goChatAuth.LintWarn {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Code, w.Message)
		}
	}

	if args[0] == "loadtest" {
		if err := runLoadTest(ctx, cfg, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "loadtest: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg.Restore.OnBuild = cfg.Storage.Backend != goChatAuth.StorageNone
	b := goChatAuth.New().WithConfig(cfg)
	if *audit {
		b.WithAuditSink(goChatAuth.NewSlogSink(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}
	client, err := b.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(2)
	}
	defer client.Close()

	cmd := &commands{client: client, out: os.Stdout}
	if err := cmd.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// demoEnvironment points cfg at an in-process backend and a miniredis
// mirror. The returned func tears both down.
func demoEnvironment(cfg goChatAuth.Config) (goChatAuth.Config, func(), error) {
	backend := fakebackend.New()
	srv := backend.Start()

	mr, err := miniredis.Run()
	if err != nil {
		srv.Close()
		return cfg, nil, err
	}

	cfg.API.BaseURL = srv.URL
	cfg.Storage.Backend = goChatAuth.StorageRedis
	cfg.Storage.RedisAddr = mr.Addr()
	cfg.Storage.Namespace = "demo"

	fmt.Printf("using fake backend at %s\n", srv.URL)
	fmt.Printf("using miniredis at %s\n", mr.Addr())

	return cfg, func() {
		mr.Close()
		srv.Close()
	}, nil
}

func newRedis(addr string) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
