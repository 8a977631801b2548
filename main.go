package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"zainzo-board/api"
	"zainzo-board/board"
	"zainzo-board/drag"
	"zainzo-board/gtasks"
	"zainzo-board/queue"
	"zainzo-board/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	tokens := gtasks.NewStaticToken(accessToken())

	rc := redisClient(logger)
	colors := storage.NewColorStore(rc, logger)

	broker := board.NewBroker()

	var store *board.Store
	client := gtasks.New(tokens, logger, gtasksOptions(func() {
		// 401 from the remote: drop the session and tell stream clients.
		tokens.Set("")
		if store != nil {
			store.EmitLoggedOut()
		}
	})...)

	patches := queue.New(client, logger, queueOptions()...)
	store = board.New(client, patches, colors, broker, logger)
	dragger := drag.New(store, logger)

	loadCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := store.Load(loadCtx); err != nil {
		logger.WithError(err).Warn("initial board load failed; serving empty board")
	}
	cancel()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, store, dragger, authenticator(), logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("BOARD_PORT"); ok {
		listenAddr = ":" + val
	}

	go func() {
		if err := e.Start(listenAddr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	// Push any batched card edits before the process goes away.
	patches.Flush()
	patches.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}

// envDur reads a duration env var, falling back to def when unset. A value
// that does not parse, or is not positive, is fatal.
func envDur(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", name, err)
	}
	return d
}

// accessToken reads the remote store credential from GOOGLE_ACCESS_TOKEN or,
// for setups that rotate the token on disk, GOOGLE_ACCESS_TOKEN_FILE.
func accessToken() string {
	if tok := os.Getenv("GOOGLE_ACCESS_TOKEN"); tok != "" {
		return tok
	}
	if path := os.Getenv("GOOGLE_ACCESS_TOKEN_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read token file: %v", err)
		}
		return strings.TrimSpace(string(data))
	}
	log.Fatal("missing GOOGLE_ACCESS_TOKEN")
	return ""
}

func gtasksOptions(onLogout func()) []gtasks.Option {
	opts := []gtasks.Option{gtasks.WithLogoutHook(onLogout)}
	if base := os.Getenv("TASKS_API_BASE_URL"); base != "" {
		opts = append(opts, gtasks.WithBaseURL(base))
	}
	if d := envDur("TASKS_API_TIMEOUT", 0); d > 0 {
		opts = append(opts, gtasks.WithTimeout(d))
	}
	return opts
}

func queueOptions() []queue.Option {
	var opts []queue.Option
	if d := envDur("PATCH_FLUSH_DELAY", 0); d > 0 {
		opts = append(opts, queue.WithFlushDelay(d))
	}
	return opts
}

// redisClient connects the color sidecar store. Redis is optional: without
// it column colors simply do not persist across restarts.
func redisClient(logger *log.Logger) *redis.Client {
	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		logger.Warn("no redis configured; column colors will not persist")
		return nil
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	return redis.NewClient(redisOpts)
}

// authenticator picks the facade auth mode: RS256 against a JWKS when an
// identity provider is configured, HS256 with a shared secret for local
// deployments, otherwise no auth at all (loopback-only setups).
func authenticator() api.Authenticator {
	if domain := os.Getenv("AUTH_DOMAIN"); domain != "" {
		jwtAudience := os.Getenv("AUTH_AUDIENCE")
		if jwtAudience == "" {
			log.Fatal("AUTH_DOMAIN set but AUTH_AUDIENCE missing")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		return api.NewAuth(jwks, jwtAudience, "https://"+domain+"/")
	}
	if secret := os.Getenv("LOCAL_AUTH_SECRET"); secret != "" {
		return api.NewLocalAuth([]byte(secret))
	}
	log.Warn("no auth configured; accepting all requests")
	return api.NoAuth{}
}
