package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-cert-console/auth"
	"github.com/jrsteele09/go-cert-console/console"
	"github.com/jrsteele09/go-cert-console/gateway"
	"github.com/jrsteele09/go-cert-console/internal/config"
	"github.com/jrsteele09/go-cert-console/internal/logging"
	"github.com/jrsteele09/go-cert-console/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const refreshInterval = 30 * time.Second

// dashboardEndpoints are polled together, the way the console home page loads.
var dashboardEndpoints = []string{
	"/api/certificates",
	"/api/cas",
	"/api/acme/providers",
	"/api/users",
}

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running console, restarting")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Console stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.Logger = logging.New(cfg.LogLevel, cfg.IsDev())
	displayAppname(cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := console.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(context.Background()); err != nil {
			log.Err(err).Msg("close storage")
		}
	}()

	if err := subscribe(c); err != nil {
		return err
	}
	if err := signIn(ctx, c); err != nil {
		return err
	}
	return poll(ctx, c)
}

func subscribe(c *console.Console) error {
	if err := c.OnNavigate(func(path string) {
		log.Warn().Str("path", path).Msg("Session ended, sign in again")
	}); err != nil {
		return fmt.Errorf("subscribe navigate: %w", err)
	}
	if err := c.OnTerminated(func(evt sessions.TerminatedEvent) {
		log.Info().Str("reason", string(evt.Reason)).Uint64("generation", evt.Generation).Msg("Session terminated")
	}); err != nil {
		return fmt.Errorf("subscribe terminated: %w", err)
	}
	return nil
}

// signIn uses CONSOLE_EMAIL/CONSOLE_PASSWORD when no valid session is stored.
func signIn(ctx context.Context, c *console.Console) error {
	if c.Auth.IsAuthenticated(ctx) {
		logSession(ctx, c)
		return nil
	}
	if c.Config.Login.Email == "" {
		log.Warn().Msg("No stored session and no CONSOLE_EMAIL set, running anonymously")
		return nil
	}
	profile, err := c.Auth.Login(ctx, auth.Credentials{
		Email:    c.Config.Login.Email,
		Password: c.Config.Login.Password,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if profile != nil {
		log.Info().Str("user", profile.DisplayName()).Msg("Signed in")
	}
	logSession(ctx, c)
	return nil
}

func logSession(ctx context.Context, c *console.Console) {
	tok, err := c.Tokens.TokenSource(ctx, c.Expiry).Token()
	if err != nil {
		return
	}
	tenant, err := c.Tenants.Active(ctx)
	if err != nil {
		log.Err(err).Msg("resolve active tenant")
	}
	log.Info().Time("expires", tok.Expiry).Str("tenant", tenant.Name).Msg("Session active")
}

func poll(ctx context.Context, c *console.Console) error {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		if err := refresh(ctx, c); err != nil {
			log.Err(err).Msg("Dashboard refresh failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func refresh(ctx context.Context, c *console.Console) error {
	g, gctx := errgroup.WithContext(ctx)
	counts := make([]int, len(dashboardEndpoints))
	for i, endpoint := range dashboardEndpoints {
		g.Go(func() error {
			items, err := gateway.Request[[]map[string]any](gctx, c.Gateway, endpoint, gateway.RequestOptions{})
			if err != nil {
				return fmt.Errorf("%s: %w", endpoint, err)
			}
			counts[i] = len(items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			return nil
		}
		return err
	}
	event := log.Info()
	for i, endpoint := range dashboardEndpoints {
		event = event.Int(endpoint, counts[i])
	}
	event.Msg("Dashboard refreshed")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
