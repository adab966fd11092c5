package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/admuse/go-link-broker/internal/config"
	"github.com/admuse/go-link-broker/linkedaccounts"
	"github.com/admuse/go-link-broker/linksession"
	"github.com/admuse/go-link-broker/providers"
	"github.com/admuse/go-link-broker/server"
	"github.com/common-nighthawk/go-figure"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	sessionRepo, err := newSessionRepo(c)
	if err != nil {
		return fmt.Errorf("creating link session repo: %w", err)
	}
	defer sessionRepo.Close()

	registry, err := newProviderRegistry(c)
	if err != nil {
		return fmt.Errorf("building provider registry: %w", err)
	}

	srv, err := server.New(c, sessionRepo, linkedaccounts.NewInMemoryRepo(), registry)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// newSessionRepo picks the session store backend: the in-memory repo for
// a single instance, Redis when the broker runs as multiple replicas.
func newSessionRepo(c config.Config) (linksession.Repo, error) {
	if c.GetSessionStoreBackend() == "redis" {
		return linksession.NewRedisRepoFromEnv(c.GetLinkSessionTTL(), c.GetTerminalGracePeriod())
	}
	return linksession.NewInMemoryRepo(linksession.InMemoryConfig{
		TTL:           c.GetLinkSessionTTL(),
		SweepInterval: c.GetSweepInterval(),
		GracePeriod:   c.GetTerminalGracePeriod(),
	}), nil
}

func newProviderRegistry(c config.Config) (*providers.Registry, error) {
	registry := providers.NewRegistry()

	if c.GetMetaClientID() != "" {
		registry.Register(providers.NewMeta(c.GetMetaClientID(), c.GetMetaClientSecret(), c.GetMetaScopes()))
	}

	if issuer := c.GetOIDCIssuer(); issuer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p, err := providers.NewOIDC(ctx, "oidc", issuer, c.GetOIDCClientID(), c.GetOIDCClientSecret())
		if err != nil {
			return nil, err
		}
		registry.Register(p)
	}

	if len(registry.Names()) == 0 {
		return nil, errors.New("no providers configured: set META_CLIENT_ID or OIDC_ISSUER")
	}

	return registry, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
