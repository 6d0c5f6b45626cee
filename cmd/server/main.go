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

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-oauth2-core/clients"
	"github.com/jrsteele09/go-oauth2-core/grantor/memgrantor"
	"github.com/jrsteele09/go-oauth2-core/internal/config"
	"github.com/jrsteele09/go-oauth2-core/server"
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

	grantors, err := devGrantors(c)
	if err != nil {
		return fmt.Errorf("devGrantors: %w", err)
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: server.New(c, grantors)}
	go listenAndServe(srv)
	waitForStopSignal()
	returnError = shutdown(srv)
	return returnError
}

// devGrantors builds an in-memory grant backend seeded from environment
// variables. Intended for development and exploration, not production.
func devGrantors(c config.Config) (server.Grantors, error) {
	g := memgrantor.New(
		memgrantor.WithSigningSecret([]byte(c.GetSigningSecret())),
		memgrantor.WithIssuer(c.GetIssuer()),
		memgrantor.WithCodeLifetime(c.GetAuthCodeLifetime()),
		memgrantor.WithAccessTokenExpiry(c.GetDefaultAccessTokenExpiry()),
	)

	client := &clients.Client{
		ID:          config.GetEnv("DEV_CLIENT_ID", "dev-client"),
		Type:        clients.ClientTypeConfidential,
		Secret:      config.GetEnv("DEV_CLIENT_SECRET", "dev-secret"),
		RedirectURI: config.GetEnv("DEV_CLIENT_REDIRECT_URI", "http://localhost:3000/callback"),
	}
	g.RegisterClient(client)

	ownerID := config.GetEnv("DEV_OWNER_ID", "dev-owner")
	username := config.GetEnv("DEV_OWNER_USERNAME", "dev@example.com")
	password := config.GetEnv("DEV_OWNER_PASSWORD", "password")
	if err := g.RegisterOwner(ownerID, username, password); err != nil {
		return server.Grantors{}, fmt.Errorf("RegisterOwner: %w", err)
	}
	g.SetCurrentOwner(ownerID)

	return server.Grantors{
		Code:              g,
		Implicit:          g,
		OwnerCredentials:  g,
		ClientCredentials: g,
		RefreshToken:      g,
	}, nil
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
