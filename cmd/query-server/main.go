package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rzpsarthak13/query-filters/pkg/queryfilters"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON configuration file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	// 1. Configure the client
	config := queryfilters.DefaultConfig()
	if *configPath != "" {
		loaded, err := queryfilters.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
		config = loaded
	} else {
		config.Database.Database = "testdb"
		config.Database.Username = "root"
		config.Database.Password = "password"
	}

	// 2. Create the client; this builds the entity catalog
	ctx := context.Background()
	client, err := queryfilters.NewClient(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create query-filters client: %v", err)
	}
	defer client.Close()

	// 3. Setup HTTP routes
	srv := &http.Server{
		Addr:              *addr,
		Handler:           newServer(client).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Println("")
	log.Println("API Endpoints:")
	log.Println("  GET /query/{entity}?fields=a,b&page=1&page_size=10&load=<spec>")
	log.Println("  DELETE /count/{entity}")
	log.Println("  GET /entities")
	log.Println("  GET /health")
	log.Printf("Entities: %v", client.Catalog().List())
	log.Printf("Count cache: enabled=%t type=%s", config.CountCache.Enabled, config.CountCache.KVStore.Type)
	log.Println("")

	// 4. Start HTTP server with graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[SERVER] Listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-sigChan
	log.Println("[SERVER] Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[SERVER] Shutdown failed: %v", err)
	}
}
