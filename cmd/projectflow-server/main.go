package main

import (
	"log"
	"os"

	"github.com/projectflow/projectflow/internal/devserver"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = devserver.DefaultDSN
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "projectflow-dev-secret"
		log.Println("JWT_SECRET not set, using development default")
	}

	srv, err := devserver.New(dbURL, secret)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
	}()

	log.Printf("ProjectFlow server starting on :%s", port)
	if err := srv.Start(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
