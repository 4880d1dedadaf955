package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"nexus/cmd/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
