package main

import (
	"log"

	"github.com/openeduhub/kidra/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ kidra failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ kidra stopped with error: %v", err)
	}
}
