package main

import (
	"log"

	"yashubustudio/catalog-search/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("catalog-search: %v", err)
	}
}
