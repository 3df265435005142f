package main

import (
	"os"

	"github.com/harbourhotels/hotel-site/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
