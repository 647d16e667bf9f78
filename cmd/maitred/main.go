package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/tillberg/autorestart"

	"github.com/soyeahso/maitred/internal/cli"
)

func main() {
	_ = godotenv.Load()
	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
