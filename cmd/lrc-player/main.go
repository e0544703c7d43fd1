package main

import (
	"lrc-player/internal/app"
	"lrc-player/internal/config"
)

func main() {
	cfg := config.Load()
	app := app.New(cfg)
	app.Run()
}
