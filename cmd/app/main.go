package main

import (
	"github.com/humanbelnik/movieleague/internal/app"
	"github.com/humanbelnik/movieleague/internal/config"
)

func main() {
	app.Go(config.Load())
}
