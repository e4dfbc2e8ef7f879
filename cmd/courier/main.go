package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var logLevel slog.LevelVar

func main() {
	w := os.Stderr
	slog.SetDefault(slog.New(tint.NewHandler(
		colorable.NewColorable(w),
		&tint.Options{
			Level:   &logLevel,
			NoColor: !isatty.IsTerminal(w.Fd()),
		},
	)))

	Execute()
}
