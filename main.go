package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/hitoshi/projman/internal/app"
)

func main() {
	// .envが存在する場合のみ読み込む（未設定でもエラーにしない）
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
