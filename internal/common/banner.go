package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

const bannerWidth = 70

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	printBanner(os.Stderr, config)

	logger.Info().
		Str("version", GetVersion()).
		Str("build", GetBuild()).
		Str("commit", GetGitCommit()).
		Str("environment", config.Environment).
		Str("storage_backend", config.Storage.Backend).
		Bool("trade_events", config.Notify.Kafka.Address != "").
		Bool("tier_queue", config.Notify.Redis.Address != "").
		Msg("Application started")
}

func printBanner(w io.Writer, config *Config) {
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", bannerWidth) + banner.ColorReset

	art := []string{
		`  ____  _             _    _____              _`,
		` / ___|| |_ ___   ___| | _|_   _| __ __ _  __| | ___ _ __`,
		` \___ \| __/ _ \ / __| |/ / | || '__/ _' |/ _' |/ _ \ '__|`,
		`  ___) | || (_) | (__|   <  | || | | (_| | (_| |  __/ |`,
		` |____/ \__\___/ \___|_|\_\ |_||_|  \__,_|\__,_|\___|_|`,
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Portfolio Valuation & Loyalty Service%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "\n%s\n\n", hr)

	storage := config.Storage.Backend
	if storage == "surrealdb" {
		storage = fmt.Sprintf("%s (%s)", storage, config.Storage.Address)
	}

	kvPad := 16
	kvLines := [][2]string{
		{"Version", GetVersion()},
		{"Build", GetBuild()},
		{"Commit", GetGitCommit()},
		{"Environment", config.Environment},
		{"Service URL", serviceURL},
		{"Storage", storage},
		{"Stock Quote", config.Clients.StockQuote.BaseURL},
		{"Loyalty Rules", config.Clients.ODM.BaseURL},
		{"Tier Queue", orDisabled(config.Notify.Redis.Address)},
		{"Trade Events", orDisabled(config.Notify.Kafka.Address)},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
}

func orDisabled(addr string) string {
	if addr == "" {
		return "disabled"
	}
	return addr
}

// PrintShutdownBanner displays the shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	textColor := banner.ColorBold + banner.ColorWhite
	hr := banner.ColorCyan + strings.Repeat("═", bannerWidth) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  STOCKTRADER PORTFOLIO - SHUTTING DOWN%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	logger.Info().Msg("Application shutting down")
}
