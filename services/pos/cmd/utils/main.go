package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/appetite/services/pos/cmd/utils/internal/commands"
	"github.com/appetiteclub/apt"
	"github.com/joho/godotenv"
)

const (
	appName    = "pos-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	// Same namespace as the service so both read one .env
	config, err := apt.LoadConfig("POS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logger := apt.NewLogger(config.GetStringOrDef("log.level", "info"))

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-menu":
		if err := commands.SeedMenu(ctx, config, logger); err != nil {
			log.Fatalf("Menu seeding failed: %v", err)
		}
		logger.Info("Menu and tables seeded")

	case "clear-demo":
		if err := commands.ClearDemo(ctx, config, logger); err != nil {
			log.Fatalf("Clear demo data failed: %v", err)
		}
		logger.Info("Demo data cleared")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - POS operator commands

Usage:
  %s <command> [options]

Commands:
  seed-menu    Save the demo menu and tables (safe to run twice)
  clear-demo   Remove orders, tickets and bills and free every table
  version      Print version information
  help         Show this help message

Environment Variables:
  POS_DB_DRIVER      memory, mongo or mysql (default: mongo)
  POS_DB_MONGO_URL   MongoDB connection URL
  POS_DB_MYSQL_DSN   MySQL DSN
  POS_LOG_LEVEL      Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-menu
  POS_DB_DRIVER=mysql %s clear-demo

`, appName, appName, appName, appName)
}
