package main

import (
	"fmt"
	"os"
	"strings"

	"moviereview/keygen"
	"moviereview/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the top-level command in os.Args.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("moviereview version %s\n", CliVersion)
	case "keygen":
		if err := keygen.RunKeygen(os.Args[2:]); err != nil {
			fmt.Printf("Error: %v\n", err)
			exit(1)
		}
	case "serve":
		exit(service.HandleCommand([]string{"serve"}))
	case "ledger":
		exit(service.HandleCommand(os.Args[2:]))
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: moviereview <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  keygen    [options]            Generate a keypair, optionally with a vanity prefix
                                 (e.g., keygen -prefix Mov -outfile id.json).
  serve                          Run the ledger node with the movie review program.
  ledger <command>               Manage the ledger (serve, init, status, clean, backup, restore).
`
	fmt.Println(helpText)
}
