package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"moviereview/app/config"
	"moviereview/app/repositories"
	"moviereview/app/runtime"
)

// HandleCommand handles ledger subcommands and returns an exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		printLedgerHelp()
		return 1
	}

	cmd := args[0]
	if cmd == "help" {
		printLedgerHelp()
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	switch cmd {
	case "clean", "init", "status", "backup", "restore":
		if cfg.InMemory {
			fmt.Printf("LEDGER_IN_MEMORY is set: the ledger lives inside the serve process, '%s' has nothing on disk to work on\n", cmd)
			return 1
		}
	}

	switch cmd {
	case "serve":
		if err := RunAppServer(cfg); err != nil {
			fmt.Printf("Error: %v\n", err)
			return 1
		}
		return 0
	case "clean":
		clean(cfg)
		return 0
	case "init":
		return initDb(cfg)
	case "status":
		return status(cfg)
	case "backup":
		_, code := backup(cfg)
		return code
	case "restore":
		if len(args) < 2 {
			fmt.Println("Error: backup file path required for restore")
			return 1
		}
		return restore(cfg, args[1])
	default:
		fmt.Printf("Unknown ledger command: %s\n\n", cmd)
		printLedgerHelp()
		return 1
	}
}

// printLedgerHelp prints help for ledger subcommands.
func printLedgerHelp() {
	helpText := `Usage: moviereview ledger <command>

Commands:
  serve            Run the ledger node and its HTTP API
  init             Initialize a new ledger with its genesis hash
  status           Show the ledger head
  clean            Remove the ledger database
  backup           Create a backup of the ledger
  restore [file]   Restore the ledger from a backup
  help             Display this help message

Settings are read from LEDGER_* environment variables.
`
	fmt.Println(helpText)
}

// clean removes the database.
func clean(cfg *config.Config) {
	if !exists(cfg.DBPath) {
		fmt.Println("Ledger is already clean (does not exist)")
		return
	}

	if !confirm("Are you sure you want to clean the ledger? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return
	}

	if err := os.RemoveAll(cfg.DBPath); err != nil {
		fmt.Printf("Failed to clean ledger: %v\n", err)
		return
	}
	fmt.Println("Ledger cleaned successfully")
}

// initDb creates a new ledger and writes its genesis hash.
func initDb(cfg *config.Config) int {
	if exists(cfg.DBPath) {
		fmt.Println("Ledger already exists. Use 'clean' first if you want to reinitialize.")
		return 0
	}

	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		fmt.Printf("Failed to create ledger directory: %v\n", err)
		return 1
	}

	repo, err := repositories.NewRepository(cfg.DBPath)
	if err != nil {
		fmt.Printf("Failed to initialize ledger: %v\n", err)
		return 1
	}
	defer repo.Close()

	rt, err := runtime.New(repo)
	if err != nil {
		fmt.Printf("Failed to write genesis: %v\n", err)
		return 1
	}
	st, err := rt.Status(context.Background())
	if err != nil {
		fmt.Printf("Failed to read ledger head: %v\n", err)
		return 1
	}

	fmt.Printf("Ledger initialized successfully (genesis %s)\n", st.BankHash)
	return 0
}

// status prints the ledger head.
func status(cfg *config.Config) int {
	if !exists(cfg.DBPath) {
		fmt.Println("No ledger exists. Run 'init' first.")
		return 1
	}

	repo, err := repositories.NewRepository(cfg.DBPath)
	if err != nil {
		fmt.Printf("Failed to open ledger: %v\n", err)
		return 1
	}
	defer repo.Close()

	rt, err := runtime.New(repo)
	if err != nil {
		fmt.Printf("Failed to open ledger: %v\n", err)
		return 1
	}
	st, err := rt.Status(context.Background())
	if err != nil {
		fmt.Printf("Failed to read ledger head: %v\n", err)
		return 1
	}

	fmt.Printf("Program:      %s\n", cfg.ProgramID)
	fmt.Printf("Slot:         %d\n", st.Slot)
	fmt.Printf("Bank hash:    %s\n", st.BankHash)
	fmt.Printf("Transactions: %d\n", st.Transactions)
	return 0
}

// backup creates a backup of the database and returns its path.
func backup(cfg *config.Config) (string, int) {
	if !exists(cfg.DBPath) {
		fmt.Println("No ledger exists to backup")
		return "", 1
	}

	if err := os.MkdirAll(cfg.BackupDir, 0755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return "", 1
	}

	repo, err := repositories.NewRepository(cfg.DBPath)
	if err != nil {
		fmt.Printf("Failed to open ledger: %v\n", err)
		return "", 1
	}
	defer repo.Close()

	backupFile := filepath.Join(cfg.BackupDir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return "", 1
	}
	defer f.Close()

	if err := repo.Backup(f); err != nil {
		fmt.Printf("Failed to backup ledger: %v\n", err)
		return "", 1
	}

	fmt.Printf("Ledger backed up successfully to %s\n", backupFile)
	return backupFile, 0
}

// restore restores the database from a backup.
func restore(cfg *config.Config, backupFile string) int {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if exists(cfg.DBPath) {
		if !confirm("Existing ledger found. Do you want to replace it?") {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(cfg.DBPath); err != nil {
			fmt.Printf("Failed to remove existing ledger: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		fmt.Printf("Failed to create ledger directory: %v\n", err)
		return 1
	}

	repo, err := repositories.NewRepository(cfg.DBPath)
	if err != nil {
		fmt.Printf("Failed to open ledger: %v\n", err)
		return 1
	}
	defer repo.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return repo.Load(f)
	}()
	if err != nil {
		fmt.Printf("Failed to restore ledger: %v\n", err)
		return 1
	}

	fmt.Println("Ledger restored successfully")
	return 0
}
