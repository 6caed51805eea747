package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/config"
	"nihongo/internal/database"
	"nihongo/internal/logger"
	"nihongo/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt of -clear")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	backupService := service.NewBackupService(db, log)
	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		handleExport(ctx, log, backupService, *exportOutput)

	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, log, backupService, *importInput, *importClear, *importYes)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, log *zap.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("Failed to create output directory", zap.Error(err))
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		log.Fatal("Failed to create backup file", zap.Error(err))
	}

	log.Info("Exporting database", zap.String("file", outputPath))
	if _, err := backupService.Export(ctx, file); err != nil {
		file.Close()
		log.Fatal("Export failed", zap.Error(err))
	}
	if err := file.Close(); err != nil {
		log.Fatal("Failed to write backup file", zap.Error(err))
	}

	if info, err := os.Stat(outputPath); err == nil {
		log.Info("Export complete", zap.Float64("sizeMB", float64(info.Size())/1024/1024))
	}
}

func handleImport(ctx context.Context, log *zap.Logger, backupService *service.BackupService, inputPath string, clearData, assumeYes bool) {
	file, err := os.Open(inputPath)
	if err != nil {
		log.Fatal("Failed to open input file", zap.String("file", inputPath), zap.Error(err))
	}
	defer file.Close()

	if clearData {
		if !assumeYes && !confirm("WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
			log.Info("Import cancelled")
			return
		}

		log.Info("Clearing existing data...")
		if err := backupService.Clear(ctx); err != nil {
			log.Fatal("Failed to clear database", zap.Error(err))
		}
	}

	log.Info("Importing database", zap.String("file", inputPath))
	backup, err := backupService.Import(ctx, file)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}

	log.Info("Import complete",
		zap.Int("users", len(backup.Users)),
		zap.Int("examResults", len(backup.ExamResults)),
		zap.Int("notifications", len(backup.Notifications)),
	)
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

func printUsage() {
	fmt.Println("Nihongo Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to JSON file")
	fmt.Println("  backup import [options]    Import database from JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println("  -yes              Do not ask for confirmation when clearing")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE           Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH           SQLite database path (default: ./nihongo.db)")
	fmt.Println("  DATABASE_URL      PostgreSQL or MySQL connection URL")
}
