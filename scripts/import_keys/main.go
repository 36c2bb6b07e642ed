package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mroshb/quiz_bot/internal/config"
	"github.com/mroshb/quiz_bot/internal/database"
	"github.com/mroshb/quiz_bot/internal/ingest"
	"github.com/mroshb/quiz_bot/internal/repositories"
	"github.com/mroshb/quiz_bot/internal/services"
	"github.com/mroshb/quiz_bot/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// import_keys creates a test from an answer key workbook:
//
//	go run ./scripts/import_keys -file key.xlsx -title "Math 9" -code MATH9
//	go run ./scripts/import_keys -file key.xlsx -dry-run
func main() {
	file := flag.String("file", "", "path to the .xlsx answer key")
	title := flag.String("title", "", "test title")
	code := flag.String("code", "-", `test code, "-" generates one`)
	adminID := flag.Int64("admin", 0, "telegram id recorded as the creator")
	dryRun := flag.Bool("dry-run", false, "print the first rows and the parsed key without saving")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	logger.Init()
	defer logger.Sync()

	if *dryRun {
		if err := inspect(*file); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatal("invalid config: ", err)
	}
	if *adminID == 0 && len(cfg.AdminIDs) > 0 {
		*adminID = cfg.AdminIDs[0]
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	key, err := ingest.ReadWorkbook(f)
	if err != nil {
		log.Fatal("failed to read answer key: ", err)
	}

	tests := repositories.NewTestRepository(db)
	admin := services.NewAdminService(tests, repositories.NewResultRepository(db), repositories.NewSettingsRepository(db), cfg)

	ctx := context.Background()
	cleanTitle, err := admin.ValidateTitle(*title)
	if err != nil {
		log.Fatal(err)
	}
	cleanCode, err := admin.PrepareCode(ctx, *code)
	if err != nil {
		log.Fatal(err)
	}

	test, err := admin.CreateTest(ctx, *adminID, cleanTitle, cleanCode, key)
	if err != nil {
		log.Fatal("failed to create test: ", err)
	}

	fmt.Printf("Created test %q with code %s and %d questions.\n", test.Title, test.Code, test.QuestionCount)
}

func inspect(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets found")
	}
	fmt.Printf("Sheets: %v\n", sheets)

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i > 5 {
			break
		}
		fmt.Printf("Row %d: %v\n", i, row)
	}

	key := ingest.KeyFromRows(rows)
	fmt.Printf("Parsed %d answers: %s\n", key.Len(), key.String())
	return nil
}
