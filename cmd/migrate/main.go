package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gotrack/adapters/db"
	"gotrack/domain/core"
	"gotrack/domain/stats"
	"gotrack/internal/config"
	"gotrack/ports"
)

// migrate creates the result schema and imports JSON reports written with REPORT_FILE
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [report_dir]")
	}

	databaseURL := os.Args[1]
	ctx := context.Background()

	conn, err := db.Open(ctx, config.InferDriver(databaseURL), databaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer conn.Close()
	log.Printf("Schema ready on %s", config.InferDriver(databaseURL))

	if len(os.Args) < 3 {
		return
	}
	reportDir := os.Args[2]
	repo := db.NewResultRepository(conn)

	files, err := findReportFiles(reportDir)
	if err != nil {
		log.Fatalf("Failed to find report files: %v", err)
	}
	log.Printf("Found %d report files to import", len(files))

	imported := 0
	skipped := 0
	for _, file := range files {
		report, err := loadReport(file)
		if err != nil {
			log.Printf("Failed to load report from %s: %v", file, err)
			skipped++
			continue
		}

		if _, err := repo.GetRun(ctx, report.RunID); err == nil {
			log.Printf("Run %s already stored, skipping %s", report.RunID, filepath.Base(file))
			skipped++
			continue
		}

		if err := importReport(ctx, repo, report); err != nil {
			log.Printf("Failed to import run %s: %v", report.RunID, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported run %s from %s", report.RunID, filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func importReport(ctx context.Context, repo ports.ResultRepository, report *stats.AnalysisReport) error {
	if err := repo.SaveRun(ctx, report); err != nil {
		return err
	}
	if err := repo.SaveTests(ctx, report.RunID, report.Records()); err != nil {
		return err
	}
	if report.Bootstrap != nil {
		return repo.SaveBootstrap(ctx, report.RunID, report.Bootstrap)
	}
	return nil
}

func findReportFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func loadReport(filePath string) (*stats.AnalysisReport, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var report stats.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	if report.RunID == "" {
		// A report without a run id gets a deterministic one from its path
		report.RunID = core.RunID(core.NewHash([]byte(filePath)).Short())
	}

	return &report, nil
}
