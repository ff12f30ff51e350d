package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"gotrack/adapters/db"
	"gotrack/adapters/excel"
	"gotrack/app"
	"gotrack/domain/stats"
	"gotrack/internal/config"
	"gotrack/internal/errors"
	"gotrack/internal/testkit"
	"gotrack/ports"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig.Data.TrialsFile == "" {
		log.Fatal("Failed to start: ", errors.ConfigInvalid("TRIALS_FILE is required"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results ports.ResultRepository
	if appConfig.Database.Enabled() {
		conn, err := db.Open(ctx, appConfig.Database.Driver, appConfig.Database.URL)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		defer conn.Close()
		results = db.NewResultRepository(conn)
		log.Printf("✅ Result store ready (%s)", appConfig.Database.Driver)
	}

	var participants ports.ParticipantSource
	if appConfig.Data.ParticipantsFile != "" {
		participants = excel.NewParticipantReader(appConfig.Data.ParticipantsFile)
	}

	kit, err := testkit.NewTestKit()
	if err != nil {
		log.Fatalf("Failed to initialize RNG: %v", err)
	}

	service := app.NewAnalysisService(appConfig, excel.NewDataReader(appConfig.Data.TrialsFile), participants, results, kit.RNGAdapter())

	startTime := time.Now()
	report, _, err := service.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Analysis failed: %v", err)
	}

	printSummary(report, time.Since(startTime))
}

func printSummary(report *stats.AnalysisReport, elapsed time.Duration) {
	f := report.Funnel
	fmt.Printf("\n📊 ANALYSIS %s (%v)\n", report.RunID, elapsed.Round(time.Millisecond))
	fmt.Printf("Trials: %d loaded, %d analysed (%d typical, %d atypical) from %d subjects\n",
		f.Loaded, f.Analysed, f.Typical, f.Atypical, f.Subjects)

	for _, mt := range report.Metrics {
		if mt.Paired == nil {
			continue
		}
		fmt.Printf("  %-20s paired t=%7.3f  p=%.4f  dz=%.2f\n", mt.Metric, mt.Paired.T, mt.Paired.PValue, mt.Paired.CohensD)
	}

	if d := report.Divergence; d != nil {
		fmt.Printf("Divergence: longest run %d steps from step %d\n", d.LongestRun, d.RunStart)
	}
	if b := report.Bootstrap; b != nil {
		marker := "⚪"
		if b.Significant() {
			marker = "✅"
		}
		fmt.Printf("%s Bootstrap: critical run %d, p=%.4f over %d draws\n", marker, b.CriticalRun, b.PValue, b.Draws)
	}
	for _, w := range report.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
}
