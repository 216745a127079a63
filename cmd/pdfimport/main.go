package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quizbank/internal/client"
	"quizbank/internal/config"
	"quizbank/internal/middleware"
	"quizbank/internal/models"
	"quizbank/internal/pdfparser"
)

func main() {
	output := flag.String("output", "", "Path to output JSON file (defaults to questions.json next to the first input)")
	upload := flag.Bool("upload", false, "Send new questions to the API after parsing")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: pdfimport [-output <json-file>] [-upload] [-verbose] <pdf-file>...\n")
		os.Exit(1)
	}

	questions := parseAll(inputs, *verbose)

	if *output == "" {
		*output = filepath.Join(filepath.Dir(inputs[0]), "questions.json")
	}
	writeQuestions(questions, *output)

	if *upload {
		if err := send(questions, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Error uploading questions: %v\n", err)
			os.Exit(1)
		}
	}
}

// parseAll never returns nil so an empty run writes [] rather than null.
func parseAll(paths []string, verbose bool) []models.Question {
	questions := []models.Question{}
	for _, path := range paths {
		questions = append(questions, parse(path, verbose)...)
	}
	return questions
}

func parse(path string, verbose bool) []models.Question {
	if verbose {
		fmt.Printf("Parsing PDF: %s\n", path)
	}
	result := pdfparser.ParseFile(path)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, e)
	}

	valid, invalid := pdfparser.ValidateQuestions(result.Questions)
	for _, iq := range invalid {
		fmt.Fprintf(os.Stderr, "%s: skipped %q: %s\n", path, iq.Question.Content, strings.Join(iq.Errors, "; "))
	}
	if verbose {
		fmt.Printf("  %d blocks extracted, %d questions kept\n", result.TotalExtracted, len(valid))
	}
	return valid
}

func writeQuestions(questions []models.Question, path string) {
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %d questions to: %s\n", len(questions), path)
}

// send skips questions whose content is already in the bank and bulk-inserts the rest.
func send(questions []models.Question, verbose bool) error {
	cfg := config.Load()
	token := cfg.Client.APIToken
	if token == "" && cfg.Auth.AdminJWTSecret != "" {
		var err error
		if token, err = middleware.GenerateAdminToken("pdfimport", cfg.Auth.AdminJWTSecret, 10*time.Minute); err != nil {
			return err
		}
	}
	api := client.NewAPI(cfg.Client.APIBaseURL, token, cfg.Client.RequestTimeout)
	ctx := context.Background()

	contents := make([]string, len(questions))
	for i, q := range questions {
		contents[i] = q.Content
	}
	dups, err := api.CheckDuplicates(ctx, contents)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	existing := make(map[string]bool, len(dups))
	for _, d := range dups {
		existing[d.Content] = true
		if verbose {
			fmt.Printf("  already in bank (%s): %s\n", d.ExistingID, d.Content)
		}
	}

	var fresh []models.Question
	for _, q := range questions {
		if !existing[q.Content] {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) == 0 {
		fmt.Println("Nothing new to upload")
		return nil
	}

	res, err := api.BulkCreate(ctx, fresh)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %d questions to %s (%d duplicates skipped)\n", res.InsertedCount, api.BaseURL, len(questions)-len(fresh))
	return nil
}
