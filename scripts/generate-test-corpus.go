//go:build ignore

// Package main generates a synthetic document corpus for benchmarking.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
//
// Every file mixes a shared vocabulary (low IDF, appears everywhere)
// with a handful of topic words (high IDF), so ranking benchmarks see
// realistic frequency spreads instead of uniform noise.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var mdTemplate = `# %s %s

## Overview

The %s subsystem handles %s across the installation. Operators
interact with it through the scheduling console.

%s

## Procedures

1. Verify the %s is reachable.
2. Drain pending work from the %s queue.
3. Apply the maintenance window and restart.

%s

## Troubleshooting

When the %s reports drift, compare its ledger against the primary
replica before resynchronizing.

%s
`

var xhtmlTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>%s %s</title>
</head>
<body>
  <h1>%s operations</h1>
  <p>%s</p>
  <h2>Scheduled maintenance</h2>
  <p>%s</p>
  <h2>Escalation</h2>
  <p>%s</p>
</body>
</html>
`

// Word pools for generating operational prose.
var (
	commonWords = []string{
		"the", "a", "system", "operator", "service", "during", "after",
		"before", "every", "window", "report", "status", "check", "run",
		"daily", "weekly", "shift", "log", "record", "review", "confirm",
		"pending", "complete", "schedule", "procedure", "manual", "section",
	}
	subjects = []string{
		"turbine", "compressor", "boiler", "reactor", "conveyor",
		"furnace", "pump", "valve", "generator", "transformer",
		"chiller", "crane", "kiln", "press", "lathe",
	}
	qualifiers = []string{
		"primary", "secondary", "auxiliary", "redundant", "portable",
		"stationary", "overhead", "subsurface", "coastal", "inland",
	}
	activities = []string{
		"lubrication", "calibration", "inspection", "overhaul",
		"alignment", "balancing", "commissioning", "decommissioning",
		"winterization", "certification",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	subdirs := []string{"notes", "manuals", "pages"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d files in %s...\n", *numFiles, *outputDir)

	txtFiles := *numFiles * 50 / 100
	mdFiles := *numFiles * 30 / 100
	xhtmlFiles := *numFiles - txtFiles - mdFiles

	generated := 0
	for i := 0; i < txtFiles; i++ {
		if err := generateTextFile(rng, i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating text file %d: %v\n", i, err)
		}
		generated++
	}
	for i := 0; i < mdFiles; i++ {
		if err := generateMarkdownFile(rng, i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating markdown file %d: %v\n", i, err)
		}
		generated++
	}
	for i := 0; i < xhtmlFiles; i++ {
		if err := generateXHTMLFile(rng, i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating xhtml file %d: %v\n", i, err)
		}
		generated++
	}

	fmt.Printf("Generated %d files successfully.\n", generated)
}

func randomWord(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

// paragraph builds n words of prose: mostly shared vocabulary, with the
// topic words sprinkled in so each file gets a distinctive term profile.
func paragraph(rng *rand.Rand, topic []string, n int) string {
	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if rng.Intn(5) == 0 {
			words = append(words, topic[rng.Intn(len(topic))])
		} else {
			words = append(words, randomWord(rng, commonWords))
		}
	}
	return strings.Join(words, " ")
}

// topicFor picks the distinctive vocabulary of one file.
func topicFor(rng *rand.Rand) []string {
	return []string{
		randomWord(rng, subjects),
		randomWord(rng, qualifiers),
		randomWord(rng, activities),
	}
}

func generateTextFile(rng *rand.Rand, index int) error {
	topic := topicFor(rng)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s log\n\n", topic[1], topic[0], topic[2])
	for p := 0; p < 3+rng.Intn(4); p++ {
		b.WriteString(paragraph(rng, topic, 40+rng.Intn(80)))
		b.WriteString("\n\n")
	}

	filename := filepath.Join(*outputDir, "notes", fmt.Sprintf("%s_%s_%d.txt", topic[1], topic[0], index))
	return os.WriteFile(filename, []byte(b.String()), 0o644)
}

func generateMarkdownFile(rng *rand.Rand, index int) error {
	topic := topicFor(rng)
	content := fmt.Sprintf(mdTemplate,
		topic[1], topic[0],
		topic[0], topic[2],
		paragraph(rng, topic, 60),
		topic[0], topic[0],
		paragraph(rng, topic, 50),
		topic[0],
		paragraph(rng, topic, 40),
	)

	filename := filepath.Join(*outputDir, "manuals", fmt.Sprintf("%s_%d.md", topic[0], index))
	return os.WriteFile(filename, []byte(content), 0o644)
}

func generateXHTMLFile(rng *rand.Rand, index int) error {
	topic := topicFor(rng)
	content := fmt.Sprintf(xhtmlTemplate,
		topic[1], topic[0],
		topic[0],
		paragraph(rng, topic, 50),
		paragraph(rng, topic, 40),
		paragraph(rng, topic, 30),
	)

	filename := filepath.Join(*outputDir, "pages", fmt.Sprintf("%s_%d.xhtml", topic[0], index))
	return os.WriteFile(filename, []byte(content), 0o644)
}
