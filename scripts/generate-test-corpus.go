//go:build ignore

// Package main generates a synthetic file tree for benchmarking
// everfind. A fixed fraction of files contains the needle string at
// known positions, so benchmark runs can verify their match counts.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
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
	needle    = flag.String("needle", "EVERFIND_NEEDLE", "Match string planted in every tenth file")
	avgLines  = flag.Int("lines", 200, "Average lines per file")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var words = []string{
	"request", "handler", "timeout", "buffer", "worker", "channel",
	"context", "index", "走査", "результат", "métadonnées", "payload",
	"retry", "shutdown", "listener", "config", "metric", "snapshot",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	planted := 0
	for i := 0; i < *numFiles; i++ {
		dir := filepath.Join(*outputDir, fmt.Sprintf("dir%02d", i%25))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		plant := i%10 == 0
		if plant {
			planted++
		}

		path := filepath.Join(dir, fmt.Sprintf("file%05d.txt", i))
		if err := os.WriteFile(path, genFile(rng, plant), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("generated %d files under %s (%d containing %q)\n",
		*numFiles, *outputDir, planted, *needle)
}

// genFile produces random prose; when plant is set the needle appears
// on exactly one line in the middle of the file.
func genFile(rng *rand.Rand, plant bool) []byte {
	lines := *avgLines/2 + rng.Intn(*avgLines)
	var b strings.Builder

	needleLine := -1
	if plant {
		needleLine = lines / 2
	}

	for i := 0; i < lines; i++ {
		n := 3 + rng.Intn(10)
		for j := 0; j < n; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(words[rng.Intn(len(words))])
		}
		if i == needleLine {
			b.WriteByte(' ')
			b.WriteString(*needle)
		}
		b.WriteByte('\n')
	}

	return []byte(b.String())
}
