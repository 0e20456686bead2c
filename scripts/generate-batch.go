//go:build ignore

// Generates a synthetic document batch for benchmarking index builds.
// Usage: go run scripts/generate-batch.go -sections 5000 -output testdata/bench-batch.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

var (
	numSections = flag.Int("sections", 5000, "Number of sections to generate")
	output      = flag.String("output", "testdata/bench-batch.json", "Output batch file")
	seed        = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var legalVocab = []string{
	"smlouva", "závazek", "vlastnictví", "nájem", "náhrada", "škoda",
	"věřitel", "dlužník", "pohledávka", "plnění", "výpověď", "odstoupení",
	"lhůta", "promlčení", "úrok", "zástavní", "právo", "povinnost",
	"ustanovení", "odstavec", "soud", "řízení", "strana", "ujednání",
}

var conceptPool = []string{
	"nájemní smlouva", "kupní smlouva", "náhrada škody", "dobré mravy",
	"vlastnické právo", "promlčecí lhůta", "odstoupení od smlouvy",
	"zástavní právo", "bezdůvodné obohacení", "výpovědní doba",
}

type document struct {
	ID                 string   `json:"id"`
	OfficialIdentifier string   `json:"official_identifier"`
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	ConceptTerms       []string `json:"concept_terms"`
	BodyText           string   `json:"body_text"`
	Level              int      `json:"level"`
	DocType            string   `json:"type"`
}

type batch struct {
	CollectionID string     `json:"collection_id"`
	Documents    []document `json:"documents"`
}

func sentence(rng *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = legalVocab[rng.Intn(len(legalVocab))]
	}
	return strings.Join(parts, " ") + "."
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	b := batch{CollectionID: "bench:synthetic"}
	for i := 1; i <= *numSections; i++ {
		terms := []string{
			conceptPool[rng.Intn(len(conceptPool))],
			conceptPool[rng.Intn(len(conceptPool))],
		}
		b.Documents = append(b.Documents, document{
			ID:                 fmt.Sprintf("bench-sec-%d", i),
			OfficialIdentifier: fmt.Sprintf("§ %d", i),
			Title:              sentence(rng, 3),
			Summary:            sentence(rng, 12),
			ConceptTerms:       terms,
			BodyText:           sentence(rng, 40) + " " + sentence(rng, 40),
			Level:              2,
			DocType:            "section",
		})
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "write:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d sections to %s\n", *numSections, *output)
}
