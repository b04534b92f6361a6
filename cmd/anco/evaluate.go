package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kanakanji/anco-go/pkg/anco"
)

//go:embed schema/corpus.schema.json
var corpusSchema []byte

const corpusSchemaURL = "corpus.schema.json"

// EvaluateCmd converts every query of a corpus and reports the rank of the
// engine output among the expected answers.
type EvaluateCmd struct {
	Output string `short:"o" long:"output" description:"write the report to this file instead of stdout"`
	Stable bool   `long:"stable" description:"zero timestamps and timings so reports can be diffed"`

	Args struct {
		File string `positional-arg-name:"file" description:"corpus JSON file"`
	} `positional-args:"yes" required:"yes"`

	app *app
}

type corpusItem struct {
	Query  string   `json:"query"`
	Answer []string `json:"answer"`
	Tag    []string `json:"tag,omitempty"`
}

type evaluateReport struct {
	Timestamp     float64        `json:"timestamp"`
	ExecutionTime float64        `json:"execution_time"`
	Stat          evaluateStat   `json:"stat"`
	Items         []evaluateItem `json:"items"`
}

type evaluateStat struct {
	QueryCount int         `json:"query_count"`
	Ranks      map[int]int `json:"ranks"`
	Accuracy   float64     `json:"accuracy"`
}

type evaluateItem struct {
	Query   string   `json:"query"`
	Answers []string `json:"answers"`
	Output  string   `json:"output"`
	Error   string   `json:"error,omitempty"`
	// MaxRank is the rank of the output among the answers; -1 when the
	// output matches none of them. The engine returns one candidate, so a
	// hit is always rank 0.
	MaxRank int `json:"max_rank"`
}

func (c *EvaluateCmd) Execute(_ []string) error {
	data, err := os.ReadFile(c.Args.File)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	items, err := parseCorpus(data)
	if err != nil {
		return err
	}

	cfg, err := c.app.loadConfig()
	if err != nil {
		return err
	}
	cfg.TrimAtNUL = true

	ctx := context.Background()
	client, err := c.app.client(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	report, err := evaluate(ctx, client, items, time.Now)
	if err != nil {
		return err
	}
	if c.Stable {
		report.Timestamp = 0
		report.ExecutionTime = 0
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	out = append(out, '\n')
	if c.Output != "" {
		return os.WriteFile(c.Output, out, 0o644)
	}
	_, err = c.app.out.Write(out)
	return err
}

func parseCorpus(data []byte) ([]corpusItem, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(corpusSchemaURL, bytes.NewReader(corpusSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(corpusSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid corpus: %w", err)
	}

	var items []corpusItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return items, nil
}

// evaluate stops at the first error that leaves the client unusable; other
// conversion errors are recorded on the item.
func evaluate(ctx context.Context, client *anco.Client, items []corpusItem, now func() time.Time) (*evaluateReport, error) {
	start := now()
	report := &evaluateReport{
		Timestamp: float64(start.UnixMilli()) / 1000,
		Stat: evaluateStat{
			QueryCount: len(items),
			Ranks:      map[int]int{},
		},
		Items: make([]evaluateItem, 0, len(items)),
	}

	hits := 0
	for _, it := range items {
		item := evaluateItem{Query: it.Query, Answers: it.Answer, MaxRank: -1}
		out, err := client.ConvertContext(ctx, it.Query)
		switch {
		case err != nil && isFatal(err):
			return nil, err
		case err != nil:
			item.Error = err.Error()
		default:
			item.Output = out
			if slices.Contains(it.Answer, out) {
				item.MaxRank = 0
				hits++
			}
		}
		report.Stat.Ranks[item.MaxRank]++
		report.Items = append(report.Items, item)
	}

	if len(items) > 0 {
		report.Stat.Accuracy = float64(hits) / float64(len(items))
	}
	report.ExecutionTime = now().Sub(start).Seconds()
	return report, nil
}
