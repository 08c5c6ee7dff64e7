// Package ingest is the event adapter run when a new dataset blob arrives.
// It averages macros per diet with column-mean fill and writes the result
// as a JSON document.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/pkg/logger"
)

// Record is one diet in the output document
type Record struct {
	DietType string  `json:"Diet_type"`
	Protein  float64 `json:"Protein(g)"`
	Carbs    float64 `json:"Carbs(g)"`
	Fat      float64 `json:"Fat(g)"`
}

// Event is one blob notification
type Event struct {
	Payload   []byte
	Container string
	Blob      string
}

// Processor handles ingestion events
type Processor struct {
	fetcher    BlobFetcher
	outputPath string
	log        *logger.Logger
}

// NewProcessor creates a processor writing to outputPath
func NewProcessor(fetcher BlobFetcher, outputPath string, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		fetcher:    fetcher,
		outputPath: outputPath,
		log:        log.WithComponent("ingest"),
	}
}

// Handle processes ev and writes the output document
func (p *Processor) Handle(ctx context.Context, ev Event) ([]Record, error) {
	log := p.log.WithFields(map[string]interface{}{
		"container": ev.Container,
		"blob":      ev.Blob,
	})

	table, err := p.loadPayload(ctx, ev.Payload)
	if err != nil {
		if errors.Is(err, contracts.ErrSchema) {
			return nil, err
		}
		log.WithError(err).Warn("Event payload unusable, fetching blob")

		table, err = p.loadBlob(ctx, ev.Container, ev.Blob)
		if err != nil {
			return nil, err
		}
	}

	records := Process(table)

	data, err := Encode(records)
	if err != nil {
		return nil, err
	}
	if err := dataset.WriteFileAtomic(p.outputPath, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", p.outputPath, err)
	}

	log.WithFields(map[string]interface{}{
		"rows":   table.Len(),
		"diets":  len(records),
		"output": p.outputPath,
	}).Info("Saved ingestion results")

	return records, nil
}

var errEmptyPayload = errors.New("empty payload")

func (p *Processor) loadPayload(ctx context.Context, payload []byte) (*contracts.Table, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, errEmptyPayload
	}
	table, _, err := dataset.Load(ctx, bytes.NewReader(payload))
	return table, err
}

func (p *Processor) loadBlob(ctx context.Context, container, blob string) (*contracts.Table, error) {
	if p.fetcher == nil {
		return nil, &contracts.SourceError{Source: container + "/" + blob, Err: errors.New("no blob fetcher configured")}
	}

	data, err := p.fetcher.Fetch(ctx, container, blob)
	if err != nil {
		return nil, &contracts.SourceError{Source: container + "/" + blob, Err: err}
	}

	table, _, err := dataset.Load(ctx, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, contracts.ErrSchema) {
			return nil, err
		}
		return nil, &contracts.SourceError{Source: container + "/" + blob, Err: err}
	}
	return table, nil
}

// Process fills missing macros with column means and averages per diet,
// ordered by diet name
func Process(t *contracts.Table) []Record {
	cleaned := dataset.Clean(t, dataset.FillColumnMean, false)

	avg := aggregate.AvgMacrosByDiet(cleaned)
	records := make([]Record, 0, len(avg))
	for _, a := range avg {
		records = append(records, Record{
			DietType: a.Diet,
			Protein:  a.Protein,
			Carbs:    a.Carbs,
			Fat:      a.Fat,
		})
	}
	return records
}

// Encode renders records as an indented JSON array
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return append(data, '\n'), nil
}
