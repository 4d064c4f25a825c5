package allocator

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
)

// BatchResult is the per-row report of a CSV batch run. Skipped rows
// never reach the network and are not persisted; everything else maps
// onto a persisted Attempt.
type BatchResult struct {
	ClientExternalId string `json:"client"`
	RangeToken       string `json:"range"`
	Quantity         int    `json:"qty"`
	Outcome          string `json:"status"`
	Message          string `json:"msg,omitempty"`
}

// CSV column names; the legacy template used the portal's raw field
// names, so both spellings are accepted.
var (
	clientColumns   = []string{"client_external_id", "selidd"}
	rangeColumns    = []string{"selrng"}
	quantityColumns = []string{"quantity", "qty"}
)

func columnValue(row map[string]string, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(row[name]); v != "" {
			return v
		}
	}
	return ""
}

// quantities come out of spreadsheets as "10.0" more often than "10"
func parseQuantity(raw string) int {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// AllocateBatch runs every row of a CSV through the allocation flow,
// strictly sequentially: the portal's per-session client context would
// be corrupted by interleaved rows. One bad row never aborts the batch,
// and the output always has exactly one result per input row.
func (s Service) AllocateBatch(ctx context.Context, r io.Reader) ([]BatchResult, error) {
	ctx, span := tracer.Start(ctx, "allocator:AllocateBatch")
	defer span.End()

	batchId, err := random.String(8)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("batch_id", batchId))

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []BatchResult{}, nil
	}
	if err != nil {
		return nil, newError(KindValidation, "unreadable csv", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var results []BatchResult
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// a single mangled line shouldn't kill the rest of the file
			results = append(results, BatchResult{
				Outcome: OutcomeSkipped,
				Message: "unreadable row: " + err.Error(),
			})
			continue
		}

		row := map[string]string{}
		for i, value := range record {
			if i < len(header) {
				row[header[i]] = value
			}
		}

		client := columnValue(row, clientColumns)
		rangeToken := columnValue(row, rangeColumns)
		quantity := parseQuantity(columnValue(row, quantityColumns))

		if client == "" || rangeToken == "" || quantity <= 0 {
			results = append(results, BatchResult{
				ClientExternalId: client,
				RangeToken:       rangeToken,
				Quantity:         quantity,
				Outcome:          OutcomeSkipped,
				Message:          "invalid row",
			})
			continue
		}

		attempt, err := s.attemptAllocation(ctx, batchId, OutcomeLoginFailed, client, rangeToken, quantity)
		if err != nil {
			// persistence failure; the attempt itself still ran
			slog.ErrorContext(ctx, "failed to persist batch attempt", "batch_id", batchId, "err", err)
			results = append(results, BatchResult{
				ClientExternalId: client,
				RangeToken:       rangeToken,
				Quantity:         quantity,
				Outcome:          attempt.Outcome,
				Message:          err.Error(),
			})
			continue
		}

		result := BatchResult{
			ClientExternalId: client,
			RangeToken:       rangeToken,
			Quantity:         quantity,
			Outcome:          attempt.Outcome,
		}
		if attempt.Outcome != OutcomeSuccess {
			result.Message = attempt.ResponseExcerpt
		}
		results = append(results, result)
	}

	return results, nil
}
