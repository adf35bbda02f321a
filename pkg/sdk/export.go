package sdk

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

var csvHeader = []string{"ID", "Amount", "Currency", "Status", "Created", "Completed", "TX Hash"}

// same shape as JavaScript's Date.toISOString
const exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ExportPaymentData serializes the collection, most recent first. JSON is pretty-printed.
// CSV has a header row and one row per request, every field double-quoted and absent
// optional fields empty. An empty format means JSON.
func (s *SDK) ExportPaymentData(format types.ExportFormat) (string, error) {
	requests := s.GetPaymentRequests()

	switch format {
	case types.ExportJSON, "":
		out, err := json.MarshalIndent(requests, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal payment requests: %w", err)
		}
		return string(out), nil
	case types.ExportCSV:
		return exportCSV(requests), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func exportCSV(requests []*types.PaymentRequest) string {
	lines := make([]string, 0, len(requests)+1)
	lines = append(lines, csvRow(csvHeader))

	for _, p := range requests {
		completed := ""
		if p.CompletedAt != nil {
			completed = formatExportTime(*p.CompletedAt)
		}
		txHash := ""
		if p.TxHash != nil {
			txHash = *p.TxHash
		}
		lines = append(lines, csvRow([]string{
			p.ID,
			p.Amount,
			string(p.Currency),
			string(p.Status),
			formatExportTime(p.CreatedAt),
			completed,
			txHash,
		}))
	}
	return strings.Join(lines, "\n")
}

// csvRow quotes every cell, doubling embedded quotes
func csvRow(cells []string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func formatExportTime(t time.Time) string {
	return t.UTC().Format(exportTimeLayout)
}
