package output

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/tkjaer/ulat/internal/shared"
)

var csvHeader = []string{"packet", "sent", "received", "latency"}

// WriteCSV writes one row per probe with times in microseconds. Probes that
// never got an echo have empty received and latency columns.
func WriteCSV(w io.Writer, probes []shared.ProbeSample) error {
	wtr := csv.NewWriter(w)
	if err := wtr.Write(csvHeader); err != nil {
		return err
	}

	for _, p := range probes {
		row := []string{
			strconv.FormatUint(p.Seq, 10),
			strconv.FormatInt(p.Sent, 10),
			"",
			"",
		}
		if p.Received != nil && p.Latency != nil {
			row[2] = strconv.FormatInt(*p.Received, 10)
			row[3] = strconv.FormatInt(*p.Latency, 10)
		}
		if err := wtr.Write(row); err != nil {
			return err
		}
	}

	wtr.Flush()
	return wtr.Error()
}

// CSVOutput exports raw samples to a file once the run is complete
type CSVOutput struct {
	path string
	err  error
}

func NewCSVOutput(path string) *CSVOutput {
	return &CSVOutput{path: path}
}

func (c *CSVOutput) SetTotal(total uint64) {}

func (c *CSVOutput) UpdateSent(sent uint64) {}

func (c *CSVOutput) UpdateReceived(received uint64, min, avg, max time.Duration) {}

func (c *CSVOutput) Complete(summary *shared.Summary) {
	f, err := os.Create(c.path)
	if err != nil {
		c.err = err
		return
	}
	defer f.Close()

	if err := WriteCSV(f, summary.Probes); err != nil {
		c.err = err
		return
	}
	slog.Debug("Wrote CSV export", "path", c.path, "probes", len(summary.Probes))
}

// Close reports any error from writing the export
func (c *CSVOutput) Close() error {
	return c.err
}
