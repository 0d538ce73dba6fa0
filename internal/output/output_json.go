package output

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/tkjaer/ulat/internal/shared"
)

// JSONOutput writes the run summary to a file or stdout when complete
type JSONOutput struct {
	mu       sync.Mutex
	file     *os.File
	enc      *json.Encoder
	toStdout bool
}

func NewJSONOutput(filename string) (*JSONOutput, error) {
	if filename == "" {
		// Output to stdout
		return &JSONOutput{
			file:     os.Stdout,
			enc:      json.NewEncoder(os.Stdout),
			toStdout: true,
		}, nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &JSONOutput{
		file:     f,
		enc:      json.NewEncoder(f),
		toStdout: false,
	}, nil
}

// Progress is not streamed, only the summary is written
func (j *JSONOutput) SetTotal(total uint64) {}

func (j *JSONOutput) UpdateSent(sent uint64) {}

func (j *JSONOutput) UpdateReceived(received uint64, min, avg, max time.Duration) {}

func (j *JSONOutput) Complete(summary *shared.Summary) {
	j.mu.Lock()
	defer j.mu.Unlock()

	_ = j.enc.Encode(summary)
}

func (j *JSONOutput) Close() error {
	if j.toStdout {
		return nil
	}
	return j.file.Close()
}
