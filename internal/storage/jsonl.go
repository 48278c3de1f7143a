package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"alphixcore/internal/model"
)

// JsonlStorage appends chart points to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

type chartPointLine struct {
	PoolID string `json:"pool_id"`
	model.ChartPoint
}

// PutChartPoints appends a padded series as JSON lines.
func (s *JsonlStorage) PutChartPoints(poolID string, points []model.ChartPoint) error {
	if len(points) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, point := range points {
		line, err := json.Marshal(chartPointLine{PoolID: poolID, ChartPoint: point})
		if err != nil {
			return fmt.Errorf("marshal chart point: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write chart point: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
