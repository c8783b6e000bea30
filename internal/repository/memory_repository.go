package repository

import (
	"context"
	"sync"
)

const defaultMemoryCapacity = 1000

// MemoryPredictionRepository keeps the most recent predictions in memory.
// It is used when no MongoDB URI is configured.
type MemoryPredictionRepository struct {
	mu       sync.RWMutex
	records  map[string]*PredictionRecord
	order    []string
	capacity int
}

// NewMemoryPredictionRepository creates a store holding at most capacity
// records; the oldest record is evicted first.
func NewMemoryPredictionRepository(capacity int) *MemoryPredictionRepository {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryPredictionRepository{
		records:  make(map[string]*PredictionRecord),
		capacity: capacity,
	}
}

func (r *MemoryPredictionRepository) Save(ctx context.Context, record *PredictionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := *record
	stored.BBox = append([][2]float64(nil), record.BBox...)
	stored.QualityIssues = append([]string(nil), record.QualityIssues...)
	if record.Accuracy != nil {
		acc := *record.Accuracy
		stored.Accuracy = &acc
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[stored.ID]; !exists {
		r.order = append(r.order, stored.ID)
	}
	r.records[stored.ID] = &stored

	for len(r.order) > r.capacity {
		delete(r.records, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *MemoryPredictionRepository) FindByID(ctx context.Context, id string) (*PredictionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrPredictionNotFound
	}
	out := *rec
	return &out, nil
}

func (r *MemoryPredictionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
