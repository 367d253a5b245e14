// store/mint_task_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"nft-mint-service/models"
)

var ErrTaskNotFound = errors.New("mint task not found")

// MintTaskStore records mint attempts. Writes are best effort from the
// orchestrator's point of view; reads serve the status endpoint and the
// token backfill worker.
type MintTaskStore interface {
	Create(ctx context.Context, task *models.MintTask) error
	Save(ctx context.Context, task *models.MintTask) error
	GetByID(ctx context.Context, id string) (*models.MintTask, error)
	ListAwaitingTokenID(ctx context.Context, limit int) ([]models.MintTask, error)
}

type GormMintTaskStore struct {
	db *gorm.DB
}

func NewGormMintTaskStore(db *gorm.DB) *GormMintTaskStore {
	return &GormMintTaskStore{db: db}
}

func (s *GormMintTaskStore) Create(ctx context.Context, task *models.MintTask) error {
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create mint task: %w", err)
	}
	return nil
}

func (s *GormMintTaskStore) Save(ctx context.Context, task *models.MintTask) error {
	if err := s.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save mint task %s: %w", task.ID, err)
	}
	return nil
}

func (s *GormMintTaskStore) GetByID(ctx context.Context, id string) (*models.MintTask, error) {
	var task models.MintTask
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get mint task %s: %w", id, err)
	}
	return &task, nil
}

// ListAwaitingTokenID returns confirmed tasks whose receipt did not yield a
// token ID yet, oldest first.
func (s *GormMintTaskStore) ListAwaitingTokenID(ctx context.Context, limit int) ([]models.MintTask, error) {
	var tasks []models.MintTask
	err := s.db.WithContext(ctx).
		Where("status = ? AND token_id = ?", models.MintStatusConfirmed, models.TokenIDPending).
		Order("updated_at asc").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks awaiting token id: %w", err)
	}
	return tasks, nil
}

type MemoryMintTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*models.MintTask
}

func NewMemoryMintTaskStore() *MemoryMintTaskStore {
	return &MemoryMintTaskStore{tasks: make(map[string]*models.MintTask)}
}

func (s *MemoryMintTaskStore) Create(_ context.Context, task *models.MintTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *task
	s.tasks[task.ID] = &clone
	return nil
}

func (s *MemoryMintTaskStore) Save(_ context.Context, task *models.MintTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *task
	s.tasks[task.ID] = &clone
	return nil
}

func (s *MemoryMintTaskStore) GetByID(_ context.Context, id string) (*models.MintTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (s *MemoryMintTaskStore) ListAwaitingTokenID(_ context.Context, limit int) ([]models.MintTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MintTask
	for _, task := range s.tasks {
		if task.Status == models.MintStatusConfirmed && task.TokenID == models.TokenIDPending {
			out = append(out, *task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
