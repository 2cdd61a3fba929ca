package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/persistence"
)

// FlowRepository stores each flow as <root>/flows/<id>.json.
type FlowRepository struct {
	dir string
	mu  sync.RWMutex
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(root string) *FlowRepository {
	return &FlowRepository{dir: filepath.Join(root, "flows")}
}

func (fr *FlowRepository) path(id string) string {
	return filepath.Join(fr.dir, filepath.Base(id)+".json")
}

// Save writes the flow, stamping created/updated times.
func (fr *FlowRepository) Save(_ context.Context, flow *models.Flow) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if err := os.MkdirAll(fr.dir, 0750); err != nil {
		return fmt.Errorf("failed to create flows directory: %w", err)
	}

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	if err := os.WriteFile(fr.path(flow.ID), data, 0600); err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

// GetByID reads a flow, returning ErrFlowNotFound when no file exists.
func (fr *FlowRepository) GetByID(_ context.Context, id string) (*models.Flow, error) {
	fr.mu.RLock()
	defer fr.mu.RUnlock()

	return fr.read(id)
}

func (fr *FlowRepository) read(id string) (*models.Flow, error) {
	body, err := os.ReadFile(fr.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewFlowError("GetByID", id, persistence.ErrFlowNotFound)
		}

		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	var flow models.Flow
	if err := json.Unmarshal(body, &flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow %s: %w", id, err)
	}

	return &flow, nil
}

// List loads every flow and pages them in memory.
func (fr *FlowRepository) List(_ context.Context, opts persistence.ListFlowsOptions) (*persistence.FlowListResult, error) {
	fr.mu.RLock()
	defer fr.mu.RUnlock()

	files, err := fs.Glob(os.DirFS(fr.dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list flow files: %w", err)
	}

	flows := make([]*models.Flow, 0, len(files))

	for _, file := range files {
		flow, err := fr.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		flows = append(flows, flow)
	}

	return persistence.Page(flows, opts)
}

// Delete removes a flow. Deleting a missing flow reports ErrFlowNotFound.
func (fr *FlowRepository) Delete(_ context.Context, id string) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	err := os.Remove(fr.path(id))
	if err != nil && os.IsNotExist(err) {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	return nil
}
