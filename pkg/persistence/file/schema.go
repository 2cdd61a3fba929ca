package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dukex/flowgate/pkg/persistence"
)

// SchemaRepository stores each schema as <root>/schemas/<ref>.json.
type SchemaRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewSchemaRepository(root string) *SchemaRepository {
	return &SchemaRepository{dir: filepath.Join(root, "schemas")}
}

func (sr *SchemaRepository) path(ref string) string {
	return filepath.Join(sr.dir, filepath.Base(ref)+".json")
}

func (sr *SchemaRepository) Save(_ context.Context, ref, text string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if err := os.MkdirAll(sr.dir, 0750); err != nil {
		return fmt.Errorf("failed to create schemas directory: %w", err)
	}

	if err := os.WriteFile(sr.path(ref), []byte(text), 0600); err != nil {
		return persistence.NewSchemaError("Save", ref, err)
	}

	return nil
}

func (sr *SchemaRepository) GetByRef(_ context.Context, ref string) (string, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	body, err := os.ReadFile(sr.path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return "", persistence.NewSchemaError("GetByRef", ref, persistence.ErrSchemaNotFound)
		}

		return "", persistence.NewSchemaError("GetByRef", ref, err)
	}

	return string(body), nil
}

func (sr *SchemaRepository) Delete(_ context.Context, ref string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	err := os.Remove(sr.path(ref))
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewSchemaError("Delete", ref, err)
	}

	return nil
}
