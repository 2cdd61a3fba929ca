// Package file provides file-based persistence for flows and schemas.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/dukex/flowgate/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root       string
	flowRepo   *FlowRepository
	schemaRepo *SchemaRepository
}

// NewPersistence creates a file persistence rooted at root. A file:// prefix is stripped.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:       cleanRoot,
		flowRepo:   NewFlowRepository(cleanRoot),
		schemaRepo: NewSchemaRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) FlowRepository() persistence.FlowRepository {
	return fp.flowRepo
}

func (fp *Persistence) SchemaRepository() persistence.SchemaRepository {
	return fp.schemaRepo
}
