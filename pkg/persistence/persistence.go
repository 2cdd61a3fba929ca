// Package persistence provides the storage abstraction for flows and schemas.
package persistence

import (
	"context"
	"sort"

	"github.com/dukex/flowgate/pkg/models"
)

type Persistence interface {
	FlowRepository() FlowRepository
	SchemaRepository() SchemaRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// FlowRepository stores flow definitions by id.
type FlowRepository interface {
	Save(ctx context.Context, flow *models.Flow) error
	GetByID(ctx context.Context, id string) (*models.Flow, error)
	List(ctx context.Context, opts ListFlowsOptions) (*FlowListResult, error)
	Delete(ctx context.Context, id string) error
}

// SchemaRepository stores raw input schema text by reference.
type SchemaRepository interface {
	Save(ctx context.Context, ref, text string) error
	GetByRef(ctx context.Context, ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ListFlowsOptions filters, sorts and paginates flow listings.
type ListFlowsOptions struct {
	Limit     int
	Offset    int
	Status    *models.FlowStatus
	SortBy    string
	SortOrder string
}

// FlowListResult is one page of flows.
type FlowListResult struct {
	Flows       []*models.Flow `json:"flows"`
	TotalCount  int64          `json:"total_count"`
	HasNextPage bool           `json:"has_next_page"`
}

// AllowedSortFields lists the fields flows can be ordered by.
var AllowedSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// Normalize applies listing defaults and rejects unknown sort fields.
func (o *ListFlowsOptions) Normalize() error {
	if o.Limit <= 0 || o.Limit > 100 {
		o.Limit = 20
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	if o.SortBy == "" {
		o.SortBy = "created_at"
	}

	if o.SortOrder == "" {
		o.SortOrder = "desc"
	}

	if !AllowedSortFields[o.SortBy] {
		return &SortFieldError{Field: o.SortBy}
	}

	return nil
}

// Page filters, sorts and slices an in-memory set of flows. Backends without a
// query language use it.
func Page(flows []*models.Flow, opts ListFlowsOptions) (*FlowListResult, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	filtered := make([]*models.Flow, 0, len(flows))

	for _, flow := range flows {
		if opts.Status != nil && flow.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, flow)
	}

	sortFlows(filtered, opts.SortBy, opts.SortOrder)

	total := int64(len(filtered))

	if opts.Offset >= len(filtered) {
		return &FlowListResult{Flows: []*models.Flow{}, TotalCount: total}, nil
	}

	end := min(opts.Offset+opts.Limit, len(filtered))

	return &FlowListResult{
		Flows:       filtered[opts.Offset:end],
		TotalCount:  total,
		HasNextPage: end < len(filtered),
	}, nil
}

func sortFlows(flows []*models.Flow, sortBy, sortOrder string) {
	sort.SliceStable(flows, func(i, j int) bool {
		if sortOrder == "desc" {
			i, j = j, i
		}

		switch sortBy {
		case "updated_at":
			return flows[i].UpdatedAt.Before(flows[j].UpdatedAt)
		case "name":
			return flows[i].Name < flows[j].Name
		default:
			return flows[i].CreatedAt.Before(flows[j].CreatedAt)
		}
	})
}
