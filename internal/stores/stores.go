// Package stores defines the persistence interfaces the matching and
// analytics services depend on, plus a CSV-backed in-memory implementation
// used by the CLI and tests. Production deployments inject their own
// implementations.
package stores

import (
	"context"
	"time"

	"golang-ledger-service/internal/models"
)

// TransactionStore provides read access to recorded tax transactions.
type TransactionStore interface {
	// ListByProject returns every transaction linked to the project.
	ListByProject(ctx context.Context, projectID string) ([]*models.Transaction, error)

	// ListUnlinked returns transactions not yet linked to any project.
	ListUnlinked(ctx context.Context) ([]*models.Transaction, error)
}

// ClientProjectStore provides read access to the reference data matching
// runs against.
type ClientProjectStore interface {
	// ListClients returns all registered clients.
	ListClients(ctx context.Context) ([]*models.Client, error)

	// ListProjects returns the projects owned by clientID, or all projects
	// when clientID is empty.
	ListProjects(ctx context.Context, clientID string) ([]*models.Project, error)

	// GetProject returns the project with the given id, or (nil, nil) when
	// no such project exists.
	GetProject(ctx context.Context, id string) (*models.Project, error)
}

// LinkWriter applies human-confirmed links between transactions and projects.
type LinkWriter interface {
	Link(ctx context.Context, transactionID, projectID, clientID string) error
	Unlink(ctx context.Context, transactionID string) error
}

// ProjectFilter selects a subset of projects for portfolio analytics.
// Zero-valued fields are ignored.
type ProjectFilter struct {
	Status   models.ProjectStatus
	ClientID string
	From     time.Time
	To       time.Time
}

// Matches reports whether the project passes the filter. The date range is
// compared against the project start date.
func (f ProjectFilter) Matches(p *models.Project) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.ClientID != "" && p.ClientID != f.ClientID {
		return false
	}
	if !f.From.IsZero() && p.StartDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && p.StartDate.After(f.To) {
		return false
	}
	return true
}

// FilteredProjectLister is an optional store capability for server-side
// project filtering.
type FilteredProjectLister interface {
	ListProjectsFiltered(ctx context.Context, filter ProjectFilter) ([]*models.Project, error)
}

// ListProjectsFiltered selects projects through the store's native filter
// when it has one, falling back to listing everything and filtering here.
func ListProjectsFiltered(ctx context.Context, store ClientProjectStore, filter ProjectFilter) ([]*models.Project, error) {
	if lister, ok := store.(FilteredProjectLister); ok {
		return lister.ListProjectsFiltered(ctx, filter)
	}

	all, err := store.ListProjects(ctx, "")
	if err != nil {
		return nil, err
	}

	var selected []*models.Project
	for _, project := range all {
		if filter.Matches(project) {
			selected = append(selected, project)
		}
	}
	return selected, nil
}
