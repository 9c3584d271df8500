package matcher

import (
	"golang-ledger-service/internal/models"
)

// ClientIndex provides lookup structures over the registered clients for
// batch matching. Built once per batch and read-only afterwards.
type ClientIndex struct {
	// ByBusinessNumber maps normalized business numbers to clients.
	ByBusinessNumber map[string]*models.Client

	// AllClients holds every indexed client in registration order.
	AllClients []*models.Client
}

// ProjectIndex groups the known projects by owning client for batch matching.
type ProjectIndex struct {
	// ByClient maps client ids to the projects they own.
	ByClient map[string][]*models.Project

	// AllProjects holds every indexed project in listing order.
	AllProjects []*models.Project
}

// NewClientIndex builds a client index from a client slice. The slice is
// referenced, not copied; callers must not mutate it afterwards.
func NewClientIndex(clients []*models.Client) *ClientIndex {
	index := &ClientIndex{
		ByBusinessNumber: make(map[string]*models.Client, len(clients)),
		AllClients:       clients,
	}

	for _, client := range clients {
		number := models.NormalizeBusinessNumber(client.BusinessNumber)
		if number == "" {
			continue
		}
		if _, exists := index.ByBusinessNumber[number]; !exists {
			index.ByBusinessNumber[number] = client
		}
	}

	return index
}

// NewProjectIndex builds a project index from a project slice. The slice is
// referenced, not copied; callers must not mutate it afterwards.
func NewProjectIndex(projects []*models.Project) *ProjectIndex {
	index := &ProjectIndex{
		ByClient:    make(map[string][]*models.Project),
		AllProjects: projects,
	}

	for _, project := range projects {
		index.ByClient[project.ClientID] = append(index.ByClient[project.ClientID], project)
	}

	return index
}

// GetByBusinessNumber returns the client registered under the normalized
// form of the given business number, or nil.
func (ci *ClientIndex) GetByBusinessNumber(number string) *models.Client {
	normalized := models.NormalizeBusinessNumber(number)
	if normalized == "" {
		return nil
	}
	return ci.ByBusinessNumber[normalized]
}

// GetByClient returns the projects owned by the given client id.
func (pi *ProjectIndex) GetByClient(clientID string) []*models.Project {
	return pi.ByClient[clientID]
}

// Stats summarizes index sizes for diagnostics logging.
type Stats struct {
	TotalClients          int
	IndexedNumbers        int
	TotalProjects         int
	ClientsOwningProjects int
}

// GetStats returns size statistics for both indexes.
func GetStats(ci *ClientIndex, pi *ProjectIndex) Stats {
	return Stats{
		TotalClients:          len(ci.AllClients),
		IndexedNumbers:        len(ci.ByBusinessNumber),
		TotalProjects:         len(pi.AllProjects),
		ClientsOwningProjects: len(pi.ByClient),
	}
}
