/*
persistence.go - Contracts for loading, saving and mirroring datasets

PURPOSE:
  The engine never talks to a database directly. It consumes two
  contracts implemented elsewhere:

  Persistence: opaque load/save of the whole dataset
  RemoteStore: a relational surface with consultants, projects and
               allocation rows (one row per consultant, project, period)

IMPLEMENTATIONS:
  - allocation/store/memory.go: in-memory Persistence for tests and dev
  - store/sqlite/sqlite.go:     Persistence and RemoteStore on SQLite

CONTRACT:
  Load returns (nil, nil) when nothing is stored yet. A stored dataset that
  cannot be decoded is reported as ErrMalformedState; Open regenerates from
  the seed in both cases. Save is all-or-nothing.
*/
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/allocation-engine/calendar"
)

// Persistence loads and saves the whole dataset.
type Persistence interface {
	// Load returns the stored dataset, or (nil, nil) if none is stored.
	Load(ctx context.Context) (*Dataset, error)

	// Save replaces the stored dataset atomically.
	Save(ctx context.Context, ds *Dataset) error
}

// =============================================================================
// REMOTE STORE - Relational surface
// =============================================================================

// Consultant is a consultant row of the remote store.
type Consultant struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Project is a project row of the remote store.
type Project struct {
	ID        string
	Name      string
	Start     calendar.PeriodID
	End       calendar.PeriodID
	CreatedAt time.Time
}

// AllocationRecord is one allocation row, keyed by consultant, project,
// period type and the first day of the period.
type AllocationRecord struct {
	ConsultantID string
	ProjectID    string
	PeriodStart  calendar.Date
	PeriodType   calendar.PeriodType
	Percent      int
}

// AllocationQuery filters allocation rows of one consultant and period
// type whose period start is in [Start, End].
type AllocationQuery struct {
	ConsultantID string
	PeriodType   calendar.PeriodType
	Start        calendar.Date
	End          calendar.Date
}

// AllocationRow is a query result joined with names.
type AllocationRow struct {
	AllocationRecord
	ConsultantName string
	ProjectName    string
}

// RemoteStore is the relational CRUD surface.
type RemoteStore interface {
	ListConsultants(ctx context.Context) ([]Consultant, error)
	CreateConsultant(ctx context.Context, name string) (Consultant, error)
	DeleteConsultant(ctx context.Context, id string) error
	ListProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, p Project) (Project, error)
	UpsertAllocation(ctx context.Context, rec AllocationRecord) error
	QueryAllocations(ctx context.Context, q AllocationQuery) ([]AllocationRow, error)
}

// PublishResult counts what Publish wrote.
type PublishResult struct {
	Consultants int `json:"consultants"`
	Projects    int `json:"projects"`
	Allocations int `json:"allocations"`
}

// Publish mirrors the dataset into a remote store: missing consultants and
// projects are created, then every nonzero allocation is upserted under
// its period start date. Zero entries are not sent; absence reads as 0.
func Publish(ctx context.Context, remote RemoteStore, ds *Dataset) (PublishResult, error) {
	var res PublishResult

	consultantIDs, err := ensureConsultants(ctx, remote, ds.Consultants, &res)
	if err != nil {
		return res, err
	}
	projectIDs, err := ensureProjects(ctx, remote, ds, &res)
	if err != nil {
		return res, err
	}

	for _, pt := range calendar.PeriodTypes {
		t := ds.Periods[pt]
		for _, id := range ds.PeriodIDs(pt) {
			bounds, err := calendar.Bounds(pt, id)
			if err != nil {
				return res, err
			}
			for _, c := range ds.Consultants {
				for _, p := range ds.Projects {
					percent := t.Get(id, c, p)
					if percent == 0 {
						continue
					}
					rec := AllocationRecord{
						ConsultantID: consultantIDs[c],
						ProjectID:    projectIDs[p],
						PeriodStart:  bounds.Start,
						PeriodType:   pt,
						Percent:      percent,
					}
					if err := remote.UpsertAllocation(ctx, rec); err != nil {
						return res, fmt.Errorf("upsert %s %s %s/%s: %w", pt, id, c, p, err)
					}
					res.Allocations++
				}
			}
		}
	}
	return res, nil
}

func ensureConsultants(ctx context.Context, remote RemoteStore, names []string, res *PublishResult) (map[string]string, error) {
	existing, err := remote.ListConsultants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	ids := make(map[string]string, len(existing))
	for _, c := range existing {
		ids[c.Name] = c.ID
	}
	for _, name := range names {
		if _, ok := ids[name]; ok {
			continue
		}
		c, err := remote.CreateConsultant(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create consultant %q: %w", name, err)
		}
		ids[name] = c.ID
		res.Consultants++
	}
	return ids, nil
}

func ensureProjects(ctx context.Context, remote RemoteStore, ds *Dataset, res *PublishResult) (map[string]string, error) {
	existing, err := remote.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	ids := make(map[string]string, len(existing))
	for _, p := range existing {
		ids[p.Name] = p.ID
	}
	for _, name := range ds.Projects {
		if _, ok := ids[name]; ok {
			continue
		}
		info := ds.ProjectsInfo[name]
		p, err := remote.CreateProject(ctx, Project{Name: name, Start: info.Start, End: info.End})
		if err != nil {
			return nil, fmt.Errorf("create project %q: %w", name, err)
		}
		ids[name] = p.ID
		res.Projects++
	}
	return ids, nil
}
