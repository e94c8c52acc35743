/*
Package roster provides the seed rosters datasets are generated from.

PURPOSE:
  A roster is everything needed to build a dataset from scratch: the
  consultants and projects, the colour each project renders with, the
  global date span the week and month tables cover, and the assignment
  records expanded into those tables.

SOURCES:
  Default():        the built-in roster the server falls back to
  LoadFile(path):   a YAML roster (see file.go for the schema)

USAGE:
  r, err := roster.LoadFile("roster.yaml")
  store, err := allocation.Open(ctx, db, r.Seeder(), log)
*/
package roster

import (
	"fmt"

	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

// FallbackColor is used for projects without a configured colour.
const FallbackColor = "#4CA09A"

// Roster is a named seed configuration.
type Roster struct {
	ID          string
	Name        string
	Description string
	Consultants []string
	Projects    []string
	Colors      map[string]string
	Start       calendar.Date
	End         calendar.Date
	Assignments []allocation.AssignmentRecord
}

// SeedSpec converts the roster into the input of allocation.Seed.
func (r Roster) SeedSpec() allocation.SeedSpec {
	return allocation.SeedSpec{
		Consultants: append([]string(nil), r.Consultants...),
		Projects:    append([]string(nil), r.Projects...),
		Start:       r.Start,
		End:         r.End,
		Assignments: append([]allocation.AssignmentRecord(nil), r.Assignments...),
	}
}

// Seeder returns a seeder generating a fresh dataset from the roster on
// every call.
func (r Roster) Seeder() allocation.Seeder {
	return func() (*allocation.Dataset, error) {
		ds, err := allocation.Seed(r.SeedSpec())
		if err != nil {
			return nil, fmt.Errorf("roster %q: %w", r.ID, err)
		}
		return ds, nil
	}
}

// Color returns the project's colour, FallbackColor if none is set.
func (r Roster) Color(project string) string {
	if c, ok := r.Colors[project]; ok && c != "" {
		return c
	}
	return FallbackColor
}

// Validate checks the roster can be seeded: a non-empty span, unique
// names and records referring to roster members with ordered dates.
func (r Roster) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: roster span is not set", allocation.ErrInvalidRange)
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: roster span %s > %s", allocation.ErrInvalidRange, r.Start, r.End)
	}
	consultants, err := nameSet(allocation.KindConsultant, r.Consultants)
	if err != nil {
		return err
	}
	projects, err := nameSet(allocation.KindProject, r.Projects)
	if err != nil {
		return err
	}
	for i, a := range r.Assignments {
		if !consultants[a.Consultant] {
			return fmt.Errorf("assignment %d: %w", i, &allocation.NotFoundError{Kind: allocation.KindConsultant, Name: a.Consultant})
		}
		if !projects[a.Project] {
			return fmt.Errorf("assignment %d: %w", i, &allocation.NotFoundError{Kind: allocation.KindProject, Name: a.Project})
		}
		if a.Start.After(a.End) {
			return fmt.Errorf("assignment %d: %w: %s > %s", i, allocation.ErrInvalidRange, a.Start, a.End)
		}
	}
	return nil
}

func nameSet(kind allocation.EntityKind, names []string) (map[string]bool, error) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return nil, fmt.Errorf("%w: empty %s name", allocation.ErrInvalidName, kind)
		}
		if set[n] {
			return nil, &allocation.DuplicateEntityError{Kind: kind, Name: n}
		}
		set[n] = true
	}
	return set, nil
}
