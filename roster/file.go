package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

// =============================================================================
// YAML SCHEMA
// =============================================================================
//
//	id: q4-2025
//	name: Q4 2025
//	start: 2025-10-01
//	end: 2025-12-31
//	consultants: [Ginny, Kit]
//	projects:
//	  - name: Stand Together
//	    color: "#4CA09A"
//	assignments:
//	  - project: Stand Together
//	    start: 2025-10-20
//	    end: 2025-11-20
//	    members:
//	      - {consultant: Ginny, percent: 20}

// File is the on-disk representation of a roster. Dates are YYYY-MM-DD.
type File struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Start       string           `yaml:"start"`
	End         string           `yaml:"end"`
	Consultants []string         `yaml:"consultants"`
	Projects    []ProjectFile    `yaml:"projects"`
	Assignments []AssignmentFile `yaml:"assignments,omitempty"`
}

type ProjectFile struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color,omitempty"`
}

type AssignmentFile struct {
	Project string       `yaml:"project"`
	Start   string       `yaml:"start"`
	End     string       `yaml:"end"`
	Members []MemberFile `yaml:"members"`
}

type MemberFile struct {
	Consultant string `yaml:"consultant"`
	Percent    int    `yaml:"percent"`
}

// LoadFile reads and validates a YAML roster. A missing id defaults to the
// file name without extension.
func LoadFile(path string) (Roster, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("read roster: %w", err)
	}
	r, err := Parse(buf)
	if err != nil {
		return Roster{}, fmt.Errorf("roster %s: %w", path, err)
	}
	if r.ID == "" {
		r.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if r.Name == "" {
		r.Name = r.ID
	}
	return r, nil
}

// Parse decodes and validates a YAML roster.
func Parse(buf []byte) (Roster, error) {
	var f File
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return Roster{}, fmt.Errorf("decode yaml: %w", err)
	}
	r, err := f.Roster()
	if err != nil {
		return Roster{}, err
	}
	if err := r.Validate(); err != nil {
		return Roster{}, err
	}
	return r, nil
}

// Roster converts the file into a Roster, parsing every date.
func (f File) Roster() (Roster, error) {
	start, err := calendar.ParseDate(f.Start)
	if err != nil {
		return Roster{}, fmt.Errorf("start: %w", err)
	}
	end, err := calendar.ParseDate(f.End)
	if err != nil {
		return Roster{}, fmt.Errorf("end: %w", err)
	}

	r := Roster{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Consultants: append([]string{}, f.Consultants...),
		Projects:    make([]string, 0, len(f.Projects)),
		Colors:      make(map[string]string, len(f.Projects)),
		Start:       start,
		End:         end,
	}
	for _, p := range f.Projects {
		r.Projects = append(r.Projects, p.Name)
		if p.Color != "" {
			r.Colors[p.Name] = p.Color
		}
	}

	for i, a := range f.Assignments {
		aStart, err := calendar.ParseDate(a.Start)
		if err != nil {
			return Roster{}, fmt.Errorf("assignment %d start: %w", i, err)
		}
		aEnd, err := calendar.ParseDate(a.End)
		if err != nil {
			return Roster{}, fmt.Errorf("assignment %d end: %w", i, err)
		}
		for _, m := range a.Members {
			r.Assignments = append(r.Assignments, allocation.AssignmentRecord{
				Consultant: m.Consultant,
				Project:    a.Project,
				Start:      aStart,
				End:        aEnd,
				Percent:    m.Percent,
			})
		}
	}
	return r, nil
}
