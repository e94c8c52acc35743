package roster

import (
	"time"

	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

// DefaultID identifies the built-in roster.
const DefaultID = "default"

// =============================================================================
// DEFAULT ROSTER
// =============================================================================

var defaultConsultants = []string{
	"Ginny", "Kit", "Jeff", "Lauren", "Regina", "Alzer", "Kristin",
	"Chase", "Amanda", "Ingrid", "Reese", "Johanne", "Michael", "Shaun",
}

var defaultProjects = []string{
	"Stand Together",
	"EisnerAmper",
	"OPOS, Inc.",
	"Omega Healthcare Management Services",
	"iMethods",
	"Divurgent, LLC",
	"EQUIPX",
	"OmniSource",
	"SPX Outreach",
	"SPX Sales",
	"SPX Management / Operations",
	"Vacation",
}

var defaultColors = map[string]string{
	"Stand Together":                       "#4CA09A",
	"EisnerAmper":                          "#147E76",
	"OPOS, Inc.":                           "#ee6c3c",
	"Omega Healthcare Management Services": "#CA2027",
	"iMethods":                             "#f9844a",
	"Divurgent, LLC":                       "#ffb703",
	"EQUIPX":                               "#219ebc",
	"OmniSource":                           "#90be6d",
	"SPX Outreach":                         "#577590",
	"SPX Sales":                            "#ffafcc",
	"SPX Management / Operations":          "#8e7dbe",
	"Vacation":                             "#F9C74F",
}

// block assigns several consultants to one project over the same dates.
type block struct {
	project    string
	start, end calendar.Date
	percents   []member
}

type member struct {
	consultant string
	percent    int
}

func d(year int, month time.Month, day int) calendar.Date {
	return calendar.NewDate(year, month, day)
}

// SPX Management / Operations and Vacation have no records and span the
// whole roster.
var defaultBlocks = []block{
	{"Stand Together", d(2025, time.October, 20), d(2025, time.November, 20),
		[]member{{"Ginny", 20}, {"Kit", 75}, {"Jeff", 5}}},
	{"EisnerAmper", d(2025, time.October, 1), d(2026, time.June, 8),
		[]member{{"Lauren", 25}, {"Regina", 25}, {"Alzer", 5}}},
	{"OPOS, Inc.", d(2025, time.October, 1), d(2026, time.June, 8),
		[]member{{"Kristin", 70}, {"Chase", 70}, {"Alzer", 10}}},
	{"Omega Healthcare Management Services", d(2025, time.October, 20), d(2026, time.February, 15),
		[]member{{"Jeff", 60}, {"Ginny", 30}, {"Amanda", 25}, {"Ingrid", 20}, {"Reese", 5}, {"Johanne", 5}}},
	{"iMethods", d(2025, time.October, 1), d(2025, time.December, 31),
		[]member{{"Jeff", 10}, {"Ingrid", 2}, {"Reese", 5}}},
	{"Divurgent, LLC", d(2025, time.October, 1), d(2026, time.January, 31),
		[]member{{"Michael", 10}, {"Reese", 5}, {"Jeff", 10}}},
	{"EQUIPX", d(2025, time.October, 1), d(2025, time.December, 31),
		[]member{{"Reese", 5}}},
	{"OmniSource", d(2025, time.November, 3), d(2026, time.January, 10),
		[]member{{"Ginny", 30}, {"Lauren", 5}, {"Ingrid", 15}, {"Reese", 10}, {"Shaun", 10}}},
	{"SPX Outreach", d(2025, time.October, 1), d(2026, time.December, 31),
		[]member{{"Lauren", 15}, {"Regina", 15}, {"Alzer", 15}}},
	{"SPX Sales", d(2025, time.October, 1), d(2026, time.December, 31),
		[]member{{"Reese", 10}, {"Ingrid", 5}}},
}

// Default returns the built-in roster: 14 consultants, 12 projects, Oct 1
// 2025 through Dec 31 2026.
func Default() Roster {
	var records []allocation.AssignmentRecord
	for _, b := range defaultBlocks {
		for _, m := range b.percents {
			records = append(records, allocation.AssignmentRecord{
				Consultant: m.consultant,
				Project:    b.project,
				Start:      b.start,
				End:        b.end,
				Percent:    m.percent,
			})
		}
	}

	colors := make(map[string]string, len(defaultColors))
	for k, v := range defaultColors {
		colors[k] = v
	}

	return Roster{
		ID:          DefaultID,
		Name:        "Default roster",
		Description: "14 consultants across 12 client and internal projects, Oct 2025 - Dec 2026",
		Consultants: append([]string(nil), defaultConsultants...),
		Projects:    append([]string(nil), defaultProjects...),
		Colors:      colors,
		Start:       d(2025, time.October, 1),
		End:         d(2026, time.December, 31),
		Assignments: records,
	}
}
