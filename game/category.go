package game

import "fmt"

type Category int

const (
	CategoryRegular Category = iota
	CategoryBonus
	CategorySpam
)

func (c Category) String() string {
	switch c {
	case CategoryRegular:
		return "regular"
	case CategoryBonus:
		return "bonus"
	case CategorySpam:
		return "spam"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// CategorySpec is one row of the spawn table. Weight is relative; the table
// normalizes weights into cumulative bounds when drawing.
type CategorySpec struct {
	Category     Category
	Weight       float64
	Color        string
	Icon         string
	Points       int
	Titles       []string
	Descriptions []string
	// Expires marks categories removed by the age sweep.
	Expires bool
}

type CategoryTable []CategorySpec

var DefaultCategories = CategoryTable{
	{
		Category: CategoryRegular,
		Weight:   0.65,
		Color:    "#4ecdc4",
		Icon:     "people",
		Points:   10,
		Titles:   []string{"Task", "Project", "Meeting", "Reminder", "Event", "Update", "Message"},
		Descriptions: []string{
			"High priority", "Due today", "Needs review", "In progress", "New item", "Pending",
		},
	},
	{
		Category:     CategoryBonus,
		Weight:       0.15,
		Color:        "#feca57",
		Icon:         "star",
		Points:       25,
		Titles:       []string{"Bonus", "Reward", "Achievement", "Promotion", "Gift"},
		Descriptions: []string{"Claim now", "Limited time", "You earned it", "Double points", "Lucky day"},
	},
	{
		Category:     CategorySpam,
		Weight:       0.20,
		Color:        "#ff6b6b",
		Icon:         "skull",
		Points:       -25,
		Titles:       []string{"Warning", "Danger", "Critical", "Alert", "Error"},
		Descriptions: []string{"System failure", "Security breach", "Fatal error", "Data loss", "Malfunction"},
		Expires:      true,
	},
}

// Pick selects the row whose cumulative weight bound first exceeds r, where
// r is a uniform draw in [0, 1). Draws at or past the last bound fall to the
// last row.
func (t CategoryTable) Pick(r float64) CategorySpec {
	if len(t) == 0 {
		return CategorySpec{}
	}
	total := 0.0
	for _, spec := range t {
		total += spec.Weight
	}
	if total <= 0 {
		return t[0]
	}
	target := r * total
	cumulative := 0.0
	for _, spec := range t {
		cumulative += spec.Weight
		if target < cumulative {
			return spec
		}
	}
	return t[len(t)-1]
}

// Lookup returns the row for c.
func (t CategoryTable) Lookup(c Category) (CategorySpec, bool) {
	for _, spec := range t {
		if spec.Category == c {
			return spec, true
		}
	}
	return CategorySpec{}, false
}
