package materialize

import "strings"

// Profile holds the cheap shape predicates evaluated on a reply.
type Profile struct {
	Tabular    bool // a table separator row within the first 10 lines
	Biography  bool // mentions "biografi" or "profil", any case
	HasHeaders bool // at least one "#"-prefixed line
}

// Layout is the document rendering strategy chosen from a Profile.
type Layout int

const (
	LayoutTable Layout = iota
	LayoutBiographyTable
	LayoutBiographyText
	LayoutGeneral
)

func (l Layout) String() string {
	switch l {
	case LayoutTable:
		return "table"
	case LayoutBiographyTable:
		return "biography-table"
	case LayoutBiographyText:
		return "biography-text"
	default:
		return "general"
	}
}

// Classify evaluates the shape predicates on text.
func Classify(text string) Profile {
	lines := splitLines(text)
	var p Profile
	for i, l := range lines {
		if i < 10 && isSeparatorRow(l) {
			p.Tabular = true
		}
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			p.HasHeaders = true
		}
	}
	lower := strings.ToLower(text)
	p.Biography = strings.Contains(lower, "biografi") || strings.Contains(lower, "profil")
	return p
}

// Layout applies the predicates in priority order:
//  1. tabular and not biography: table layout
//  2. biography and tabular: each table row becomes a bold-label paragraph
//  3. biography: biography text layout
//  4. anything else: general layout
func (p Profile) Layout() Layout {
	switch {
	case p.Tabular && !p.Biography:
		return LayoutTable
	case p.Biography && p.Tabular:
		return LayoutBiographyTable
	case p.Biography:
		return LayoutBiographyText
	default:
		return LayoutGeneral
	}
}
