package board

import (
	"github.com/umputun/jobboard/app/store"
)

// DefaultDetails are static detail chips shown on every card
var DefaultDetails = []string{"1d ago", "Full Time", "USA only"}

// BadgeKind is a kind of badge shown next to company name
type BadgeKind int

// badge kinds
const (
	BadgeNew BadgeKind = iota + 1
	BadgeFeatured
)

func (b BadgeKind) String() string {
	switch b {
	case BadgeNew:
		return "new"
	case BadgeFeatured:
		return "featured"
	default:
		return "unknown"
	}
}

// Badge is a label next to company name
type Badge struct {
	Kind  BadgeKind
	Label string
}

// Card describes a rendered job posting. Each of Languages is a clickable chip adding
// the tag to filters.
type Card struct {
	Logo      string
	Company   string
	Position  string
	Badges    []Badge
	Featured  bool // featured cards get distinct visual treatment
	Details   []string
	Languages []string
}

// Chip describes an active filter in the filter bar, with a control removing it
type Chip struct {
	Tag string
}

// BuildCard makes card description for a job record
func BuildCard(rec store.JobRecord) Card {
	card := Card{
		Logo:      rec.Logo,
		Company:   rec.Company,
		Position:  rec.Position,
		Featured:  rec.IsFeatured,
		Details:   append([]string{}, DefaultDetails...),
		Languages: append([]string{}, rec.Languages...),
	}
	if rec.IsNew {
		card.Badges = append(card.Badges, Badge{Kind: BadgeNew, Label: "New!"})
	}
	if rec.IsFeatured {
		card.Badges = append(card.Badges, Badge{Kind: BadgeFeatured, Label: "Featured"})
	}
	return card
}

// BuildChips makes filter bar chips for tags, in the same order
func BuildChips(tags []string) []Chip {
	res := make([]Chip, 0, len(tags))
	for _, t := range tags {
		res = append(res, Chip{Tag: t})
	}
	return res
}

// Visible returns records matching filters, in the original order
func Visible(records []store.JobRecord, filters *FilterSet) []store.JobRecord {
	res := make([]store.JobRecord, 0, len(records))
	for _, rec := range records {
		if filters.Matches(rec) {
			res = append(res, rec)
		}
	}
	return res
}
