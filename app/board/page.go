package board

// Page is in-memory sink keeping rendered state of named containers,
// the model presentation layers display. Not thread safe.
type Page struct {
	containers map[Target]*container
	loadErr    error
}

type container struct {
	cards   []Card
	chips   []Chip
	visible bool
}

// View is a snapshot of page state
type View struct {
	Cards            []Card
	Chips            []Chip
	FilterBarVisible bool
	Error            string // load error, empty if none
}

// NewPage makes page with given containers, all of Targets if none passed.
// Filter bar starts hidden.
func NewPage(targets ...Target) *Page {
	if len(targets) == 0 {
		targets = Targets
	}
	p := &Page{containers: make(map[Target]*container, len(targets))}
	for _, t := range targets {
		p.containers[t] = &container{visible: t != TargetFilterBar}
	}
	return p
}

// Has checks if page has container
func (p *Page) Has(t Target) bool {
	_, ok := p.containers[t]
	return ok
}

// Clear removes all elements of container
func (p *Page) Clear(t Target) {
	if c, ok := p.containers[t]; ok {
		c.cards, c.chips = nil, nil
	}
}

// AppendCard adds card to container
func (p *Page) AppendCard(t Target, card Card) {
	if c, ok := p.containers[t]; ok {
		c.cards = append(c.cards, card)
	}
}

// AppendChip adds chip to container
func (p *Page) AppendChip(t Target, chip Chip) {
	if c, ok := p.containers[t]; ok {
		c.chips = append(c.chips, chip)
	}
}

// SetVisible shows or hides container
func (p *Page) SetVisible(t Target, visible bool) {
	if c, ok := p.containers[t]; ok {
		c.visible = visible
	}
}

// SetError puts page into error state, nil resets it
func (p *Page) SetError(err error) { p.loadErr = err }

// Snapshot returns a copy of current page state
func (p *Page) Snapshot() View {
	v := View{Cards: []Card{}, Chips: []Chip{}}
	if c, ok := p.containers[TargetJobs]; ok {
		v.Cards = append(v.Cards, c.cards...)
	}
	if c, ok := p.containers[TargetFilterTags]; ok {
		v.Chips = append(v.Chips, c.chips...)
	}
	if c, ok := p.containers[TargetFilterBar]; ok {
		v.FilterBarVisible = c.visible
	}
	if p.loadErr != nil {
		v.Error = p.loadErr.Error()
	}
	return v
}
