package layout

// DefaultTabWidth is used when no tab width is configured.
const DefaultTabWidth = 4

// TabExpander provides tab stop arithmetic.
type TabExpander struct {
	tabWidth int
}

// NewTabExpander creates a tab expander. Widths below 1 become 1.
func NewTabExpander(tabWidth int) *TabExpander {
	if tabWidth < 1 {
		tabWidth = 1
	}
	return &TabExpander{tabWidth: tabWidth}
}

// TabWidth returns the current tab width.
func (t *TabExpander) TabWidth() int {
	return t.tabWidth
}

// TabStopOffset returns how many cells a tab at col spans.
func (t *TabExpander) TabStopOffset(col int) int {
	return t.tabWidth - (col % t.tabWidth)
}
