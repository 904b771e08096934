package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	nt "visdom/entity"
	"visdom/filter"
	"visdom/style"
)

// FilterPanel is a modal dialog for editing the filter's entries.
// Rows are the entries followed by a row for adding one.
type FilterPanel struct {
	selected int
	field    fieldType
	adding   int    // index of the column offered for a new entry
	buffer   string // clauses or advanced text being typed
	editing  bool
	errText  string

	width  int
	height int
}

type fieldType int

const (
	fieldEnabled fieldType = iota
	fieldDelete
	fieldClauses
)

// Categories looks up options for category entries.
type Categories func(column string) ([]nt.CategoryCount, error)

// Update handles a key press against mdl.
func (pnl FilterPanel) Update(msg tea.KeyPressMsg, mdl *filter.Model, sch nt.Schema, cats Categories) FilterPanel {

	pnl.errText = ""

	if mdl.Advanced() {
		return pnl.advancedKey(msg, mdl)
	}
	if pnl.editing {
		return pnl.editKey(msg, mdl)
	}

	ents := mdl.Entries()
	onAdd := pnl.selected >= len(ents)

	switch msg.String() {
	case "v":
		mdl.ShowAdvanced()
		pnl.buffer = mdl.Expression()

	case "tab":
		pnl.field = (pnl.field + 1) % 3

	case "up":
		if pnl.selected > 0 {
			pnl.selected--
		}

	case "down":
		if pnl.selected < len(ents) {
			pnl.selected++
		}

	case "left", "right":
		if onAdd && len(sch.Columns) > 0 {
			step := 1
			if msg.String() == "left" {
				step = len(sch.Columns) - 1
			}
			pnl.adding = (pnl.adding + step) % len(sch.Columns)
		}

	case "enter":
		if onAdd {
			pnl = pnl.add(mdl, sch, cats)
			break
		}
		if pnl.field == fieldClauses {
			pnl.editing = true
			pnl.buffer = strings.Join(ents[pnl.selected].Widget.Expression(), " ")
		}

	case "t":
		if !onAdd {
			ent := ents[pnl.selected]
			pnl = pnl.check(mdl.SetDisabled(ent.ID, !ent.Disabled))
		}

	case "d":
		if !onAdd {
			pnl = pnl.check(mdl.Remove(ents[pnl.selected].ID))
		}

	case "i":
		if !onAdd {
			if cat, ok := ents[pnl.selected].Widget.(*filter.Category); ok {
				cat.Invert(!cat.Inverted())
			}
		}
	}

	return pnl
}

// View renders the dialog centered in the panel.
func (pnl FilterPanel) View(mdl *filter.Model, sch nt.Schema) *lipgloss.Layer {

	var content strings.Builder

	if mdl.Advanced() {
		content.WriteString("Filter expression:\n\n")
		content.WriteString(style.HlCellStyle.Render(pnl.buffer + "_"))
		content.WriteString("\n")
	} else {
		pnl.entries(&content, mdl, sch)
	}

	if sentence := mdl.ToSentence(); sentence != "" {
		content.WriteString("\n" + sentence + "\n")
	}
	if pnl.errText != "" {
		content.WriteString("\n" + style.ErrorStyle.Render(pnl.errText) + "\n")
	}
	content.WriteString("\n" + style.MutedStyle.Render(pnl.help(mdl)))

	dialog := dialogStyle.Render(content.String())

	layer := lipgloss.NewLayer("filter", dialog)
	if pnl.width > 0 && pnl.height > 0 {
		vPad := max(0, (pnl.height-lipgloss.Height(dialog))/2)
		hPad := max(0, (pnl.width-lipgloss.Width(dialog))/2)
		layer = layer.X(hPad).Y(vPad)
	}
	return layer
}

// unexported

var dialogStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(1, 2).
	Width(72)

var hl = lipgloss.NewStyle().Background(lipgloss.Color("240"))

func (pnl FilterPanel) entries(content *strings.Builder, mdl *filter.Model, sch nt.Schema) {

	ents := mdl.Entries()
	if len(ents) > 0 {
		content.WriteString("Filters:\n")
	}

	for i, ent := range ents {
		isSelected := i == pnl.selected

		enabledStr := "[x]"
		if ent.Disabled {
			enabledStr = "[ ]"
		}
		if isSelected && pnl.field == fieldEnabled {
			enabledStr = hl.Render(enabledStr)
		}

		deleteStr := "[del]"
		if isSelected && pnl.field == fieldDelete {
			deleteStr = hl.Render(deleteStr)
		}

		clauses := strings.Join(ent.Widget.Expression(), " ")
		if isSelected && pnl.editing {
			clauses = pnl.buffer + "_"
		}
		if isSelected && pnl.field == fieldClauses {
			clauses = hl.Render(clauses)
		}

		rowPrefix := "  "
		if isSelected {
			rowPrefix = "> "
		}

		fmt.Fprintf(content, "%s%s %s %s %s %s\n", rowPrefix, enabledStr, deleteStr, ent.Column.Label, clauses, spark(ent.Widget))
	}

	addStr := "+ add filter"
	if len(sch.Columns) > 0 {
		addStr = fmt.Sprintf("+ add filter on < %s >", sch.Columns[pnl.adding%len(sch.Columns)].Label)
	}
	if pnl.selected >= len(ents) {
		content.WriteString("> " + hl.Render(addStr) + "\n")
	} else {
		content.WriteString("  " + addStr + "\n")
	}
}

func (pnl FilterPanel) help(mdl *filter.Model) string {

	switch {
	case mdl.Advanced():
		return "Enter: apply  Tab: list view  Esc: close"
	case pnl.editing:
		return "type clauses like >=20 <80 or in(CA,OR)  Enter: apply  Esc: cancel"
	case pnl.selected >= len(mdl.Entries()):
		return "←→: column  Enter: add  ↑↓: row  v: advanced  Esc: close"
	}

	switch pnl.field {
	case fieldEnabled:
		return "t: toggle  Tab: next field  ↑↓: row  v: advanced  Esc: close"
	case fieldDelete:
		return "d: delete  Tab: next field  ↑↓: row  v: advanced  Esc: close"
	}
	return "Enter: edit  i: invert  Tab: next field  ↑↓: row  v: advanced  Esc: close"
}

func (pnl FilterPanel) add(mdl *filter.Model, sch nt.Schema, cats Categories) FilterPanel {

	if len(sch.Columns) == 0 {
		return pnl
	}
	col := sch.Columns[pnl.adding%len(sch.Columns)]

	ent, err := mdl.AddCriterion(col.Name, nil)
	if err != nil {
		return pnl.check(err)
	}

	if cat, ok := ent.Widget.(*filter.Category); ok {
		opts, err := cats(col.Name)
		if err != nil {
			return pnl.check(err)
		}
		cat.SetOptions(opts)
	}

	pnl.selected = len(mdl.Entries()) - 1
	pnl.field = fieldClauses
	return pnl
}

func (pnl FilterPanel) editKey(msg tea.KeyPressMsg, mdl *filter.Model) FilterPanel {

	switch msg.String() {
	case "esc":
		pnl.editing = false
	case "enter":
		pnl.editing = false
		ents := mdl.Entries()
		if pnl.selected < len(ents) {
			skipped, err := mdl.SetClauses(ents[pnl.selected].ID, strings.Fields(pnl.buffer))
			if err == nil && len(skipped) > 0 {
				pnl.errText = fmt.Sprintf("skipped: %s", strings.Join(skipped, " "))
			}
			pnl = pnl.check(err)
		}
	default:
		pnl.buffer = typed(pnl.buffer, msg)
	}
	return pnl
}

func (pnl FilterPanel) advancedKey(msg tea.KeyPressMsg, mdl *filter.Model) FilterPanel {

	switch msg.String() {
	case "enter":
		pnl = pnl.check(mdl.SubmitAdvanced(pnl.buffer))
	case "tab":
		pnl = pnl.check(mdl.ShowList())
	default:
		pnl.buffer = typed(pnl.buffer, msg)
	}
	return pnl
}

func (pnl FilterPanel) check(err error) FilterPanel {

	if err != nil {
		pnl.errText = err.Error()
	}
	return pnl
}

// typed applies a key press to a line of text.
func typed(text string, msg tea.KeyPressMsg) string {

	switch key := msg.String(); key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
	case "space":
		return text + " "
	default:
		if len([]rune(key)) == 1 {
			return text + key
		}
	}
	return text
}

var levels = []rune("▁▂▃▄▅▆▇█")

// spark renders a range widget's histogram as a one-line sparkline.
func spark(wdg filter.Widget) string {

	binner, ok := wdg.(interface{ Bins() []nt.Bin })
	if !ok {
		return ""
	}
	bins := binner.Bins()
	if len(bins) == 0 {
		return ""
	}

	// squeeze into 20 cells
	cells := make([]int, min(20, len(bins)))
	for i, bin := range bins {
		cells[i*len(cells)/len(bins)] += bin.Count
	}

	top := 0
	for _, cell := range cells {
		top = max(top, cell)
	}

	var bld strings.Builder
	for _, cell := range cells {
		idx := 0
		if top > 0 {
			idx = cell * (len(levels) - 1) / top
		}
		bld.WriteRune(levels[idx])
	}
	return style.MutedStyle.Render(bld.String())
}
