// Package tui hosts the dashboard in a terminal.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"visdom"
	"visdom/chart"
	nt "visdom/entity"
	"visdom/filter"
	"visdom/hash"
	"visdom/preset"
	"visdom/serial"
	"visdom/state"
	"visdom/style"
)

const (
	headerHeight = 2
	footerHeight = 2
)

// loopMsg says work is waiting on the loop.
type loopMsg struct{}

// Model is the bubbletea model for the dashboard.
// Update drains the loop, so the controller is only ever touched from Update.
type Model struct {
	ctl     *visdom.Controller
	loop    *serial.Loop
	history *hash.Memory
	presets *preset.File

	filterPanel FilterPanel
	showFilter  bool
	showHelp    bool
	errorString string
	watched     map[chart.Chart]bool

	width  int
	height int

	ctx    context.Context
	logger nt.Logger
}

// New creates the model; ctl is expected to post its work to loop.
func New(ctx context.Context, ctl *visdom.Controller, loop *serial.Loop, history *hash.Memory, presets *preset.File, lgr nt.Logger) *Model {

	mdl := &Model{
		ctl:     ctl,
		loop:    loop,
		history: history,
		presets: presets,
		watched: map[chart.Chart]bool{},
		ctx:     ctx,
		logger:  nt.OrNoop(lgr),
	}

	ctl.Events.On(visdom.EventSelect, func(visdom.Event) {
		mdl.watch()
	})
	ctl.Events.On(visdom.EventState, func(evt visdom.Event) {
		if evt.Diff.Has("filter", "adv", "source") && mdl.presets != nil {
			mdl.presets.Remember(current(evt.State))
		}
	})
	ctl.Filter().Events.On(filter.EventUpdate, func(evt filter.Event) {
		if evt.Err != nil {
			mdl.errorString = evt.Err.Error()
		}
	})

	return mdl
}

func (mdl *Model) Init() tea.Cmd {
	return mdl.wait()
}

func (mdl *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	switch msg := msg.(type) {

	case loopMsg:
		mdl.loop.Drain()
		return mdl, mdl.wait()

	case tea.WindowSizeMsg:
		mdl.width = msg.Width
		mdl.height = msg.Height
		mdl.filterPanel.width = msg.Width
		mdl.filterPanel.height = msg.Height - footerHeight
		return mdl, nil

	case tea.KeyPressMsg:
		mdl.errorString = ""

		if msg.String() == "ctrl+c" {
			return mdl, tea.Quit
		}

		if mdl.showFilter {
			if msg.String() == "esc" && !mdl.filterPanel.editing {
				mdl.showFilter = false
				return mdl, nil
			}
			mdl.filterPanel = mdl.filterPanel.Update(msg, mdl.ctl.Filter(), mdl.ctl.Schema(), mdl.ctl.Categories)
			return mdl, nil
		}

		return mdl.handleKey(msg)
	}

	return mdl, nil
}

func (mdl *Model) View() tea.View {

	if mdl.width == 0 {
		return tea.NewView("Loading...")
	}

	reg, inst := mdl.ctl.Active()

	headerLayer := lipgloss.NewLayer("header", mdl.header(reg))

	var col nt.Column
	if inst != nil {
		col, _ = mdl.ctl.Schema().Column(inst.State().String("x"))
	}
	body := renderChart(inst, col, mdl.width, mdl.height-headerHeight-footerHeight)
	chartLayer := lipgloss.NewLayer("chart", body).Y(headerHeight)

	footerContent := renderFooter(mdl.ctl.Describe(), mdl.history.Address(), mdl.width)
	if mdl.errorString != "" {
		footerContent = style.ErrorStyle.Render(truncate(mdl.errorString, mdl.width))
	}
	footerLayer := lipgloss.NewLayer("footer", footerContent).Y(mdl.height - footerHeight)

	canvas := lipgloss.NewCanvas(mdl.width, mdl.height)
	canvas.Compose(headerLayer)
	canvas.Compose(chartLayer)
	canvas.Compose(footerLayer)
	if mdl.showFilter {
		canvas.Compose(mdl.filterPanel.View(mdl.ctl.Filter(), mdl.ctl.Schema()))
	}
	if mdl.showHelp {
		help := dialogStyle.Render(Help())
		canvas.Compose(lipgloss.NewLayer("help", help).X(max(0, mdl.width-lipgloss.Width(help))))
	}

	view := tea.NewView(canvas)
	view.AltScreen = true
	return view
}

// unexported

func (mdl *Model) wait() tea.Cmd {
	return func() tea.Msg {
		<-mdl.loop.Ready()
		return loopMsg{}
	}
}

// watch subscribes to errors from the active chart, once per chart.
func (mdl *Model) watch() {

	_, inst := mdl.ctl.Active()
	if inst == nil || mdl.watched[inst] {
		return
	}

	inst.Events().On(chart.EventError, func(evt chart.Event) {
		mdl.errorString = evt.Err.Error()
	})
	mdl.watched[inst] = true
}

func (mdl *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {

	snap := mdl.ctl.State()

	switch msg.String() {
	case "q", "esc":
		return mdl, tea.Quit

	case "tab":
		charts := mdl.ctl.Charts()
		idx := slices.IndexFunc(charts, func(reg *visdom.Registration) bool { return reg.ID == snap.String("chart") })
		mdl.ctl.SelectChart(charts[(idx+1)%len(charts)].ID)

	case "s":
		mdl.ctl.SetSource(mdl.nextSource(snap.String("source")))

	case "f":
		mdl.showFilter = true
		mdl.filterPanel.buffer = mdl.ctl.Filter().Expression()

	case "[":
		if mdl.history.Back() {
			mdl.check()
		}

	case "]":
		if mdl.history.Forward() {
			mdl.check()
		}

	case "x", "y":
		mdl.cycleColumn(snap, msg.String())

	case "k":
		mdl.cycleColumn(snap, "color")

	case "?":
		mdl.showHelp = !mdl.showHelp

	case "+", "-":
		mdl.resize(snap, msg.String() == "+")

	case "c":
		mdl.toggle(snap, "cum")

	case "o":
		mdl.toggle(snap, "asc")

	case "L":
		mdl.toggle(snap, "logx")
		mdl.toggle(snap, "logy")

	case "p":
		mdl.nextPreset(snap)

	case "P":
		mdl.savePreset(snap)

	case "R":
		mdl.removePreset()
	}

	return mdl, nil
}

func (mdl *Model) header(reg *visdom.Registration) string {

	var labels []string
	active := -1
	for i, each := range mdl.ctl.Charts() {
		labels = append(labels, each.Name)
		if each == reg {
			active = i
		}
	}

	source := mdl.ctl.Schema().Source
	line := style.Tabs(labels, active) + "  " + style.MutedStyle.Render("source: "+source)
	if pst, ok := mdl.presetCurrent(); ok {
		line += style.MutedStyle.Render("  preset: " + pst.Name)
	}

	sentence := mdl.ctl.Filter().ToSentence()
	if sentence == "" {
		sentence = "no filter"
	}
	return line + "\n" + style.MutedStyle.Render(truncate(sentence, mdl.width))
}

func (mdl *Model) check() {

	_, err := mdl.ctl.Hash().Check(mdl.ctx)
	if err != nil {
		mdl.errorString = err.Error()
	}
}

func (mdl *Model) nextSource(source string) string {

	srcs := mdl.ctl.Sources()
	idx := slices.IndexFunc(srcs, func(src nt.Source) bool { return src.Name == source })
	return srcs[(idx+1)%len(srcs)].Name
}

// cycleColumn moves a column field on to the next column it can take.
func (mdl *Model) cycleColumn(snap state.Snapshot, key string) {

	reg, _ := mdl.ctl.Active()
	if reg == nil {
		return
	}

	idx := slices.IndexFunc(reg.Fields, func(fld chart.Field) bool { return fld.Key == key && fld.Column })
	if idx < 0 {
		return
	}

	sch := mdl.ctl.Schema()
	cols := sch.Columns
	if types := reg.Fields[idx].Types; len(types) > 0 {
		cols = sch.ColumnsByType(types...)
	}
	if len(cols) == 0 {
		return
	}

	at := slices.IndexFunc(cols, func(col nt.Column) bool { return col.Name == snap.String(key) })
	mdl.ctl.SetState(state.Snapshot{key: cols[(at+1)%len(cols)].Name})
}

// resize doubles or halves the chart's count field.
func (mdl *Model) resize(snap state.Snapshot, grow bool) {

	for _, key := range []string{"bins", "nrows", "samples"} {
		num := snap.Int(key, 0)
		if num == 0 {
			continue
		}

		if grow {
			num *= 2
		} else {
			num = max(1, num/2)
		}
		mdl.ctl.SetState(state.Snapshot{key: num})
		return
	}
}

func (mdl *Model) toggle(snap state.Snapshot, key string) {

	reg, _ := mdl.ctl.Active()
	if reg == nil || !slices.Contains(reg.Keys(), key) {
		return
	}
	mdl.ctl.SetState(state.Snapshot{key: !snap.Bool(key)})
}

func (mdl *Model) presetCurrent() (pst preset.Preset, ok bool) {

	if mdl.presets == nil {
		return
	}
	return mdl.presets.Current()
}

func (mdl *Model) nextPreset(snap state.Snapshot) {

	if mdl.presets == nil {
		return
	}

	presets := mdl.presets.List(snap.String("source"))
	if len(presets) == 0 {
		mdl.errorString = "no presets for this source"
		return
	}

	cur, _ := mdl.presets.Current()
	idx := slices.IndexFunc(presets, func(pst preset.Preset) bool { return pst.Name == cur.Name })
	pst, err := mdl.presets.Select(presets[(idx+1)%len(presets)].Name)
	if err != nil {
		mdl.errorString = err.Error()
		return
	}

	adv := any(nil)
	if pst.Advanced {
		adv = true
	}
	mdl.ctl.SetState(state.Snapshot{"filter": pst.Expr, "adv": adv})
}

func (mdl *Model) savePreset(snap state.Snapshot) {

	if mdl.presets == nil {
		return
	}

	pst := current(snap)
	if pst.Expr == "" {
		mdl.errorString = "nothing to save, the filter is empty"
		return
	}
	pst.Name = truncate(mdl.ctl.Filter().ToSentence(), 40)

	_, err := mdl.presets.Save(pst)
	if err != nil {
		mdl.errorString = err.Error()
	}
}

func (mdl *Model) removePreset() {

	if mdl.presets == nil {
		return
	}

	err := mdl.presets.Remove()
	if err != nil {
		mdl.errorString = err.Error()
	}
}

// current is the filter held in snap as a preset.
func current(snap state.Snapshot) preset.Preset {

	return preset.Preset{
		Expr:     snap.String("filter"),
		Advanced: snap.Bool("adv"),
		Source:   snap.String("source"),
	}
}

// Help lists the keys.
func Help() string {

	keys := [][2]string{
		{"tab", "next chart"},
		{"s", "next source"},
		{"f", "edit filter"},
		{"[ ]", "back, forward"},
		{"x y k", "next x, y or color column"},
		{"+ -", "more or fewer bins, rows or samples"},
		{"c o L", "cumulative, ascending, log scales"},
		{"p P R", "next, save, remove preset"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var bld strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&bld, "%10s  %s\n", key[0], key[1])
	}
	return bld.String()
}
