package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"visdom/chart"
	nt "visdom/entity"
	"visdom/state"
	"visdom/style"
)

// renderChart draws the active chart's data in a width by height box.
func renderChart(inst chart.Chart, col nt.Column, width, height int) string {

	if inst == nil {
		return "No chart selected"
	}

	switch data := inst.Data().(type) {
	case nil:
		return "Loading..."
	case []nt.Bin:
		return renderBins(data, col, width, height)
	case nt.Table:
		if _, ok := inst.(*chart.Scatter); ok {
			return renderScatter(data, inst.State(), width, height)
		}
		return renderTable(data, width, height)
	}
	return fmt.Sprintf("cannot render %T", inst.Data())
}

// renderBins draws one bar per row, merging bins to fit.
func renderBins(bins []nt.Bin, col nt.Column, width, height int) string {

	if len(bins) == 0 || height < 1 {
		return "No data"
	}

	rows := min(height, len(bins))
	counts := make([]int, rows)
	edges := make([]float64, rows)
	for i, bin := range bins {
		row := i * rows / len(bins)
		if counts[row] == 0 && edges[row] == 0 {
			edges[row] = bin.X
		}
		counts[row] += bin.Count
	}

	top := 1
	for _, count := range counts {
		top = max(top, count)
	}

	labelWidth := 12
	barWidth := max(1, width-labelWidth-10)

	var bld strings.Builder
	for i, count := range counts {
		label := style.MutedStyle.Render(fmt.Sprintf("%*s", labelWidth, edgeLabel(edges[i], col)))
		bar := barStyle.Render(strings.Repeat("█", count*barWidth/top))
		fmt.Fprintf(&bld, "%s %s %d\n", label, bar, count)
	}
	return strings.TrimSuffix(bld.String(), "\n")
}

// renderTable draws rows under a header, as many as fit.
func renderTable(data nt.Table, width, height int) string {

	lgt := table.New()
	style.StyleTable(lgt)
	lgt.Width(width)
	lgt.Headers(data.Columns...)

	for i, row := range data.Rows {
		if i >= height-2 {
			break
		}
		cells := make([]string, len(row))
		for j, val := range row {
			cells[j] = val.String()
		}
		lgt.Row(cells...)
	}
	return lgt.Render()
}

// renderScatter plots the first two columns as points on a character grid.
func renderScatter(data nt.Table, snap state.Snapshot, width, height int) string {

	if width < 2 || height < 2 {
		return ""
	}

	logx, logy := snap.Bool("logx"), snap.Bool("logy")
	xs, ys := make([]float64, 0, len(data.Rows)), make([]float64, 0, len(data.Rows))
	for _, row := range data.Rows {
		if len(row) < 2 {
			continue
		}
		xx, errx := row[0].Float()
		yy, erry := row[1].Float()
		if errx != nil || erry != nil {
			continue
		}
		xx, okx := scale(xx, logx)
		yy, oky := scale(yy, logy)
		if !okx || !oky {
			continue
		}
		xs = append(xs, xx)
		ys = append(ys, yy)
	}
	if len(xs) == 0 {
		return "No data"
	}

	xlo, xhi := extent(xs)
	ylo, yhi := extent(ys)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	for i := range xs {
		col := int((xs[i] - xlo) / (xhi - xlo) * float64(width-1))
		row := height - 1 - int((ys[i]-ylo)/(yhi-ylo)*float64(height-1))
		grid[row][col] = '•'
	}

	lines := make([]string, height)
	for i, line := range grid {
		lines[i] = string(line)
	}
	return pointStyle.Render(strings.Join(lines, "\n"))
}

var (
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	pointStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

func edgeLabel(edge float64, col nt.Column) string {

	if col.Type == nt.Date {
		return time.Unix(int64(edge), 0).UTC().Format(time.DateOnly)
	}
	return nt.Value{Raw: math.Round(edge*100) / 100}.String()
}

func scale(val float64, logged bool) (float64, bool) {

	if !logged {
		return val, true
	}
	if val <= 0 {
		return 0, false
	}
	return math.Log10(val), true
}

// extent returns the min and max of vals, widened when they are equal.
func extent(vals []float64) (lo, hi float64) {

	lo, hi = vals[0], vals[0]
	for _, val := range vals {
		lo, hi = min(lo, val), max(hi, val)
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	return
}
