package filter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visdom/clause"
	"visdom/codec"
	nt "visdom/entity"
	"visdom/serial"
	"visdom/timer"
)

var testCols = nt.Schema{
	Source: "people",
	Columns: []nt.Column{
		nt.Column{Name: "age", Type: nt.Int, Min: 0, Max: 100}.Init(),
		nt.Column{Name: "price", Type: nt.Float, Min: 0, Max: 1000}.Init(),
		nt.Column{Name: "day", Type: nt.Date, Min: 1577836800, Max: 1609459200}.Init(),
		nt.Column{Name: "state", Type: nt.Category}.Init(),
	},
}

func column(name string) nt.Column {
	col, _ := testCols.Column(name)
	return col
}

type fakeHist struct {
	mu      sync.Mutex
	queries []nt.HistogramQuery
	block   chan struct{}
	fail    string
}

func (fh *fakeHist) Histogram(ctx context.Context, qry nt.HistogramQuery) (bins []nt.Bin, err error) {

	fh.mu.Lock()
	fh.queries = append(fh.queries, qry)
	fh.mu.Unlock()

	if fh.block != nil {
		select {
		case <-fh.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if qry.Column.Name == fh.fail {
		return nil, errors.New("boom")
	}
	return []nt.Bin{{X: qry.Column.Min, Count: len(qry.Criteria)}}, nil
}

func (fh *fakeHist) asked() map[string][]nt.Criterion {

	fh.mu.Lock()
	defer fh.mu.Unlock()

	asked := map[string][]nt.Criterion{}
	for _, qry := range fh.queries {
		asked[qry.Column.Name] = qry.Criteria
	}
	return asked
}

type fixture struct {
	mdl     *Model
	clock   *timer.Fake
	loop    *serial.Loop
	changes []Event
	updates []Event
}

func newFixture(t *testing.T, hist Histograms) *fixture {
	t.Helper()

	fx := &fixture{
		clock: timer.NewFake(time.Unix(0, 0)),
		loop:  serial.NewLoop(),
	}

	cfg := &Config{}
	fx.mdl = cfg.New(context.Background(), codec.V2{}, hist, fx.clock, fx.loop, nil)
	fx.mdl.Reset("people", testCols)

	fx.mdl.Events.On(EventChange, func(evt Event) { fx.changes = append(fx.changes, evt) })
	fx.mdl.Events.On(EventUpdate, func(evt Event) { fx.updates = append(fx.updates, evt) })
	return fx
}

// settle runs posted work until posts closures have run.
func (fx *fixture) settle(t *testing.T, posts int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for ran := 0; ran < posts; {
		count, err := fx.loop.Step(ctx)
		require.NoError(t, err)
		ran += count
	}
}

func TestRangeWidgetSelect(t *testing.T) {

	col := nt.Column{Name: "score", Type: nt.Float, Min: 0, Max: 100}.Init()
	wdg := NewRange(col, clause.Float)

	var got [][]string
	wdg.Events().On(WidgetChange, func(exprs []string) { got = append(got, exprs) })

	wdg.Select(20, 80)
	assert.Equal(t, []string{">=20", "<80"}, wdg.Expression())
	assert.Equal(t, [][]string{{">=20", "<80"}}, got)

	other := NewRange(col, clause.Float)
	skipped := other.SetExpression(wdg.Expression())
	assert.Empty(t, skipped)
	assert.Equal(t, clause.Range[float64]{Lo: 20, Hi: 80, LoInclusive: true}, other.Value())

	wdg.Reset()
	assert.Nil(t, wdg.Expression())
	assert.Nil(t, wdg.Value())
}

func TestCategoryWidget(t *testing.T) {

	wdg := NewCategory(column("state"))
	assert.Nil(t, wdg.Expression())

	wdg.Select("CA", "OR")
	assert.Equal(t, []string{"in(CA,OR)"}, wdg.Expression())

	wdg.Invert(true)
	assert.Equal(t, []string{"!in(CA,OR)"}, wdg.Expression())

	skipped := wdg.SetExpression([]string{"=WA"})
	assert.Empty(t, skipped)
	assert.Equal(t, []string{"=WA"}, wdg.Expression())
	assert.False(t, wdg.Inverted())

	skipped = wdg.SetExpression([]string{">5"})
	assert.Equal(t, []string{">5"}, skipped)
	assert.Nil(t, wdg.Value())
}

func TestCompile(t *testing.T) {

	fx := newFixture(t, nil)
	mdl := fx.mdl

	wire, err := mdl.Compile()
	require.NoError(t, err)
	assert.Equal(t, "", wire)

	age, err := mdl.AddCriterion("age", []string{">=18", "<65"})
	require.NoError(t, err)
	_, err = mdl.AddCriterion("state", []string{"in(CA,OR)"})
	require.NoError(t, err)
	_, err = mdl.AddCriterion("price", nil)
	require.NoError(t, err)

	wire, err = mdl.Compile()
	require.NoError(t, err)
	assert.Equal(t, "(age>=18+age<65)^(state'in'[CA,OR])", wire)

	require.NoError(t, mdl.SetDisabled(age.ID, true))
	wire, err = mdl.Compile()
	require.NoError(t, err)
	assert.Equal(t, "(state'in'[CA,OR])", wire)
	assert.True(t, fx.changes[len(fx.changes)-1].Temporary)
	assert.Equal(t, age, fx.changes[len(fx.changes)-1].Entry)

	require.NoError(t, mdl.Remove(fx.mdl.Entries()[1].ID))
	wire, err = mdl.Compile()
	require.NoError(t, err)
	assert.Equal(t, "", wire)
	assert.Len(t, mdl.Entries(), 2)

	assert.Error(t, mdl.Remove(999))
	_, err = mdl.AddCriterion("nope", nil)
	assert.True(t, errors.Is(err, ErrUnknownColumn))
}

func TestCompileCommaInCategory(t *testing.T) {

	fx := newFixture(t, nil)

	ent, err := fx.mdl.AddCriterion("state", nil)
	require.NoError(t, err)
	cat, ok := ent.Widget.(*Category)
	require.True(t, ok)

	cat.Select("Portland, OR", "CA")

	crit, err := ent.Criterion()
	require.NoError(t, err)
	require.Len(t, crit.Clauses, 1)
	assert.Equal(t, []string{"Portland, OR", "CA"}, crit.Clauses[0].Values)

	_, err = fx.mdl.Compile()
	assert.True(t, errors.Is(err, codec.ErrUnsupported))
}

func TestCompileSinglePoint(t *testing.T) {

	fx := newFixture(t, nil)

	_, err := fx.mdl.SetFromExpression("(age=5)")
	require.NoError(t, err)

	wire, err := fx.mdl.Compile()
	require.NoError(t, err)
	assert.Equal(t, "(age=5)", wire)
}

func TestSetFromExpressionIdempotent(t *testing.T) {

	fx := newFixture(t, nil)

	changed, err := fx.mdl.SetFromExpression("(age>=18.0+age<65)^(state'in'[CA,OR])")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = fx.mdl.SetFromExpression("(age>=18.0+age<65)^(state'in'[CA,OR])")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = fx.mdl.SetFromExpression("(age>=18+age<65)&(state'in'[CA,OR])")
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Len(t, fx.changes, 1)
	assert.Nil(t, fx.changes[0].Entry)
}

func TestSetFromExpressionMalformed(t *testing.T) {

	fx := newFixture(t, nil)

	_, err := fx.mdl.SetFromExpression("(age>18)")
	require.NoError(t, err)
	before := fx.mdl.Criteria()

	for _, expr := range []string{"(age>18", "(age>18|age<5)", "(height>3)"} {
		_, err = fx.mdl.SetFromExpression(expr)
		assert.Error(t, err, expr)
		assert.Equal(t, before, fx.mdl.Criteria(), expr)
	}

	assert.Len(t, fx.changes, 1)
	assert.Len(t, fx.mdl.Entries(), 1)
}

func TestAdvancedMode(t *testing.T) {

	fx := newFixture(t, nil)
	mdl := fx.mdl

	_, err := mdl.SetFromExpression("(age>18)")
	require.NoError(t, err)

	mdl.ShowAdvanced()
	assert.True(t, mdl.Advanced())
	assert.Equal(t, "(age>18)", mdl.Expression())

	err = mdl.SubmitAdvanced("(age>18+")
	assert.Error(t, err)
	assert.True(t, mdl.Advanced())
	assert.Equal(t, "(age>18+", mdl.Expression())

	err = mdl.ShowList()
	assert.Error(t, err)
	assert.True(t, mdl.Advanced())
	assert.Equal(t, "(age>18+", mdl.Expression())

	err = mdl.SubmitAdvanced("(age>20)")
	require.NoError(t, err)
	assert.Equal(t, "(age>20)", mdl.Expression())

	err = mdl.ShowList()
	require.NoError(t, err)
	assert.False(t, mdl.Advanced())
	assert.Equal(t, "(age>20)", mdl.Expression())
}

func TestSentence(t *testing.T) {

	fx := newFixture(t, nil)

	_, err := fx.mdl.SetFromExpression("(age>=18+age<65)^(day>=1583020800)^(price<10)^(state!'in'[CA,OR])")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"age is between 18 and 65",
		"day is after 2020-03-01",
		"price is less than 10",
		"state is not CA or OR",
	}, fx.mdl.Sentence())
	assert.Equal(t, "age is between 18 and 65 and day is after 2020-03-01 and price is less than 10 and state is not CA or OR", fx.mdl.ToSentence())
}

func TestClear(t *testing.T) {

	fx := newFixture(t, nil)

	cleared := 0
	fx.mdl.Events.On(EventClear, func(Event) { cleared++ })

	_, err := fx.mdl.SetFromExpression("(age>18)")
	require.NoError(t, err)

	fx.mdl.Clear()
	assert.Equal(t, 1, cleared)
	assert.Empty(t, fx.mdl.Entries())
	assert.Len(t, fx.changes, 2)

	fx.mdl.Reset("other", nt.Schema{})
	assert.Equal(t, 2, cleared)
	assert.Equal(t, "other", fx.mdl.Source())
}

func TestHistogramsDebouncedAndRelative(t *testing.T) {

	hist := &fakeHist{}
	fx := newFixture(t, hist)

	_, err := fx.mdl.SetFromExpression("(age>=18)^(day>=1583020800)^(state'in'[CA])")
	require.NoError(t, err)
	assert.True(t, fx.mdl.Pending())

	fx.clock.Advance(199 * time.Millisecond)
	assert.Empty(t, hist.asked())

	fx.clock.Advance(time.Millisecond)
	fx.settle(t, 1)

	asked := hist.asked()
	require.Len(t, asked, 2)
	assert.Equal(t, []string{"day", "state"}, columnsOf(asked["age"]))
	assert.Equal(t, []string{"age", "state"}, columnsOf(asked["day"]))

	require.Len(t, fx.updates, 1)
	assert.NoError(t, fx.updates[0].Err)
	assert.Len(t, fx.updates[0].Bins, 2)

	age := fx.mdl.Entries()[0]
	assert.Equal(t, []nt.Bin{{X: 0, Count: 2}}, age.Widget.(*Span[float64]).Bins())
}

func TestHistogramsStaleDiscarded(t *testing.T) {

	hist := &fakeHist{block: make(chan struct{})}
	fx := newFixture(t, hist)

	_, err := fx.mdl.AddCriterion("age", []string{">=18"})
	require.NoError(t, err)
	fx.mdl.RefreshHistograms()

	_, err = fx.mdl.AddCriterion("price", []string{"<10"})
	require.NoError(t, err)
	fx.mdl.RefreshHistograms()
	close(hist.block)

	fx.settle(t, 2)

	require.Len(t, fx.updates, 1)
	assert.NoError(t, fx.updates[0].Err)

	age := fx.mdl.Entries()[0]
	assert.Equal(t, []nt.Bin{{X: 0, Count: 1}}, fx.updates[0].Bins[age.ID])
}

func TestHistogramsFailure(t *testing.T) {

	hist := &fakeHist{fail: "day"}
	fx := newFixture(t, hist)

	_, err := fx.mdl.SetFromExpression("(age>=18)^(day>=1583020800)")
	require.NoError(t, err)
	fx.mdl.RefreshHistograms()
	fx.settle(t, 1)

	require.Len(t, fx.updates, 1)
	assert.ErrorContains(t, fx.updates[0].Err, "boom")
	assert.Nil(t, fx.mdl.Entries()[0].Widget.(*Span[float64]).Bins())
}

func columnsOf(crits []nt.Criterion) (names []string) {

	for _, crit := range crits {
		names = append(names, crit.Column)
	}
	return
}
