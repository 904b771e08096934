package filter

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	nt "visdom/entity"
)

type binner interface {
	SetBins(bins []nt.Bin)
}

type request struct {
	ent    *Entry
	qry    nt.HistogramQuery
	ctx    context.Context
	cancel context.CancelFunc
	bins   []nt.Bin
}

// Schedule refreshes histograms once edits settle.
func (mdl *Model) Schedule() {
	mdl.refresh.Trigger(struct{}{})
}

// Pending is true while a histogram refresh is waiting for edits to settle.
func (mdl *Model) Pending() bool {
	return mdl.refresh.Pending()
}

// RefreshHistograms requests a histogram for each entry that shows one, each under the
// criteria of all other active entries.
// Requests still in flight are cancelled first. Results arrive through the executor, all together,
// followed by EventUpdate; a refresh superseded in the meantime is dropped.
func (mdl *Model) RefreshHistograms() {

	mdl.refresh.Cancel()
	mdl.abort()

	if mdl.hist == nil {
		return
	}

	var reqs []*request
	for _, ent := range mdl.Entries() {
		if !ent.Widget.Histogram() {
			continue
		}

		ctx, cancel := context.WithCancel(mdl.ctx)
		mdl.cancels[ent.ID] = cancel

		reqs = append(reqs, &request{
			ent: ent,
			qry: nt.HistogramQuery{
				Source:   mdl.source,
				Column:   ent.Column,
				Criteria: mdl.criteria(mdl.entries, ent),
			},
			ctx:    ctx,
			cancel: cancel,
		})
	}
	if len(reqs) == 0 {
		return
	}

	gen := mdl.gen
	go func() {
		err := mdl.fetch(reqs)
		mdl.exec.Post(func() {
			if gen != mdl.gen {
				return
			}
			mdl.apply(reqs, err)
		})
	}()
}

// fetch runs reqs concurrently; the first failure cancels the rest.
func (mdl *Model) fetch(reqs []*request) error {

	grp, ctx := errgroup.WithContext(mdl.ctx)
	for _, req := range reqs {
		grp.Go(func() (err error) {
			stop := context.AfterFunc(ctx, req.cancel)
			defer stop()

			req.bins, err = mdl.hist.Histogram(req.ctx, req.qry)
			err = errors.Wrapf(err, "failed to get histogram for %q", req.qry.Column.Name)
			return
		})
	}

	return grp.Wait()
}

func (mdl *Model) apply(reqs []*request, err error) {

	for _, req := range reqs {
		req.cancel()
		delete(mdl.cancels, req.ent.ID)
	}

	if err != nil {
		mdl.logger.Error(mdl.ctx, "histogram refresh failed", err)
		mdl.Events.Emit(EventUpdate, Event{Err: err})
		return
	}

	bins := map[int][]nt.Bin{}
	for _, req := range reqs {
		if req.ent.Removed {
			continue
		}
		bins[req.ent.ID] = req.bins
		if bnr, ok := req.ent.Widget.(binner); ok {
			bnr.SetBins(req.bins)
		}
	}

	mdl.Events.Emit(EventUpdate, Event{Bins: bins})
}

// abort cancels requests in flight and invalidates their results.
func (mdl *Model) abort() {

	mdl.gen++
	for id, cancel := range mdl.cancels {
		cancel()
		delete(mdl.cancels, id)
	}
}
