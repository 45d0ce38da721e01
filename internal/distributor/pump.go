package distributor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tturner/simbridge/internal/pdu"
	"github.com/tturner/simbridge/internal/site"
)

// pump receives datagrams from one site and routes every PDU in them, in
// order, to the other sites.
func (d *Distributor) pump(ctx context.Context, src *route) {
	defer d.wg.Done()
	name := src.site.Name()

	for {
		b, err := src.site.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, site.ErrSiteDown) {
				d.sink.RecordError(name, err)
				d.log.Error("site %s: receive: %v", name, err)
			}
			sleepCtx(ctx, idleInterval)
			continue
		}
		received := time.Now()
		d.sink.RecordReceive(name, len(b))

		pdus, errs := src.site.DecodeAll(b)
		for _, err := range errs {
			d.sink.RecordError(name, err)
			d.log.LogDrop(name, "decode", err)
		}
		if len(errs) > 0 {
			d.log.LogHex(name+" datagram", b)
		}
		d.sink.RecordDecoded(name, len(pdus))
		d.dispatch(ctx, src, pdus, received)
	}
}

// dispatch routes pdus from src. The source link state is checked before
// each PDU so nothing more leaves a source that went down.
func (d *Distributor) dispatch(ctx context.Context, src *route, pdus []*pdu.PDU, received time.Time) {
	name := src.site.Name()
	for i, p := range pdus {
		if !src.site.IsUp() {
			err := fmt.Errorf("%w: %s went down with %d PDUs pending", site.ErrSiteDown, name, len(pdus)-i)
			d.sink.RecordError(name, err)
			d.log.LogDrop(name, "route", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		d.forward(ctx, src, p, received)
	}
}

// forward encodes p once per destination family and queues it for every
// other up site whose filter accepts it.
func (d *Distributor) forward(ctx context.Context, src *route, p *pdu.PDU, received time.Time) {
	snap := d.snap.Load()
	encoded := make(map[string][]byte, 2)
	queued := 0

	for _, dst := range snap.routes {
		if dst == src || dst.site == src.site {
			continue
		}
		dname := dst.site.Name()
		if !dst.site.IsUp() {
			d.sink.RecordError(dname, fmt.Errorf("%w: %s", site.ErrSiteDown, dname))
			continue
		}
		if err := dst.site.Check(p); err != nil {
			d.sink.RecordError(dname, err)
			d.log.Debug("site %s: %v", dname, err)
			continue
		}

		fam := dst.site.Family().Name
		payload, done := encoded[fam]
		if !done {
			var err error
			payload, err = dst.site.Encode(p)
			if err != nil {
				d.sink.RecordError(dname, err)
				d.log.LogDrop(dname, "encode "+fam, err)
			}
			encoded[fam] = payload
		}
		if payload == nil {
			continue
		}

		out := outbound{src: src.site.Name(), typ: p.Header.Type, payload: payload, received: received}
		select {
		case <-dst.done:
			d.sink.RecordError(dname, fmt.Errorf("%w: %s was removed", site.ErrSiteDown, dname))
			continue
		default:
		}
		select {
		case dst.queue <- out:
			queued++
		case <-dst.done:
			d.sink.RecordError(dname, fmt.Errorf("%w: %s was removed", site.ErrSiteDown, dname))
		case <-ctx.Done():
			return
		}
	}
	if queued == 0 {
		d.sink.RecordUnrouted()
		return
	}
	if d.opts.Analyzer != nil {
		d.opts.Analyzer.Observe(src.site.Name(), p)
	}
}

// sender drains one site's outbound queue.
func (d *Distributor) sender(ctx context.Context, dst *route) {
	defer d.wg.Done()
	name := dst.site.Name()

	for {
		select {
		case <-ctx.Done():
			return
		case out := <-dst.queue:
			if err := dst.site.Send(ctx, out.payload); err != nil {
				if ctx.Err() != nil {
					return
				}
				d.sink.RecordError(name, err)
				d.log.LogDrop(name, "send", err)
				continue
			}
			now := time.Now()
			d.sink.RecordForward(name, out.typ.String(), len(out.payload), now.Sub(out.received))
			if d.opts.Recorder != nil {
				if err := d.opts.Recorder.Record(out.src, name, out.payload, now); err != nil {
					d.log.Error("capture: %v", err)
				}
			}
		}
	}
}
