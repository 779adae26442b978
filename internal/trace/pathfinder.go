package trace

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// PathFinder traces the round trip between a requester and a destination
// and geolocates every hop
type PathFinder struct {
	tracer      Tracer
	resolver    HostResolver
	locator     models.Locator
	concurrency int
	log         *zap.SugaredLogger
}

// NewPathFinder creates a path finder that looks up at most concurrency hops at once
func NewPathFinder(tracer Tracer, resolver HostResolver, locator models.Locator, concurrency int, log *zap.SugaredLogger) *PathFinder {
	return &PathFinder{
		tracer:      tracer,
		resolver:    resolver,
		locator:     locator,
		concurrency: concurrency,
		log:         log,
	}
}

// Find traces to the requester and to the destination concurrently. The
// result lists the requester path reversed followed by the destination path;
// hops that did not respond or could not be located are nil. A nil sequence
// means nothing was found.
func (p *PathFinder) Find(ctx context.Context, requestIP, destination string) (models.HopSequence, error) {
	requester := net.ParseIP(requestIP)
	if requester == nil {
		return nil, fmt.Errorf("%w: invalid request address %q", ErrUnresolved, requestIP)
	}
	requestIP = requester.String()

	destIP, err := p.resolver.Resolve(ctx, destination)
	if err != nil {
		return nil, err
	}

	var toRequester, toDestination []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hops, err := p.tracer.Trace(gctx, requestIP)
		toRequester = hops
		return err
	})
	g.Go(func() error {
		hops, err := p.tracer.Trace(gctx, destIP)
		toDestination = hops
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	addresses := append(lo.Reverse(toRequester), toDestination...)
	if len(addresses) == 0 {
		return nil, nil
	}

	locations, err := p.locate(ctx, addresses)
	if err != nil {
		return nil, err
	}

	hops := make(models.HopSequence, len(addresses))
	for i, addr := range addresses {
		hops[i] = locations[addr]
	}
	return hops, nil
}

// locate looks up every distinct responding address. Failed lookups and
// (0,0) coordinates are left out of the result.
func (p *PathFinder) locate(ctx context.Context, addresses []string) (map[string]*models.LocationRecord, error) {
	distinct := lo.Uniq(lo.Filter(addresses, func(addr string, _ int) bool {
		return addr != NoResponse
	}))

	var mu sync.Mutex
	locations := make(map[string]*models.LocationRecord, len(distinct))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, addr := range distinct {
		addr := addr
		g.Go(func() error {
			rec, err := p.locator.Locate(gctx, addr)
			if err != nil {
				p.log.Warnw("hop lookup failed", "ip", addr, "error", err)
				return nil
			}
			if !located(rec) {
				return nil
			}
			mu.Lock()
			locations[addr] = rec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("hop lookup interrupted: %w", err)
	}
	return locations, nil
}

func located(rec *models.LocationRecord) bool {
	point, ok := rec.Coordinates()
	return ok && !(point.Lat == 0 && point.Lng == 0)
}
