package transit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"uagis.dev/transit/downloader"
	"uagis.dev/transit/model"
	"uagis.dev/transit/parse"
	"uagis.dev/transit/storage"
)

const (
	DefaultFetchTimeout = 60 * time.Second
	DefaultFetchMaxSize = 800 << 20 // 800 MB
	DefaultBatchSize    = 1000
)

// Refresher performs one full feed refresh: download the archive,
// decode every member, and replace the store's collections. It is
// safe to call Refresh repeatedly; each run replaces the previous
// data set.
type Refresher struct {
	URL       string
	Headers   map[string]string
	Timeout   time.Duration
	MaxSize   int
	BatchSize int

	Downloader downloader.Downloader
	TimeNow    func() time.Time

	store  storage.Store
	logger *slog.Logger
}

func NewRefresher(store storage.Store, logger *slog.Logger, url string) *Refresher {
	return &Refresher{
		URL:       url,
		Timeout:   DefaultFetchTimeout,
		MaxSize:   DefaultFetchMaxSize,
		BatchSize: DefaultBatchSize,

		Downloader: downloader.NewMemoryDownloader(),
		TimeNow:    time.Now,

		store:  store,
		logger: logger,
	}
}

// Refresh runs one full refresh cycle. On success the refresh
// metadata record gets a fresh success timestamp and true is
// returned. On any failure the error is logged, recorded in the
// metadata record, and false is returned; it never panics, so a
// scheduler can call it in a loop.
func (r *Refresher) Refresh(ctx context.Context) bool {
	start := r.TimeNow()

	err := r.refresh(ctx)
	if err != nil {
		r.logger.Error("feed refresh failed", "url", r.URL, "error", err)
		r.recordError(err)
		return false
	}

	now := r.TimeNow().UTC()
	err = r.store.WriteRefreshStatus(ctx, &model.RefreshStatus{LastSuccess: now})
	if err != nil {
		r.logger.Error("recording refresh success failed", "error", err)
		return false
	}

	r.logger.Info("feed refresh complete", "url", r.URL, "duration", r.TimeNow().Sub(start))
	return true
}

func (r *Refresher) refresh(ctx context.Context) error {
	body, err := r.Downloader.Get(ctx, r.URL, r.Headers, downloader.GetOptions{
		Timeout: r.Timeout,
		MaxSize: r.MaxSize,
	})
	if err != nil {
		return fmt.Errorf("fetching feed: %w", err)
	}

	feed, err := parse.OpenFeed(body)
	if err != nil {
		return fmt.Errorf("opening feed: %w", err)
	}

	err = r.loadCollection(ctx, feed, parse.CalendarFile, storage.Calendar,
		func(data []byte, b *batcher) (int, error) {
			return parse.DecodeCalendar(r.logger, data, func(c *model.Calendar) error {
				return b.add(c)
			})
		})
	if err != nil {
		return err
	}

	err = r.loadCollection(ctx, feed, parse.CalendarDatesFile, storage.CalendarDates,
		func(data []byte, b *batcher) (int, error) {
			return parse.DecodeCalendarDates(r.logger, data, func(cd *model.CalendarDate) error {
				return b.add(cd)
			})
		})
	if err != nil {
		return err
	}

	err = r.loadCollection(ctx, feed, parse.StopsFile, storage.Stops,
		func(data []byte, b *batcher) (int, error) {
			return parse.DecodeStops(r.logger, data, func(s *model.Stop) error {
				return b.add(s)
			})
		})
	if err != nil {
		return err
	}

	err = r.loadCollection(ctx, feed, parse.ShapesFile, storage.Shapes,
		func(data []byte, b *batcher) (int, error) {
			return parse.DecodeShapes(r.logger, data, func(s *model.Shape) error {
				return b.add(s)
			})
		})
	if err != nil {
		return err
	}

	err = r.loadRoutesTrips(ctx, feed)
	if err != nil {
		return err
	}

	err = r.loadCollection(ctx, feed, parse.StopTimesFile, storage.StopTimes,
		func(data []byte, b *batcher) (int, error) {
			return parse.DecodeStopTimes(r.logger, data, func(st *model.StopTime) error {
				return b.add(st)
			})
		})
	if err != nil {
		return err
	}

	return nil
}

// loadCollection replaces one collection from one archive member:
// delete everything, decode and write in batches, then rebuild
// indexes. A decode error aborts the refresh; index failures are
// logged and tolerated.
func (r *Refresher) loadCollection(
	ctx context.Context,
	feed *parse.Feed,
	member string,
	c storage.Collection,
	decode func(data []byte, b *batcher) (int, error),
) error {

	data, err := feed.Open(member)
	if err != nil {
		return errors.Wrapf(err, "opening %s", member)
	}

	deleted, err := r.store.DeleteAll(ctx, c)
	if err != nil {
		return errors.Wrapf(err, "clearing %s", c)
	}

	b := r.newBatcher(ctx, c)
	skipped, err := decode(data, b)
	if err != nil {
		return errors.Wrapf(err, "loading %s", c)
	}
	if err := b.flush(); err != nil {
		return err
	}

	r.ensureIndexes(ctx, c)

	r.logger.Info("collection loaded",
		"collection", c, "deleted", deleted,
		"written", b.written, "skipped", skipped,
		"failed_batches", b.failedBatches)
	return nil
}

// loadRoutesTrips replaces trips and routes together. Both come from
// one decoding pass so trip shape IDs can be folded into their
// routes.
func (r *Refresher) loadRoutesTrips(ctx context.Context, feed *parse.Feed) error {
	routesData, err := feed.Open(parse.RoutesFile)
	if err != nil {
		return errors.Wrapf(err, "opening %s", parse.RoutesFile)
	}
	tripsData, err := feed.Open(parse.TripsFile)
	if err != nil {
		return errors.Wrapf(err, "opening %s", parse.TripsFile)
	}

	for _, c := range []storage.Collection{storage.Trips, storage.Routes} {
		if _, err := r.store.DeleteAll(ctx, c); err != nil {
			return errors.Wrapf(err, "clearing %s", c)
		}
	}

	tripBatch := r.newBatcher(ctx, storage.Trips)
	routeBatch := r.newBatcher(ctx, storage.Routes)

	skipped, err := parse.DecodeRoutesTrips(r.logger, routesData, tripsData,
		func(t *model.Trip) error { return tripBatch.add(t) },
		func(rt *model.Route) error { return routeBatch.add(rt) })
	if err != nil {
		return errors.Wrap(err, "loading trips and routes")
	}

	if err := tripBatch.flush(); err != nil {
		return err
	}
	if err := routeBatch.flush(); err != nil {
		return err
	}

	r.ensureIndexes(ctx, storage.Trips)
	r.ensureIndexes(ctx, storage.Routes)

	r.logger.Info("collections loaded",
		"collections", "trips,routes",
		"trips_written", tripBatch.written,
		"routes_written", routeBatch.written,
		"skipped", skipped)
	return nil
}

func (r *Refresher) ensureIndexes(ctx context.Context, c storage.Collection) {
	if err := r.store.EnsureIndexes(ctx, c); err != nil {
		r.logger.Warn("index creation failed", "collection", c, "error", err)
	}
}

// recordError persists a failure record. The parent context may
// already be canceled, so the write gets its own short deadline.
func (r *Refresher) recordError(refreshErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.store.WriteRefreshStatus(ctx, &model.RefreshStatus{
		LastErrorAt:  r.TimeNow().UTC(),
		LastErrorMsg: refreshErr.Error(),
	})
	if err != nil {
		r.logger.Error("recording refresh failure failed", "error", err)
	}
}

func (r *Refresher) newBatcher(ctx context.Context, c storage.Collection) *batcher {
	return &batcher{
		ctx:        ctx,
		store:      r.store,
		collection: c,
		logger:     r.logger,
		size:       r.BatchSize,
	}
}

// batcher buffers documents and writes them in fixed-size batches. A
// failed batch is logged and dropped; later batches still go through.
type batcher struct {
	ctx        context.Context
	store      storage.Writer
	collection storage.Collection
	logger     *slog.Logger
	size       int

	buf           []storage.Document
	written       int
	failedBatches int
}

func (b *batcher) add(doc storage.Document) error {
	b.buf = append(b.buf, doc)
	if len(b.buf) >= b.size {
		return b.flush()
	}
	return nil
}

func (b *batcher) flush() error {
	if len(b.buf) == 0 {
		return nil
	}
	if err := b.ctx.Err(); err != nil {
		return err
	}

	n, err := b.store.BulkUpsert(b.ctx, b.collection, b.buf)
	b.written += n
	if err != nil {
		b.failedBatches++
		b.logger.Error("batch write failed",
			"collection", b.collection, "batch_size", len(b.buf),
			"written_so_far", b.written, "error", err)
	}

	b.buf = b.buf[:0]
	return nil
}
