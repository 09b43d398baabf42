package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	units "github.com/docker/go-units"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/viant/xtree/catalog"
	"github.com/viant/xtree/config"
	"github.com/viant/xtree/engine"
	"github.com/viant/xtree/index/xtree"
	"github.com/viant/xtree/metrics"
	"github.com/viant/xtree/song"
	"github.com/viant/xtree/vec"
)

const (
	knnIndexName = "songs"
	knnTable     = "song_knn"
)

// app holds the catalog and the in-memory index built from it.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	out        io.Writer
	normalizer song.Normalizer

	db     *sql.DB
	store  *catalog.SQLiteStore
	songs  map[string]*song.Song
	index  *xtree.Index
	status *http.Server
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	lg, p, err := log.InitLogger(&cfg.Log)
	if err != nil {
		return nil, errors.Annotate(err, "init logger")
	}
	log.ReplaceGlobals(lg, p)
	for _, msg := range cfg.WarningMsgs {
		lg.Warn(msg)
	}
	return lg, nil
}

func newApp(cfg *config.Config, logger *zap.Logger, out io.Writer) (*app, error) {
	db, err := engine.OpenWithFunctions(cfg.DB)
	if err != nil {
		return nil, errors.Annotatef(err, "open catalog %s", cfg.DB)
	}
	if err := vec.Register(db); err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "register knn module")
	}
	store, err := catalog.NewSQLiteStore(db, song.DefaultNormalizer)
	if err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "init catalog")
	}
	a := &app{
		cfg:        cfg,
		logger:     logger,
		out:        out,
		normalizer: song.DefaultNormalizer,
		db:         db,
		store:      store,
	}
	if cfg.StatusAddr != "" {
		a.serveStatus()
	}
	return a, nil
}

func (a *app) serveStatus() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.status = &http.Server{Addr: a.cfg.StatusAddr, Handler: mux}
	go func() {
		if err := a.status.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("status server stopped", zap.String("addr", a.cfg.StatusAddr), zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", a.cfg.StatusAddr))
}

func (a *app) close() {
	if a.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = a.status.Shutdown(ctx)
		cancel()
	}
	vec.Unbind(knnIndexName)
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close catalog", zap.Error(err))
	}
}

// load fills an empty catalog from the data file, then builds the index from
// the catalog.
func (a *app) load(ctx context.Context) error {
	n, err := a.store.Count(ctx)
	if err != nil {
		return errors.Annotate(err, "count songs")
	}
	if n == 0 {
		if err := a.ingest(ctx); err != nil {
			return err
		}
	} else {
		a.logger.Info("reusing catalog", zap.String("db", a.cfg.DB), zap.Int("songs", n))
	}
	return a.build(ctx)
}

func (a *app) ingest(ctx context.Context) error {
	f, err := os.Open(a.cfg.DataFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	fmt.Fprintf(a.out, "[[ Reading %s ]]\n", a.cfg.DataFile)
	var songs []*song.Song
	err = a.timed("Read", func() error {
		songs, err = song.NewReader(f).ReadAll()
		return err
	})
	if err != nil {
		return errors.Annotatef(err, "read %s", a.cfg.DataFile)
	}
	if err := a.store.AddSongs(ctx, songs); err != nil {
		return errors.Annotate(err, "store songs")
	}
	a.logger.Info("catalog loaded", zap.String("file", a.cfg.DataFile), zap.Int("songs", len(songs)))
	return nil
}

func (a *app) build(ctx context.Context) error {
	var (
		ids  []string
		vecs [][]float32
	)
	a.songs = make(map[string]*song.Song)
	err := a.store.Songs(ctx, func(seq int64, s *song.Song, vector []float32) error {
		id := strconv.FormatInt(seq, 10)
		ids = append(ids, id)
		vecs = append(vecs, vector)
		a.songs[id] = s
		return nil
	})
	if err != nil {
		return errors.Annotate(err, "scan catalog")
	}

	a.index = xtree.New(
		xtree.WithMaxEntries(a.cfg.MaxEntries),
		xtree.WithMinEntries(a.cfg.MinEntries),
		xtree.WithMaxSupernode(a.cfg.MaxSupernode),
		xtree.WithOverlapThreshold(a.cfg.OverlapThreshold),
		xtree.WithQueryParallelism(a.cfg.QueryParallelism),
		xtree.WithLogger(a.logger),
	)
	fmt.Fprintln(a.out, "[[ Indexing data... ]]")
	start := time.Now()
	err = a.timed("Index", func() error { return a.index.Build(ids, vecs) })
	if err != nil {
		return errors.Annotate(err, "build index")
	}
	metrics.ObserveBuild(time.Since(start))
	stats := a.index.Stats()
	metrics.ObserveTree(stats)
	vec.Bind(knnIndexName, a.index)
	if _, err := a.db.ExecContext(ctx, `CREATE VIRTUAL TABLE IF NOT EXISTS `+knnTable+` USING `+vec.ModuleName+`(`+knnIndexName+`)`); err != nil {
		return errors.Annotate(err, "create knn table")
	}
	a.logger.Info("index built",
		zap.Int("items", stats.Items),
		zap.Int("nodes", stats.Nodes),
		zap.Int("supernodes", stats.Supernodes),
		zap.Int("height", stats.Height))
	return nil
}

// hit is a resolved kNN result.
type hit struct {
	song     *song.Song
	vector   []float32
	distance float64
}

// knn normalises raw attribute values and answers the query nearest first.
func (a *app) knn(ctx context.Context, raw []float32, k int) ([]float32, []hit, error) {
	query, err := a.normalizer.Normalize(raw)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	var (
		ids   []string
		dists []float64
	)
	start := time.Now()
	err = a.timed("Query kNN", func() error {
		ids, dists, err = a.index.QueryContext(ctx, query, k)
		return err
	})
	if err != nil {
		return nil, nil, errors.Annotate(err, "query")
	}
	metrics.ObserveQuery(time.Since(start))

	hits := make([]hit, len(ids))
	for i, id := range ids {
		hits[i] = hit{song: a.songs[id], distance: dists[i]}
		hits[i].vector = hits[i].song.Vector(a.normalizer)
	}
	if a.cfg.Verify {
		if err := a.verify(ctx, query, k, hits); err != nil {
			return nil, nil, err
		}
	}
	return query, hits, nil
}

// verify compares the index answer with the catalog's SQL linear scan. Ties
// may resolve to different songs, so only the distances are compared.
func (a *app) verify(ctx context.Context, query []float32, k int, hits []hit) error {
	matches, err := a.store.Nearest(ctx, query, k)
	if err != nil {
		return errors.Annotate(err, "verify")
	}
	ok := len(matches) == len(hits)
	for i := 0; ok && i < len(hits); i++ {
		ok = matches[i].Distance == hits[i].distance
	}
	metrics.ObserveVerify(ok)
	if !ok {
		a.logger.Error("index answer differs from linear scan", zap.Int("k", k), zap.Int("index", len(hits)), zap.Int("scan", len(matches)))
		return errors.Errorf("verification failed for k=%d", k)
	}
	fmt.Fprintln(a.out, "Verified against linear scan.")
	return nil
}

// runSQL executes a statement against the catalog, where the song_knn table
// answers kNN queries from the in-memory index.
func (a *app) runSQL(ctx context.Context, stmt string, args ...any) error {
	var rows *sql.Rows
	err := a.timed("SQL", func() error {
		var err error
		rows, err = a.db.QueryContext(ctx, stmt, args...)
		return err
	})
	if err != nil {
		return errors.Annotate(err, "query")
	}
	defer rows.Close()
	return errors.WithStack(printRows(a.out, rows))
}

func (a *app) timed(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	fmt.Fprintf(a.out, "[%s] Duration: %d ns\n", name, d.Nanoseconds())
	a.logger.Debug("timed", zap.String("operation", name), zap.Duration("duration", d))
	return err
}

func (a *app) printStats() {
	s := a.index.Stats()
	fmt.Fprintf(a.out, "Songs:       %d\n", s.Items)
	fmt.Fprintf(a.out, "Nodes:       %d (%d leaves, %d supernodes)\n", s.Nodes, s.Leaves, s.Supernodes)
	fmt.Fprintf(a.out, "Height:      %d\n", s.Height)
	fmt.Fprintf(a.out, "Splits:      %d (%d supernode extensions)\n", s.Splits, s.Extensions)
	fmt.Fprintf(a.out, "Max fanout:  %d\n", s.MaxFanout)
	fmt.Fprintf(a.out, "Footprint:   %s\n", units.HumanSize(float64(s.ApproxBytes)))
}
