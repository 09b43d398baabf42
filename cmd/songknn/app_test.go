package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/viant/xtree/config"
	"github.com/viant/xtree/song"
)

const header = "valence,year,acousticness,danceability,duration_ms,energy,explicit,id,instrumentalness,key,liveness,loudness,mode,popularity,release_date,speechiness,tempo,name\n"

func writeDataset(t *testing.T, n int) string {
	rng := rand.New(rand.NewSource(11))
	var sb strings.Builder
	sb.WriteString(header)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%.3f,%d,%.3f,%.3f,%d,%.3f,%d,id%03d,%.3f,%d,%.3f,%.3f,%d,%d,%d,%.3f,%.3f,Song %d, part %d\n",
			rng.Float64(), 1950+i%70, rng.Float64(), rng.Float64(), 100000+rng.Intn(300000), rng.Float64(), rng.Intn(2),
			i, rng.Float64(), rng.Intn(12), rng.Float64(), -rng.Float64()*40, rng.Intn(2), rng.Intn(100), 1950+i%70,
			rng.Float64(), 60+rng.Float64()*150, i, i%3)
	}
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func newTestApp(t *testing.T, dataFile string) (*app, *bytes.Buffer) {
	cfg := config.NewConfig()
	cfg.DataFile = dataFile
	cfg.OverlapThreshold = 0.2
	cfg.Verify = true
	require.NoError(t, cfg.Adjust())

	out := &bytes.Buffer{}
	a, err := newApp(cfg, zap.NewNop(), out)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a, out
}

func TestApp_LoadAndQuery(t *testing.T) {
	re := require.New(t)
	ctx := context.Background()
	a, out := newTestApp(t, writeDataset(t, 300))
	re.NoError(a.load(ctx))
	re.Equal(300, a.index.Len())
	re.Contains(out.String(), "[Index] Duration: ")

	target := a.songs["43"]
	query, hits, err := a.knn(ctx, target.Attributes[:], 5)
	re.NoError(err)
	re.Len(hits, 5)
	re.Equal(target.ID, hits[0].song.ID)
	re.Equal(0.0, hits[0].distance)
	for i := 1; i < len(hits); i++ {
		re.LessOrEqual(hits[i-1].distance, hits[i].distance)
	}
	re.Contains(out.String(), "Verified against linear scan.")

	out.Reset()
	printHits(out, a.normalizer, query, hits)
	re.Contains(out.String(), "| #1 Song 42, part 0")
	re.Contains(out.String(), "Squared distance: 0")

	out.Reset()
	a.printStats()
	re.Contains(out.String(), "Songs:       300")
	re.Contains(out.String(), "Footprint:")

	out.Reset()
	re.NoError(a.runSQL(ctx, fmt.Sprintf(
		"SELECT s.name, k.distance FROM song_knn k, songs s WHERE k.id MATCH '%s' AND k.k = 2 AND s.seq = k.id ORDER BY k.rowid",
		formatVector(query))))
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if !strings.HasPrefix(line, "[SQL] Duration:") {
			lines = append(lines, line)
		}
	}
	re.Len(lines, 3)
	re.Equal("name\tdistance", lines[0])
	re.Equal("Song 42, part 0\t0", lines[1])

	// A second load reuses the catalog instead of re-reading the file.
	re.NoError(a.load(ctx))
	re.Equal(300, a.index.Len())
}

func TestApp_MissingDataFile(t *testing.T) {
	a, _ := newTestApp(t, filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, a.load(context.Background()))
}

func TestParseQuery(t *testing.T) {
	re := require.New(t)
	args := []string{"3", "0.5", "0.1", "0.2", "200000", "0.3", "1", "0.4", "5", "0.5", "-6.5", "0", "50", "0.06", "120"}
	k, raw, err := parseQuery(args)
	re.NoError(err)
	re.Equal(3, k)
	re.Len(raw, song.Dimensions)
	re.Equal(float32(-6.5), raw[9])

	_, _, err = parseQuery(args[:5])
	re.Error(err)
	bad := append([]string(nil), args...)
	bad[0] = "0"
	_, _, err = parseQuery(bad)
	re.Error(err)
	bad[0], bad[4] = "2", "long"
	_, _, err = parseQuery(bad)
	re.Error(err)
	re.Contains(err.Error(), "duration_ms")
}

func TestFormatAttributes(t *testing.T) {
	got := formatAttributes([]float32{0.5, 1, 2, 349977, 0, 0, 0, 11, 0, -6, 1, 76, 0, 120.5})
	require.True(t, strings.HasPrefix(got, "valence=0.5 acousticness=1 danceability=2 duration_ms=349977"))
	require.True(t, strings.HasSuffix(got, "tempo=120.5"))
}
