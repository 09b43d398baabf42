package main

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/viant/vec/search"

	"github.com/viant/xtree/song"
)

const rule = "--------------------------------------------------------------------------------"

// parseQuery reads k followed by the raw attribute values.
func parseQuery(args []string) (int, []float32, error) {
	if len(args) != song.Dimensions+1 {
		return 0, nil, errors.Errorf("expected k and %d attribute values, got %d values", song.Dimensions, len(args))
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, nil, errors.Annotatef(err, "invalid k %q", args[0])
	}
	if k <= 0 {
		return 0, nil, errors.Errorf("k must be positive, got %d", k)
	}
	raw := make([]float32, song.Dimensions)
	for i, arg := range args[1:] {
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return 0, nil, errors.Annotatef(err, "invalid %s %q", song.AttributeNames[i], arg)
		}
		raw[i] = float32(v)
	}
	return k, raw, nil
}

func printHits(w io.Writer, normalizer song.Normalizer, query []float32, hits []hit) {
	fmt.Fprintln(w, rule)
	for i, h := range hits {
		fmt.Fprintf(w, "| #%d %s\n", i+1, h.song.Name)
		fmt.Fprintf(w, "|\tId: %s  Year: %d  Released: %s\n", h.song.ID, h.song.Year, h.song.ReleaseDate)
		fmt.Fprintf(w, "|\tSquared distance: %g\n", h.distance)
		fmt.Fprintf(w, "|\tDistance: %g\n", search.Float32s(query).EuclideanDistance(h.vector))
		values, _ := normalizer.Denormalize(h.vector)
		fmt.Fprintf(w, "|\t%s\n", formatAttributes(values))
		fmt.Fprintln(w, rule)
	}
	if len(hits) == 0 {
		fmt.Fprintln(w, "| no songs indexed")
		fmt.Fprintln(w, rule)
	}
}

func formatAttributes(values []float32) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = song.AttributeNames[i] + "=" + strconv.FormatFloat(float64(v), 'g', 6, 32)
	}
	return strings.Join(parts, " ")
}

func (a *app) printPrompt() {
	fmt.Fprintln(a.out, "[[ Query k Nearest Neighbors (kNN) ]]")
	fmt.Fprintf(a.out, ">> k followed by %d values: %s\n", song.Dimensions, strings.Join(song.AttributeNames[:], " "))
}

func (a *app) printError(err error) {
	fmt.Fprintf(a.out, "error: %v\n", err)
}

// formatVector renders v as a JSON array accepted by the knn table's MATCH.
func formatVector(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func printRows(w io.Writer, rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			switch val := v.(type) {
			case []byte:
				cells[i] = fmt.Sprintf("x'%x'", val)
			case nil:
				cells[i] = "NULL"
			default:
				cells[i] = fmt.Sprint(val)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return rows.Err()
}
