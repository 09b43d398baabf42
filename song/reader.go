package song

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dataset columns, in file order. Every column after nameColumn belongs to
// the song name.
const (
	colValence = iota
	colYear
	colAcousticness
	colDanceability
	colDuration
	colEnergy
	colExplicit
	colID
	colInstrumentalness
	colKey
	colLiveness
	colLoudness
	colMode
	colPopularity
	colReleaseDate
	colSpeechiness
	colTempo
	nameColumn
)

// attributeColumns maps each attribute to its dataset column.
var attributeColumns = [Dimensions]int{
	colValence, colAcousticness, colDanceability, colDuration, colEnergy,
	colExplicit, colInstrumentalness, colKey, colLiveness, colLoudness,
	colMode, colPopularity, colSpeechiness, colTempo,
}

// ErrShortRecord is returned for a record with fewer columns than the dataset layout requires.
var ErrShortRecord = errors.New("song: short record")

// Reader reads songs from a comma-separated dataset with a header line.
type Reader struct {
	r      *csv.Reader
	header bool
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return &Reader{r: cr}
}

// Read returns the next song, or io.EOF when the input is exhausted.
func (r *Reader) Read() (*Song, error) {
	if !r.header {
		if _, err := r.r.Read(); err != nil {
			return nil, err
		}
		r.header = true
	}
	record, err := r.r.Read()
	if err != nil {
		return nil, err
	}
	line, _ := r.r.FieldPos(0)
	s, err := parseRecord(record)
	if err != nil {
		return nil, fmt.Errorf("song: line %d: %w", line, err)
	}
	return s, nil
}

// ReadAll reads every remaining song.
func (r *Reader) ReadAll() ([]*Song, error) {
	var songs []*Song
	for {
		s, err := r.Read()
		if errors.Is(err, io.EOF) {
			return songs, nil
		}
		if err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
}

func parseRecord(record []string) (*Song, error) {
	if len(record) < nameColumn {
		return nil, fmt.Errorf("%w: %d columns", ErrShortRecord, len(record))
	}
	s := &Song{}
	for i, col := range attributeColumns {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 32)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", AttributeNames[i], err)
		}
		s.Attributes[i] = float32(v)
	}
	year, err := strconv.Atoi(strings.TrimSpace(record[colYear]))
	if err != nil {
		return nil, fmt.Errorf("year: %w", err)
	}
	s.Year = year
	s.ID = strings.TrimSpace(record[colID])
	s.ReleaseDate = strings.TrimSpace(record[colReleaseDate])
	s.Name = strings.Join(record[nameColumn:], ",")
	return s, nil
}
