package song

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataset = `valence,year,acousticness,danceability,duration_ms,energy,explicit,id,instrumentalness,key,liveness,loudness,mode,popularity,release_date,speechiness,tempo,name
0.0594,1921,0.982,0.279,831667,0.211,0,4BJqT0PrAfrxzMOxytFOIz,0.878,10,0.665,-20.096,1,4,1921,0.0366,80.954,Piano Concerto No. 3 in D Minor
0.963,1921,0.732,0.819,180533,0.341,0,7xPhfUan2yNtyFG0cUWkt8,0,7,0.16,-12.441,1,5,1921,0.415,60.936,Clancy Lowered the Boom

0.5,1999,0.1,0.2,200000,0.3,1,abc,0.4,5,0.5,-6,0,50,1999-01-01,0.06,120,Hello, World, Again
0.4,2001,0.1,0.2,210000,0.3,0,def,0.4,5,0.5,-6,0,50,2001,0.06,120,"Quoted, Name"
`

func TestReader_ReadAll(t *testing.T) {
	songs, err := NewReader(strings.NewReader(dataset)).ReadAll()
	require.NoError(t, err)
	require.Len(t, songs, 4)

	first := songs[0]
	assert.Equal(t, "4BJqT0PrAfrxzMOxytFOIz", first.ID)
	assert.Equal(t, 1921, first.Year)
	assert.Equal(t, "1921", first.ReleaseDate)
	assert.Equal(t, "Piano Concerto No. 3 in D Minor", first.Name)
	assert.Equal(t, [Dimensions]float32{0.0594, 0.982, 0.279, 831667, 0.211, 0, 0.878, 10, 0.665, -20.096, 1, 4, 0.0366, 80.954}, first.Attributes)

	assert.Equal(t, "Hello, World, Again", songs[2].Name, "unquoted commas stay in the name")
	assert.Equal(t, "1999-01-01", songs[2].ReleaseDate)
	assert.Equal(t, "Quoted, Name", songs[3].Name)
}

func TestReader_Errors(t *testing.T) {
	header := "valence,year,acousticness,danceability,duration_ms,energy,explicit,id,instrumentalness,key,liveness,loudness,mode,popularity,release_date,speechiness,tempo,name\n"

	_, err := NewReader(strings.NewReader(header + "0.1,1921,0.2\n")).Read()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortRecord))
	assert.Contains(t, err.Error(), "line 2")

	_, err = NewReader(strings.NewReader(header + "0.1,1921,0.2,x,1,1,0,id,0,1,0,-5,1,1,1921,0,100,Name\n")).Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "danceability")

	_, err = NewReader(strings.NewReader(header)).Read()
	assert.True(t, errors.Is(err, io.EOF))

	_, err = NewReader(strings.NewReader("")).Read()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestNormalizer(t *testing.T) {
	raw := []float32{0.5, 0.1, 0.2, 349977, 0.3, 1, 0.4, 11, 0.5, 3.85, 0, 76, 0.06, 221.741}
	v, err := DefaultNormalizer.Normalize(raw)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v[3], 1e-6)
	assert.InDelta(t, 1.0, v[7], 1e-6)
	assert.InDelta(t, 1.0, v[9], 1e-6, "loudness is shifted by 60 before scaling")
	assert.InDelta(t, 1.0, v[11], 1e-6)
	assert.InDelta(t, 1.0, v[13], 1e-6)
	assert.Equal(t, float32(0.5), v[0])

	back, err := DefaultNormalizer.Denormalize(v)
	require.NoError(t, err)
	assert.InDeltaSlice(t, raw, back, 1e-3)

	_, err = DefaultNormalizer.Normalize(raw[:3])
	assert.Error(t, err)
	_, err = DefaultNormalizer.Denormalize(nil)
	assert.Error(t, err)

	s := &Song{}
	copy(s.Attributes[:], raw)
	assert.Equal(t, v, s.Vector(DefaultNormalizer))
}
