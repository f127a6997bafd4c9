// parser/parser_test.go
package parser

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/gewnthar/rfiarchive/receivers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testMain  = "rfi_main"
	testDirty = "rfi_dirty"
)

func newTestParser() *Parser {
	return New(Options{
		MandatoryColumns: []models.Field{models.FieldFrequency, models.FieldIntensity},
		MainTable:        testMain,
		DirtyTable:       testDirty,
	}, zap.NewNop())
}

const headeredScan = `# RFI scan of the L-band receiver
#  ----------------------------------
# frontend: Rcvr1_2
# projid: AGBT19A_001
# date: 2019-05-28 12:30:00
# mjd: 58631.520833
# azimuth (deg): 357.0
# exposure (sec): 1.5
# observer notes
#   Window   Channel   Frequency(MHz)   Intensity(Jy)
0 1 1420.0 5.0
0 2 1421.5 NaN

0 3 1420.0 9.0
0 4 1.4220 3.0
0 5 2500.0 1.0
`

func parseString(t *testing.T, p *Parser, path, content string) (*models.FileRecordSet, ScanStats, error) {
	t.Helper()
	return p.ParseAll(strings.NewReader(content), FileMeta{Path: path, ModTime: time.Date(2019, 5, 28, 0, 0, 0, 0, time.UTC)})
}

func TestParser_HeaderedScan(t *testing.T) {
	t.Parallel()

	set, stats, err := parseString(t, newTestParser(), "/archive/scans/scan_a.txt", headeredScan)
	require.NoError(t, err)

	h := set.Header
	assert.Equal(t, "Rcvr1_2", h.Frontend)
	assert.Equal(t, "scan_a.txt", h.Filename)
	assert.Equal(t, "AGBT19A_001", h.ProjID)
	assert.Equal(t, "2019-05-28 12:30:00", h.Date, "only the first colon separates key and value")
	assert.Equal(t, "58631.520833", h.MJD)
	assert.Equal(t, "357.0", h.Azimuth)
	assert.Equal(t, "1.5", h.Exposure)
	assert.Equal(t, models.Missing, h.Tsys)
	assert.Equal(t, []string{"Window", "Channel", "Frequency(MHz)", "Intensity(Jy)"}, h.ColumnNames)

	require.Equal(t, 3, set.Len())
	recs := set.Records()

	assert.InDelta(t, 1420.0, recs[0].FrequencyMHz, 1e-9)
	assert.Equal(t, 2, recs[0].Counts)
	assert.InDelta(t, 5.0, recs[0].IntensityJy, 1e-9, "first occurrence wins")
	assert.Equal(t, "1", recs[0].Channel)
	assert.Equal(t, testMain, recs[0].Database)

	assert.InDelta(t, 1422.0, recs[1].FrequencyMHz, 1e-9, "GHz value is converted")
	assert.Equal(t, testMain, recs[1].Database)

	assert.InDelta(t, 2500.0, recs[2].FrequencyMHz, 1e-9)
	assert.Equal(t, testDirty, recs[2].Database)

	assert.Equal(t, ScanStats{Lines: 5, Dirty: 1, Dropped: 1, Repeats: 1}, stats)
}

func TestParser_ColumnRowAfterTitleLines(t *testing.T) {
	t.Parallel()

	content := "# title one\n# title two\n# Frequency Intensity\n1420.0 1.0\n"
	s, err := newTestParser().Open(strings.NewReader(content), FileMeta{Path: "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Frequency", "Intensity"}, s.Header.ColumnNames)
	require.NotNil(t, s.First)
	assert.InDelta(t, 1420.0, s.First.FrequencyMHz, 1e-9)
}

func TestParser_FirstValidLineIsReadAgain(t *testing.T) {
	t.Parallel()

	content := "# frontend: Rcvr1_2\n# Frequency Intensity\n1419.0 NaN\n1420.0 1.0\n1421.0 2.0\n"
	s, err := newTestParser().Open(strings.NewReader(content), FileMeta{Path: "a.txt"})
	require.NoError(t, err)
	require.NotNil(t, s.First)
	assert.InDelta(t, 1420.0, s.First.FrequencyMHz, 1e-9)

	set, err := s.Records()
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	_, ok := set.Data["1419"]
	assert.False(t, ok)
	_, ok = set.Data["1420"]
	assert.True(t, ok)
}

func TestParser_InvalidColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "three names four values",
			content: "# Window Frequency Intensity\n0 1420.0 1.0 7\n",
			wantMsg: "3 column names but 4 values",
		},
		{
			name:    "unrecognized column",
			content: "# Frequncy Intensity\n1420.0 1.0\n",
			wantMsg: `did you mean "Frequency"?`,
		},
		{
			name:    "mandatory column missing",
			content: "# Frequency Window\n1420.0 1\n",
			wantMsg: "mandatory column Intensity_Jy is missing",
		},
		{
			name:    "bad line after good ones aborts the file",
			content: "# Frequency Intensity\n1420.0 1.0\n1421.0 1.0 3.0\n",
			wantMsg: "2 column names but 3 values",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := parseString(t, newTestParser(), "a.txt", tt.content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidColumnValues))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParser_EmptyScan(t *testing.T) {
	t.Parallel()

	_, _, err := parseString(t, newTestParser(), "a.txt", "# Frequency Intensity\n1420.0 NaN\n\n")
	assert.ErrorIs(t, err, models.ErrEmptyScan)
}

func TestParser_DroppedIntensities(t *testing.T) {
	t.Parallel()

	content := "# frontend: Rcvr1_2\n# Frequency Intensity\n1420.0 1.0\n1421.0 nan\n1422.0 abc\n1423.0 +Inf\n"
	set, stats, err := parseString(t, newTestParser(), "a.txt", content)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 3, stats.Dropped)
	for _, key := range []string{"1421", "1422", "1423"} {
		_, ok := set.Data[key]
		assert.False(t, ok, key)
	}
}

func TestParser_UnreadableFrequencySkipped(t *testing.T) {
	t.Parallel()

	content := "# frontend: Rcvr1_2\n# Frequency Intensity\n1420.0 1.0\nxyz 1.0\n"
	set, stats, err := parseString(t, newTestParser(), "a.txt", content)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 1, stats.Invalid)
}

func TestParser_MissingPerScanColumnsDefault(t *testing.T) {
	t.Parallel()

	set, _, err := parseString(t, newTestParser(), "a.txt", "# frontend: Rcvr1_2\n# Frequency Intensity\n1420.0 1.0\n")
	require.NoError(t, err)
	rec := set.Records()[0]
	assert.Equal(t, models.Missing, rec.Window)
	assert.Equal(t, models.Missing, rec.Channel)
}

func TestParser_UnknownFrontend(t *testing.T) {
	t.Parallel()

	set, _, err := parseString(t, newTestParser(), "a.txt", "# frontend: Rcvr_Mystery\n# Frequency Intensity\n1420.0 1.0\n150000 1.0\n")
	require.NoError(t, err)
	assert.Equal(t, models.UnknownFrontend, set.Header.Frontend)
	recs := set.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, testMain, recs[0].Database)
	assert.Equal(t, testDirty, recs[1].Database)
}

func TestParser_HeaderlessScan(t *testing.T) {
	t.Parallel()

	name := "TRFI_052819_L1_rfiscan1_s0001_f001_Linr_az357_el045.txt"
	set, _, err := parseString(t, newTestParser(), "/scans/"+name, "1420.0 5.0\n1.3 2.0\n")
	require.NoError(t, err)

	h := set.Header
	assert.Equal(t, name, h.Filename)
	assert.Equal(t, "Rcvr1_2", h.Frontend)
	assert.Equal(t, "Linr", h.Polarization)
	assert.Equal(t, "357", h.Azimuth)
	assert.Equal(t, "45", h.Elevation)
	assert.Equal(t, "2019-05-28 00:00:00", h.Date)
	mjd, ok := h.MJDValue()
	require.True(t, ok)
	assert.InDelta(t, 58631.5, mjd, 1e-6, "header-less mjd runs half a day ahead")
	assert.Equal(t, "0", h.UTC)
	assert.Equal(t, models.Missing, h.ProjID)
	assert.Equal(t, models.Missing, h.Feed)
	assert.Equal(t, "Jy", h.Units)
	assert.Equal(t, []string{"Frequency", "Intensity"}, h.ColumnNames)

	require.Equal(t, 2, set.Len())
	assert.InDelta(t, 1300.0, set.Records()[1].FrequencyMHz, 1e-9)
}

func TestParser_HeaderlessShortFilename(t *testing.T) {
	t.Parallel()

	set, _, err := parseString(t, newTestParser(), "scan.txt", "1420.0 5.0\n")
	require.NoError(t, err)
	assert.Equal(t, models.UnknownFrontend, set.Header.Frontend)
	assert.Equal(t, models.Missing, set.Header.Azimuth)
	assert.Equal(t, models.Missing, set.Header.Polarization)
}

func TestParser_CompressedScan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := io.WriteString(zw, "# frontend: Rcvr1_2\n# Frequency Intensity\n1420.0 1.0\n")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, closeFn, err := NewScanReader("scan.txt.gz", &buf)
	require.NoError(t, err)
	defer closeFn()

	set, _, err := newTestParser().ParseAll(r, FileMeta{Path: "dir/scan.txt.gz"})
	require.NoError(t, err)
	assert.Equal(t, "scan.txt", set.Header.Filename)
	assert.Equal(t, 1, set.Len())
}

func TestToMHz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{in: 1.42, want: 1420},
		{in: 244.999, want: 244999},
		{in: 245.0, want: 245.0},
		{in: 1420.0, want: 1420.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ToMHz(tt.in), 1e-6)
	}

	// Already converted values are left alone.
	for _, v := range []float64{300, 1420, 90000} {
		assert.Equal(t, ToMHz(v), ToMHz(ToMHz(v)))
	}
}

func TestValidateFrequency(t *testing.T) {
	t.Parallel()

	table := receivers.Default()
	tests := []struct {
		name     string
		raw      string
		frontend string
		want     float64
		wantErr  error
	}{
		{name: "inside band", raw: "1420.0", frontend: "Rcvr1_2", want: 1420},
		{name: "inside lower buffer", raw: "1092.01", frontend: "Rcvr1_2", want: 1092.01},
		{name: "inside upper buffer", raw: "1787.99", frontend: "Rcvr1_2", want: 1787.99},
		{name: "just below buffer", raw: "1091.99", frontend: "Rcvr1_2", want: 1091.99, wantErr: models.ErrFreqOutsideRcvrBounds},
		{name: "just above buffer", raw: "1788.01", frontend: "Rcvr1_2", want: 1788.01, wantErr: models.ErrFreqOutsideRcvrBounds},
		{name: "GHz inside band", raw: "1.5", frontend: "Rcvr1_2", want: 1500},
		{name: "unknown receiver exact lower bound", raw: "290", frontend: models.UnknownFrontend, want: 290},
		{name: "unknown receiver has no buffer", raw: "289.9", frontend: models.UnknownFrontend, want: 289.9, wantErr: models.ErrFreqOutsideRcvrBounds},
		{name: "unreadable", raw: "1420.0.1", frontend: "Rcvr1_2", wantErr: errInvalidFrequency},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateFrequency(tt.raw, tt.frontend, table)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLocalSiderealHours(t *testing.T) {
	t.Parallel()

	// Greenwich mean sidereal time at J2000.0 is 18h41m50.55s.
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.InDelta(t, 18.697374558, LocalSiderealHours(j2000, 0), 1e-4)

	lst := LocalSiderealHours(j2000, GBTLongitude)
	assert.GreaterOrEqual(t, lst, 0.0)
	assert.Less(t, lst, 24.0)
	assert.InDelta(t, 18.697374558+GBTLongitude/15, lst, 1e-4)
}

func TestModifiedJulianDate(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 51544.5, ModifiedJulianDate(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)), 1e-6)
	assert.InDelta(t, 58631.0, ModifiedJulianDate(time.Date(2019, 5, 28, 0, 0, 0, 0, time.UTC)), 1e-6)
}

func TestLineKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "accepted", LineAccepted.String())
	assert.Equal(t, "dirty", LineDirty.String())
	assert.Equal(t, "dropped", LineDropped.String())
	assert.Equal(t, "invalid", LineInvalid.String())
	assert.Equal(t, "unknown", LineKind(42).String())
}
