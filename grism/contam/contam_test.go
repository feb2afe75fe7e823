package contam_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-grism/grism/contam"
	"github.com/cwbudde/algo-grism/grism/core"
	"github.com/cwbudde/algo-grism/grism/disperse"
	"github.com/cwbudde/algo-grism/grism/observe"
	"github.com/cwbudde/algo-grism/grism/sens"
	"github.com/cwbudde/algo-grism/internal/testutil"
)

const testFilter = "GR150C"

// fixture builds a 64x32 detector with two single-pixel sources, order 1
// over [1, 2] with flat unit response, dispersed horizontally by 10
// pixels per wavelength unit (columns offset+0.5 .. offset+9.5 rounded).
type fixture struct {
	obs   *observe.Observation
	table *sens.Table
}

func newFixture(t *testing.T, flux1, flux2 float64) fixture {
	t.Helper()
	m, err := disperse.NewModel(disperse.Config{Width: 64, Height: 32, Samples: 10})
	require.NoError(t, err)

	s1, err := disperse.NewSource(1, testutil.PointTemplate(flux1))
	require.NoError(t, err)
	s2, err := disperse.NewSource(2, testutil.PointTemplate(flux2))
	require.NoError(t, err)

	obs, err := observe.New([]disperse.Source{s1, s2}, observe.Config{
		Model:     m,
		Transform: testutil.ShiftTransform(1, 10),
	})
	require.NoError(t, err)

	table := sens.NewTable()
	require.NoError(t, table.Add(testFilter, 1, sens.Range{WMin: 1, WMax: 2}, testutil.FlatCurve(1, 2, 1)))

	return fixture{obs: obs, table: table}
}

func slitAt(id int, win core.Window, data *core.Frame) contam.Slit {
	return contam.Slit{
		SourceID:      id,
		Name:          "slit",
		SourceType:    "POINT",
		SpectralOrder: 1,
		Window:        win,
		Data:          data,
	}
}

func TestCorrectNonOverlappingSources(t *testing.T) {
	f := newFixture(t, 2.0, 3.0)

	data1 := testutil.BoxTemplate(16, 2, 1.0)
	data2 := testutil.BoxTemplate(16, 2, 4.0)
	slits := []contam.Slit{
		slitAt(1, core.Window{XStart: 4, YStart: 8, XSize: 16, YSize: 2}, data1),
		slitAt(2, core.Window{XStart: 4, YStart: 20, XSize: 16, YSize: 2}, data2),
	}

	res, err := contam.Correct(context.Background(), slits, f.obs, f.table, testFilter)
	require.NoError(t, err)
	assert.Equal(t, contam.StatusComplete, res.Status)

	// Composite carries both sources' full flux in two separate rows.
	assert.InDelta(t, 5.0, res.Simulated.Sum(), 1e-12)
	row8, err := res.Simulated.Cutout(core.Window{XStart: 0, YStart: 8, XSize: 64, YSize: 1})
	require.NoError(t, err)
	row20, err := res.Simulated.Cutout(core.Window{XStart: 0, YStart: 20, XSize: 64, YSize: 1})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, row8.Sum(), 1e-12)
	assert.InDelta(t, 3.0, row20.Sum(), 1e-12)

	// Windows do not overlap: zero contamination, corrected data equals
	// the original input.
	require.Len(t, res.Estimates, 2)
	require.Len(t, res.Corrected, 2)
	for i := range res.Estimates {
		testutil.RequireFrameZero(t, res.Estimates[i].Data, 0)
		testutil.RequireFrameNearlyEqual(t, res.Corrected[i].Data, slits[i].Data, 0)
	}
}

func TestCorrectOverlappingSources(t *testing.T) {
	f := newFixture(t, 2.0, 3.0)

	// Both sources disperse on row 8; their windows share columns 8..19.
	win1 := core.Window{XStart: 4, YStart: 8, XSize: 16, YSize: 2}
	win2 := core.Window{XStart: 8, YStart: 8, XSize: 16, YSize: 2}
	data1 := testutil.BoxTemplate(16, 2, 10.0)
	data2 := testutil.BoxTemplate(16, 2, 10.0)
	slits := []contam.Slit{
		slitAt(1, win1, data1),
		slitAt(2, win2, data2),
	}

	res, err := contam.Correct(context.Background(), slits, f.obs, f.table, testFilter)
	require.NoError(t, err)

	// Source 2 disperses to columns 9..18 carrying 0.3 per pixel; inside
	// window 1 (columns 4..19, local x = col-4) the estimate for source 1
	// is exactly that flux and nothing else.
	est1 := res.Estimates[0].Data
	for x := 0; x < 16; x++ {
		col := 4 + x
		want := 0.0
		if col >= 9 && col <= 18 {
			want = 0.3
		}
		assert.InDelta(t, want, est1.At(x, 0), 1e-12, "estimate 1 col %d", col)
		assert.InDelta(t, 0.0, est1.At(x, 1), 1e-12, "estimate 1 row 1 col %d", col)
	}

	// Source 1 disperses to columns 5..14 carrying 0.2 per pixel; inside
	// window 2 (columns 8..23) only columns 8..14 are contaminated.
	est2 := res.Estimates[1].Data
	for x := 0; x < 16; x++ {
		col := 8 + x
		want := 0.0
		if col >= 8 && col <= 14 {
			want = 0.2
		}
		assert.InDelta(t, want, est2.At(x, 0), 1e-12, "estimate 2 col %d", col)
	}

	// Corrected data is the observed data minus the same estimate the
	// caller received.
	for i := range slits {
		want := slits[i].Data.Clone()
		want.Sub(res.Estimates[i].Data)
		testutil.RequireFrameNearlyEqual(t, res.Corrected[i].Data, want, 0)
	}
}

func TestCorrectDoesNotMutateInput(t *testing.T) {
	f := newFixture(t, 2.0, 3.0)
	data := testutil.BoxTemplate(16, 2, 10.0)
	orig := data.Clone()
	slits := []contam.Slit{
		slitAt(1, core.Window{XStart: 4, YStart: 8, XSize: 16, YSize: 2}, data),
		slitAt(2, core.Window{XStart: 8, YStart: 8, XSize: 16, YSize: 2}, testutil.BoxTemplate(16, 2, 10.0)),
	}

	_, err := contam.Correct(context.Background(), slits, f.obs, f.table, testFilter)
	require.NoError(t, err)
	testutil.RequireFrameNearlyEqual(t, data, orig, 0)
}

func TestCorrectIdempotentAcrossRuns(t *testing.T) {
	f := newFixture(t, 2.0, 3.0)
	slits := []contam.Slit{
		slitAt(1, core.Window{XStart: 4, YStart: 8, XSize: 16, YSize: 2}, testutil.BoxTemplate(16, 2, 10.0)),
		slitAt(2, core.Window{XStart: 8, YStart: 8, XSize: 16, YSize: 2}, testutil.BoxTemplate(16, 2, 10.0)),
	}

	first, err := contam.Correct(context.Background(), slits, f.obs, f.table, testFilter)
	require.NoError(t, err)
	second, err := contam.Correct(context.Background(), slits, f.obs, f.table, testFilter)
	require.NoError(t, err)

	// Inputs are never mutated, so a repeated run subtracts once, not
	// twice.
	for i := range first.Corrected {
		diff, err := testutil.MaxAbsDiff(first.Corrected[i].Data, second.Corrected[i].Data)
		require.NoError(t, err)
		assert.Zero(t, diff)
	}
}

func TestCorrectWindowBounds(t *testing.T) {
	m, err := disperse.NewModel(disperse.Config{Width: 32, Height: 16, Samples: 10})
	require.NoError(t, err)
	src, err := disperse.NewSource(1, testutil.PointTemplate(1.0))
	require.NoError(t, err)
	obs, err := observe.New([]disperse.Source{src}, observe.Config{
		Model:     m,
		Transform: testutil.ShiftTransform(1, 10),
	})
	require.NoError(t, err)
	table := sens.NewTable()
	require.NoError(t, table.Add(testFilter, 1, sens.Range{WMin: 1, WMax: 2}, testutil.FlatCurve(1, 2, 1)))

	// A window covering the full frame is legal.
	full := []contam.Slit{slitAt(1, core.Window{XStart: 0, YStart: 0, XSize: 32, YSize: 16}, core.NewFrame(32, 16))}
	_, err = contam.Correct(context.Background(), full, obs, table, testFilter)
	require.NoError(t, err)

	// One pixel past the edge is a fatal bounds violation.
	past := []contam.Slit{slitAt(1, core.Window{XStart: 1, YStart: 0, XSize: 32, YSize: 16}, core.NewFrame(32, 16))}
	_, err = contam.Correct(context.Background(), past, obs, table, testFilter)
	assert.ErrorIs(t, err, core.ErrWindowOutOfBounds)
}

func TestCorrectValidation(t *testing.T) {
	f := newFixture(t, 1, 1)
	win := core.Window{XStart: 4, YStart: 8, XSize: 16, YSize: 2}
	good := []contam.Slit{
		slitAt(1, win, testutil.BoxTemplate(16, 2, 1)),
		slitAt(2, core.Window{XStart: 4, YStart: 20, XSize: 16, YSize: 2}, testutil.BoxTemplate(16, 2, 1)),
	}

	_, err := contam.Correct(context.Background(), good, nil, f.table, testFilter)
	assert.ErrorIs(t, err, contam.ErrNilObservation)

	_, err = contam.Correct(context.Background(), good, f.obs, nil, testFilter)
	assert.ErrorIs(t, err, contam.ErrNilTable)

	_, err = contam.Correct(context.Background(), good, f.obs, f.table, "NO-SUCH-FILTER")
	assert.ErrorIs(t, err, contam.ErrNoOrders)

	bad := []contam.Slit{slitAt(1, win, testutil.BoxTemplate(3, 3, 1)), good[1]}
	_, err = contam.Correct(context.Background(), bad, f.obs, f.table, testFilter)
	assert.ErrorIs(t, err, contam.ErrSlitShape)

	noData := []contam.Slit{slitAt(1, win, nil), good[1]}
	_, err = contam.Correct(context.Background(), noData, f.obs, f.table, testFilter)
	assert.ErrorIs(t, err, contam.ErrNilSlitData)
}

func TestCorrectSkipsEmptyExposure(t *testing.T) {
	f := newFixture(t, 1, 1)
	res, err := contam.Correct(context.Background(), nil, f.obs, f.table, testFilter)
	require.NoError(t, err)
	assert.Equal(t, contam.StatusSkipped, res.Status)
	assert.Equal(t, "SKIPPED", res.Status.String())
	assert.Nil(t, res.Simulated)
}

func TestCorrectUnknownSlitOrder(t *testing.T) {
	f := newFixture(t, 1, 1)
	s := slitAt(1, core.Window{XStart: 4, YStart: 8, XSize: 16, YSize: 2}, testutil.BoxTemplate(16, 2, 1))
	s.SpectralOrder = 2 // table only defines order 1
	slits := []contam.Slit{
		s,
		slitAt(2, core.Window{XStart: 4, YStart: 20, XSize: 16, YSize: 2}, testutil.BoxTemplate(16, 2, 1)),
	}
	_, err := contam.Correct(context.Background(), slits, f.obs, f.table, testFilter)
	assert.ErrorIs(t, err, sens.ErrUnknownEntry)
}

func TestCorrectSumsAcrossOrders(t *testing.T) {
	m, err := disperse.NewModel(disperse.Config{Width: 128, Height: 32, Samples: 10})
	require.NoError(t, err)
	src, err := disperse.NewSource(1, testutil.PointTemplate(2.0))
	require.NoError(t, err)
	obs, err := observe.New([]disperse.Source{src}, observe.Config{
		Model:     m,
		Transform: testutil.ShiftTransform(1, 10),
	})
	require.NoError(t, err)

	table := sens.NewTable()
	require.NoError(t, table.Add(testFilter, 1, sens.Range{WMin: 1, WMax: 2}, testutil.FlatCurve(1, 2, 1)))
	require.NoError(t, table.Add(testFilter, 2, sens.Range{WMin: 1, WMax: 2}, testutil.FlatCurve(1, 2, 1)))

	slits := []contam.Slit{slitAt(1, core.Window{XStart: 4, YStart: 8, XSize: 32, YSize: 2}, testutil.BoxTemplate(32, 2, 1))}
	res, err := contam.Correct(context.Background(), slits, obs, table, testFilter)
	require.NoError(t, err)

	// Each order disperses the full source flux; the composite sums both.
	assert.InDelta(t, 4.0, res.Simulated.Sum(), 1e-12)
}
