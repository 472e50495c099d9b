package mapping

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/keyforge/backend/internal/models"
	"github.com/keyforge/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, g *models.KeyboardGeometry) *Mapping {
	t.Helper()
	m, err := Build(g)
	require.NoError(t, err)
	return m
}

func TestBuild_RoundTrip(t *testing.T) {
	geometries := map[string]*models.KeyboardGeometry{
		"grid":  testutil.GridGeometry(4, 12),
		"split": testutil.SplitGeometry(4, 6),
		"six":   testutil.SixKeyGeometry(),
	}

	for name, g := range geometries {
		t.Run(name, func(t *testing.T) {
			m := mustBuild(t, g)
			for _, k := range g.Keys {
				vis, err := m.MatrixToVisual(k.Matrix)
				require.NoError(t, err)
				back, err := m.VisualToMatrix(vis)
				require.NoError(t, err)
				assert.Equal(t, k.Matrix, back)

				led, err := m.MatrixToLed(k.Matrix)
				require.NoError(t, err)
				pos, err := m.LedToMatrix(led)
				require.NoError(t, err)
				assert.Equal(t, k.Matrix, pos)

				ledVis, err := m.LedToVisual(led)
				require.NoError(t, err)
				assert.Equal(t, vis, ledVis)
				visLed, err := m.VisualToLed(vis)
				require.NoError(t, err)
				assert.Equal(t, led, visLed)
			}
		})
	}
}

func TestBuild_Injective(t *testing.T) {
	g := testutil.SplitGeometry(3, 5)
	m := mustBuild(t, g)

	visuals := make(map[models.VisualPosition]models.MatrixPosition)
	leds := make(map[models.LedIndex]models.MatrixPosition)
	for _, pos := range m.MatrixOrder() {
		vis, err := m.MatrixToVisual(pos)
		require.NoError(t, err)
		if other, dup := visuals[vis]; dup {
			t.Fatalf("%s and %s share %s", pos, other, vis)
		}
		visuals[vis] = pos

		led, err := m.MatrixToLed(pos)
		require.NoError(t, err)
		if other, dup := leds[led]; dup {
			t.Fatalf("%s and %s share %s", pos, other, led)
		}
		leds[led] = pos
	}
	assert.Len(t, visuals, len(g.Keys))
}

func TestBuild_SplitMirroring(t *testing.T) {
	const n = 6
	g := testutil.SplitGeometry(4, n)
	m := mustBuild(t, g)

	tests := []struct {
		name   string
		matrix models.MatrixPosition
		want   models.VisualPosition
	}{
		{"left col 0", models.MatrixPosition{Row: 0, Col: 0}, models.VisualPosition{Row: 0, Col: 0}},
		{"left last col", models.MatrixPosition{Row: 2, Col: n - 1}, models.VisualPosition{Row: 2, Col: n - 1}},
		{"right col 0 is outer edge", models.MatrixPosition{Row: 4, Col: 0}, models.VisualPosition{Row: 0, Col: 2*n - 1}},
		{"right last col is inner edge", models.MatrixPosition{Row: 4, Col: n - 1}, models.VisualPosition{Row: 0, Col: n}},
		{"right row offset", models.MatrixPosition{Row: 7, Col: 2}, models.VisualPosition{Row: 3, Col: 2*n - 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.MatrixToVisual(tt.matrix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, 2*n, m.Width())
}

func TestBuild_NonSplitIdentity(t *testing.T) {
	m := mustBuild(t, testutil.GridGeometry(3, 4))
	for _, pos := range m.MatrixOrder() {
		vis, err := m.MatrixToVisual(pos)
		require.NoError(t, err)
		assert.Equal(t, models.VisualPosition{Row: pos.Row, Col: pos.Col}, vis)
	}
}

func extraKeyGeometry() *models.KeyboardGeometry {
	g := testutil.SplitGeometry(2, 3)
	g.MatrixRows = 5
	// Row 4 lies outside both halves: thumb cluster wired on its own row.
	g.Keys = append(g.Keys,
		models.KeyGeometry{Matrix: models.MatrixPosition{Row: 4, Col: 2}, Width: 1, Height: 1},
		models.KeyGeometry{Matrix: models.MatrixPosition{Row: 4, Col: 0}, Width: 1, Height: 1},
		models.KeyGeometry{Matrix: models.MatrixPosition{Row: 4, Col: 1}, Width: 1, Height: 1},
	)
	return g
}

func TestBuild_ExtraKeysBeyondGrid(t *testing.T) {
	m := mustBuild(t, extraKeyGeometry())

	assert.Equal(t, 3, m.ExtraCount())
	for col := 0; col < 3; col++ {
		vis, err := m.MatrixToVisual(models.MatrixPosition{Row: 4, Col: col})
		require.NoError(t, err)
		assert.Equal(t, models.VisualPosition{Row: 0, Col: m.Width() + col}, vis)
	}
}

func TestBuild_ExtraKeysStableAcrossDeclarationOrder(t *testing.T) {
	base := mustBuild(t, extraKeyGeometry())

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		g := extraKeyGeometry()
		rng.Shuffle(len(g.Keys), func(a, b int) { g.Keys[a], g.Keys[b] = g.Keys[b], g.Keys[a] })
		m := mustBuild(t, g)
		for _, pos := range base.MatrixOrder() {
			want, _ := base.MatrixToVisual(pos)
			got, err := m.MatrixToVisual(pos)
			require.NoError(t, err)
			assert.Equal(t, want, got, "shuffle %d, %s", i, pos)
		}
	}
}

func TestBuild_GridRowsMarksExtras(t *testing.T) {
	g := testutil.GridGeometry(3, 4)
	g.GridRows = 2
	m := mustBuild(t, g)

	assert.Equal(t, 4, m.ExtraCount())
	vis, err := m.MatrixToVisual(models.MatrixPosition{Row: 2, Col: 3})
	require.NoError(t, err)
	assert.Equal(t, models.VisualPosition{Row: 0, Col: 4 + 3}, vis)
}

func TestBuild_GeometryErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *models.KeyboardGeometry)
		code   string
	}{
		{
			name:   "duplicate matrix",
			mutate: func(g *models.KeyboardGeometry) { g.Keys[1].Matrix = g.Keys[0].Matrix },
			code:   CodeDuplicateMatrix,
		},
		{
			name:   "duplicate led",
			mutate: func(g *models.KeyboardGeometry) { g.Keys[1].Led = models.NewLedIndex(0) },
			code:   CodeDuplicateLed,
		},
		{
			name:   "matrix out of range",
			mutate: func(g *models.KeyboardGeometry) { g.Keys[0].Matrix = models.MatrixPosition{Row: 9, Col: 0} },
			code:   CodeMatrixOutOfRange,
		},
		{
			name:   "no keys",
			mutate: func(g *models.KeyboardGeometry) { g.Keys = nil },
			code:   CodeEmptyGeometry,
		},
		{
			name: "overlapping split",
			mutate: func(g *models.KeyboardGeometry) {
				g.Split = &models.SplitLayout{
					LeftRows:  models.RowRange{Start: 0, End: 2},
					RightRows: models.RowRange{Start: 1, End: 2},
				}
			},
			code: CodeInvalidSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.GridGeometry(2, 3)
			tt.mutate(g)
			_, err := Build(g)
			require.Error(t, err)

			var geoErr *GeometryError
			require.True(t, errors.As(err, &geoErr))
			assert.Equal(t, tt.code, geoErr.Code)
		})
	}
}

func TestQueries_NotFound(t *testing.T) {
	g := testutil.GridGeometry(2, 2)
	g.Keys[3].Led = nil
	m := mustBuild(t, g)

	_, err := m.MatrixToLed(models.MatrixPosition{Row: 1, Col: 1})
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "matrix", nf.Kind)

	_, err = m.VisualToMatrix(models.VisualPosition{Row: 5, Col: 5})
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "visual", nf.Kind)

	_, err = m.LedToVisual(models.LedIndex(42))
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "led", nf.Kind)

	_, err = m.VisualToLed(models.VisualPosition{Row: 1, Col: 1})
	assert.Error(t, err)
}

func TestLedOrderAscending(t *testing.T) {
	g := testutil.GridGeometry(1, 4)
	g.Keys[0].Led = models.NewLedIndex(3)
	g.Keys[1].Led = models.NewLedIndex(0)
	g.Keys[2].Led = nil
	g.Keys[3].Led = models.NewLedIndex(1)
	m := mustBuild(t, g)

	assert.Equal(t, []models.LedIndex{0, 1, 3}, m.LedOrder())
	assert.Equal(t, 3, m.Leds().Len())
}

func TestRebuildIsIndependent(t *testing.T) {
	g := testutil.GridGeometry(2, 2)
	first := mustBuild(t, g)

	other := testutil.SplitGeometry(2, 2)
	second := mustBuild(t, other)

	assert.Equal(t, 4, first.Len())
	assert.Equal(t, 8, second.Len())
	assert.Same(t, g, first.Geometry())
	assert.False(t, first.HasVisual(models.VisualPosition{Row: 0, Col: 3}))
	assert.True(t, second.HasVisual(models.VisualPosition{Row: 0, Col: 3}))
}
