package series

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/goldsight-backend/internal/models"
)

var fixedNow = time.Date(2026, time.October, 18, 14, 30, 0, 0, time.UTC)

func testGenerator(t *testing.T, mutate func(*Config)) *Generator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Clock = func() time.Time { return fixedNow }
	r := rand.New(rand.NewPCG(42, 7))
	cfg.Noise = r.Float64
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := NewGenerator(cfg)
	require.NoError(t, err)
	return g
}

func TestGenerate_EndsOnTodayAnchor(t *testing.T) {
	g := testGenerator(t, nil)
	points := g.Generate(DefaultStartYear)
	require.NotEmpty(t, points)

	last := points[len(points)-1]
	assert.Equal(t, "2026-10-18", last.Date)
	assert.Equal(t, 4964.0, last.Price)

	prev := points[len(points)-2]
	assert.Equal(t, "2026-10-17", prev.Date)
	assert.Equal(t, 4951.30, prev.Price)

	assert.Equal(t, "2008-01-01", points[0].Date)
	assert.Equal(t, "2026-10-18", g.Today())
}

func TestGenerate_NonUTCClockUsesUTCDay(t *testing.T) {
	// 22:00 EDT on the 18th is already the 19th in UTC.
	edt := time.FixedZone("EDT", -4*60*60)
	now := time.Date(2026, time.October, 19, 2, 0, 0, 0, time.UTC).In(edt)
	require.Equal(t, 18, now.Day())

	g := testGenerator(t, func(c *Config) {
		c.Clock = func() time.Time { return now }
	})
	assert.Equal(t, "2026-10-19", g.Today())

	points := g.Generate(DefaultStartYear)
	require.NotEmpty(t, points)
	assert.Equal(t, "2026-10-19", points[len(points)-1].Date)
	assert.Equal(t, "2026-10-18", points[len(points)-2].Date)
}

func TestGenerate_PricesRespectFloor(t *testing.T) {
	for _, start := range []int{1990, 2008, 2015, 2024, 2026} {
		points := testGenerator(t, nil).Generate(start)
		for _, p := range points {
			assert.GreaterOrEqualf(t, p.Price, 800.0, "start=%d date=%s", start, p.Date)
		}
	}
}

func TestGenerate_FloorClampsCollapsingTarget(t *testing.T) {
	g := testGenerator(t, func(c *Config) {
		c.Milestones = []Milestone{{UntilYear: 2100, UntilMonth: 12, Target: 0}}
		c.NoiseAmplitude = 0
	})
	points := g.Generate(2020)

	// Everything but the pinned tail has sunk onto the floor.
	interior := points[:len(points)-2]
	require.NotEmpty(t, interior)
	for _, p := range interior {
		assert.GreaterOrEqual(t, p.Price, 800.0)
	}
	assert.Equal(t, 800.0, interior[len(interior)-1].Price)
}

func TestGenerate_DatesStrictlyIncreasing(t *testing.T) {
	points := testGenerator(t, nil).Generate(2010)
	for i := 1; i < len(points); i++ {
		assert.Lessf(t, points[i-1].Date, points[i].Date, "index %d", i)
	}
}

func TestGenerate_SamplingDensity(t *testing.T) {
	points := testGenerator(t, nil).Generate(DefaultStartYear)
	denseFrom := "2026-07-21"

	dense := 0
	for _, p := range points {
		day, err := time.Parse(models.DateLayout, p.Date)
		require.NoError(t, err)
		if p.Date >= denseFrom {
			dense++
			continue
		}
		assert.Equalf(t, 1, day.Day(), "point %s outside the dense window must be a month start", p.Date)
	}
	assert.Equal(t, 90, dense)

	// 2008-01 through 2026-07 monthly, plus the dense window.
	months := (2026-2008)*12 + 7
	assert.Len(t, points, months+dense)
}

func TestGenerate_FutureStartYieldsAnchorsOnly(t *testing.T) {
	points := testGenerator(t, nil).Generate(2030)
	require.Len(t, points, 2)
	assert.Equal(t, models.PricePoint{Date: "2026-10-17", Price: 4951.30}, points[0])
	assert.Equal(t, models.PricePoint{Date: "2026-10-18", Price: 4964}, points[1])
}

func TestGenerate_CurrentYearStart(t *testing.T) {
	points := testGenerator(t, nil).Generate(2026)
	require.NotEmpty(t, points)
	assert.Equal(t, "2026-01-01", points[0].Date)
	assert.Equal(t, "2026-10-18", points[len(points)-1].Date)
}

func TestGenerate_NarrowWindowInsertsYesterday(t *testing.T) {
	g := testGenerator(t, func(c *Config) { c.DenseWindowDays = 1 })
	points := g.Generate(2026)

	n := len(points)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, "2026-10-01", points[n-3].Date)
	assert.Equal(t, models.PricePoint{Date: "2026-10-17", Price: 4951.30}, points[n-2])
	assert.Equal(t, models.PricePoint{Date: "2026-10-18", Price: 4964}, points[n-1])
}

func TestGenerate_SameSeedIsDeterministic(t *testing.T) {
	a := testGenerator(t, nil).Generate(2015)
	b := testGenerator(t, nil).Generate(2015)
	assert.Equal(t, a, b)
}

func TestGenerate_RunsDifferInNoiseButAgreeOnAnchor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clock = func() time.Time { return fixedNow }
	g, err := NewGenerator(cfg)
	require.NoError(t, err)

	a := g.Generate(2015)
	b := g.Generate(2015)
	require.Equal(t, len(a), len(b))

	differs := false
	for i := 0; i < len(a)-2; i++ {
		if a[i].Price != b[i].Price {
			differs = true
			break
		}
	}
	assert.True(t, differs, "interior points should carry independent noise")
	assert.Equal(t, a[len(a)-1], b[len(b)-1])
}

func TestGenerate_SeedDependsOnReferenceYear(t *testing.T) {
	flat := func(c *Config) {
		c.Milestones = nil
		c.NoiseAmplitude = 0
		c.CurrentPrice = 1180
	}
	early := testGenerator(t, flat).Generate(2014)
	late := testGenerator(t, flat).Generate(2015)

	// Day one takes a single drift step from the seed toward 1180.
	assert.InDelta(t, 1100+(1180.0-1100)/30, early[0].Price, 0.01)
	assert.Equal(t, 1180.0, late[0].Price)
}

func TestNewGenerator_RejectsBadConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"zero smoothing":     func(c *Config) { c.Smoothing = 0 },
		"negative floor":     func(c *Config) { c.Floor = -1 },
		"empty window":       func(c *Config) { c.DenseWindowDays = 0 },
		"negative noise":     func(c *Config) { c.NoiseAmplitude = -2 },
		"unordered schedule": func(c *Config) { c.Milestones = []Milestone{{2020, 5, 1}, {2019, 1, 2}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := NewGenerator(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestTargetFor(t *testing.T) {
	table := []Milestone{
		{UntilYear: 2016, UntilMonth: 12, Target: 1250},
		{UntilYear: 2024, UntilMonth: 8, Target: 2500},
	}
	assert.Equal(t, 1250.0, targetFor(table, 2010, 3, 4964))
	assert.Equal(t, 1250.0, targetFor(table, 2016, 12, 4964))
	assert.Equal(t, 2500.0, targetFor(table, 2017, 1, 4964))
	assert.Equal(t, 2500.0, targetFor(table, 2024, 8, 4964))
	assert.Equal(t, 4964.0, targetFor(table, 2024, 9, 4964))
}
