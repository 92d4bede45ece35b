// Command genmock writes a synthetic flexible-mesh map file with a uniform
// inflow and a Gaussian wake deficit behind the turbine. It exercises the
// same writer the test suites use, so extraction code can be developed and
// demonstrated without a solver installation.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/mock_map.nc \
//	  -deficit 0.4 \
//	  -steps 4
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/tidal-verify/internal/cases"
	"github.com/couchcryptid/tidal-verify/internal/grid"
)

var refDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the map file")
	deficit := flag.Float64("deficit", 0.4, "peak fractional velocity deficit behind the turbine")
	steps := flag.Int("steps", 4, "number of output timesteps")
	u0 := flag.Float64("u0", 0.8, "free-stream velocity in m/s")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *steps < 1 {
		return fmt.Errorf("-steps must be at least 1, got %d", *steps)
	}

	// Domain geometry follows the default case so the mock lines up with
	// the extraction helpers' turbine-relative coordinates.
	c, err := cases.Default().GetCase(0)
	if err != nil {
		return err
	}

	mesh, err := grid.NewRectangle(c.X0, c.X1, c.Y0, c.Y1, c.DX, c.DY)
	if err != nil {
		return fmt.Errorf("building mesh: %w", err)
	}

	times := make([]float64, *steps)
	for i := range times {
		times[i] = float64(i) * 3600
	}

	spec := grid.MapSpec{
		Mesh:   mesh,
		NSigma: c.Sigma,
		Ref:    refDate,
		Times:  times,
		Depth:  func(x, y float64) float64 { return -c.BedLevel },
		Velocity: func(step int, x, y, sigma float64) (float64, float64, float64) {
			return *u0 * (1 - wake(c, *deficit, x, y)), 0, 0
		},
		TKE: func(step int, x, y, sigma float64) float64 {
			return 0.05 + 0.1*wake(c, *deficit, x, y)
		},
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := grid.WriteMapFile(*out, spec); err != nil {
		return fmt.Errorf("writing map file: %w", err)
	}

	log.Printf("wrote mock map: %s (%d faces, %d layers, %d steps)",
		*out, mesh.NFaces(), c.Sigma, *steps)
	return nil
}

// wake is the fractional deficit at (x, y): zero upstream of the turbine,
// then a laterally Gaussian profile that recovers downstream.
func wake(c cases.Case, peak, x, y float64) float64 {
	dx := x - c.TurbPosX
	if dx <= 0 {
		return 0
	}
	dy := y - c.TurbPosY
	lateral := math.Exp(-dy * dy / 0.5)
	recovery := math.Exp(-dx / 6)
	return peak * lateral * recovery
}
