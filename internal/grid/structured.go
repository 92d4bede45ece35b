package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteGridFile writes the mesh as a structured-engine grid file: a
// Cartesian coordinate header followed by ETA records, first the x
// coordinates of every node row and then the y coordinates. Values are
// printed in full double precision, five per line.
func WriteGridFile(path string, r *Rectangle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating grid file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := writeGrid(w, r); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeGrid(w io.Writer, r *Rectangle) error {
	nnx, nny := r.NX+1, r.NY+1

	fmt.Fprintln(w, "Coordinate System = Cartesian")
	fmt.Fprintf(w, "%8d%8d\n", nnx, nny)
	fmt.Fprintf(w, "%8d%8d%8d\n", 0, 0, 0)

	row := make([]float64, nnx)
	for j := 0; j < nny; j++ {
		for i := 0; i < nnx; i++ {
			row[i] = r.NodeX[j*nnx+i]
		}
		if err := writeEtaRecord(w, j+1, row); err != nil {
			return err
		}
	}
	for j := 0; j < nny; j++ {
		for i := 0; i < nnx; i++ {
			row[i] = r.NodeY[j*nnx+i]
		}
		if err := writeEtaRecord(w, j+1, row); err != nil {
			return err
		}
	}
	return nil
}

// writeEtaRecord writes one "ETA=" record: the row number then the values,
// five per line with continuation lines indented to align under the first
// value.
func writeEtaRecord(w io.Writer, rowNum int, values []float64) error {
	const perLine = 5
	for start := 0; start < len(values); start += perLine {
		end := min(start+perLine, len(values))
		if start == 0 {
			if _, err := fmt.Fprintf(w, " ETA=%5d", rowNum); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, "%10s", ""); err != nil {
				return err
			}
		}
		for _, v := range values[start:end] {
			if _, err := fmt.Fprintf(w, "   %.17E", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
