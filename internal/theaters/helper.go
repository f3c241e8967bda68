package theaters

import (
	"fmt"

	"cineplex/internal/shared/apperror"
)

var ErrInvalidLayout = apperror.New(apperror.KindValidation, "INVALID_LAYOUT", "invalid seat layout")

// ExpandRows turns row blocks into individual seat templates numbered from 1
// within each row. Overlapping blocks are rejected.
func ExpandRows(blocks []RowBlock) ([]Seat, error) {
	var seats []Seat
	seen := map[string]bool{}

	for _, b := range blocks {
		if len(b.RowStart) != 1 || len(b.RowEnd) != 1 || b.RowStart > b.RowEnd {
			return nil, ErrInvalidLayout.WithDetails(fmt.Sprintf("rows %s-%s", b.RowStart, b.RowEnd))
		}
		if !b.Category.IsValid() {
			return nil, ErrInvalidLayout.WithDetails(fmt.Sprintf("category %q", b.Category))
		}
		if b.SeatsPerRow <= 0 || b.Price < 0 {
			return nil, ErrInvalidLayout.WithDetails(fmt.Sprintf("rows %s-%s", b.RowStart, b.RowEnd))
		}

		for r := b.RowStart[0]; r <= b.RowEnd[0]; r++ {
			row := string(r)
			if seen[row] {
				return nil, ErrInvalidLayout.WithDetails(fmt.Sprintf("row %s defined twice", row))
			}
			seen[row] = true
			for n := 1; n <= b.SeatsPerRow; n++ {
				seats = append(seats, Seat{Row: row, Number: n, Category: b.Category, Price: b.Price})
			}
		}
	}

	if len(seats) == 0 {
		return nil, ErrInvalidLayout
	}
	return seats, nil
}
