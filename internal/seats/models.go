package seats

import (
	"fmt"
	"sort"
	"strconv"

	"cineplex/internal/theaters"

	"github.com/google/uuid"
)

// SeatKey identifies a seat within a screen, e.g. {Row: "F", Number: 7}.
type SeatKey struct {
	Row    string `json:"row" binding:"required,seatrow"`
	Number int    `json:"number" binding:"required,min=1"`
}

func (k SeatKey) String() string {
	return k.Row + strconv.Itoa(k.Number)
}

// ParseSeatKey parses labels such as "A1" or "K12".
func ParseSeatKey(label string) (SeatKey, error) {
	if len(label) < 2 || label[0] < 'A' || label[0] > 'Z' {
		return SeatKey{}, fmt.Errorf("invalid seat label %q", label)
	}
	n, err := strconv.Atoi(label[1:])
	if err != nil || n <= 0 {
		return SeatKey{}, fmt.Errorf("invalid seat label %q", label)
	}
	return SeatKey{Row: label[:1], Number: n}, nil
}

func KeyOf(s theaters.Seat) SeatKey {
	return SeatKey{Row: s.Row, Number: s.Number}
}

type SeatSet map[SeatKey]struct{}

func (s SeatSet) Has(k SeatKey) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the keys ordered by row then number.
func (s SeatSet) Sorted() []SeatKey {
	keys := make([]SeatKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

func SortKeys(keys []SeatKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Number < keys[j].Number
	})
}

func Labels(keys []SeatKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatOccupied  SeatStatus = "occupied"
)

type MapSeat struct {
	Row      string                `json:"row"`
	Number   int                   `json:"number"`
	Label    string                `json:"label"`
	Category theaters.SeatCategory `json:"category"`
	Price    float64               `json:"price"`
	Status   SeatStatus            `json:"status"`
}

type MapRow struct {
	Row   string    `json:"row"`
	Seats []MapSeat `json:"seats"`
}

// SeatMap is a display snapshot; claims re-verify occupancy.
type SeatMap struct {
	ShowtimeID     uuid.UUID `json:"showtimeId"`
	ScreenID       uuid.UUID `json:"screenId"`
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
	Rows           []MapRow  `json:"rows"`
}
