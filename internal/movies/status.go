package movies

type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusNowShowing Status = "now_showing"
	StatusEnded      Status = "ended"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusNowShowing, StatusEnded:
		return true
	}
	return false
}
