package theaters

type CreateTheaterRequest struct {
	Name       string   `json:"name" binding:"required,min=2,max=255"`
	Address    string   `json:"address" binding:"required,max=500"`
	City       string   `json:"city" binding:"required,max=100"`
	State      string   `json:"state" binding:"max=100"`
	ZipCode    string   `json:"zipCode" binding:"max=20"`
	Latitude   *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" binding:"omitempty,longitude"`
	Phone      string   `json:"phone" binding:"max=30"`
	Email      string   `json:"email" binding:"omitempty,email"`
	Facilities []string `json:"facilities"`
}

// RowBlock describes a run of rows sharing seat count, category and price,
// e.g. rows A-E with 12 regular seats each.
type RowBlock struct {
	RowStart    string       `json:"rowStart" binding:"required,seatrow"`
	RowEnd      string       `json:"rowEnd" binding:"required,seatrow"`
	SeatsPerRow int          `json:"seatsPerRow" binding:"required,min=1,max=60"`
	Category    SeatCategory `json:"category" binding:"required,oneof=regular premium vip wheelchair"`
	Price       float64      `json:"price" binding:"min=0"`
}

type CreateScreenRequest struct {
	Name       string     `json:"name" binding:"required,min=1,max=100"`
	ScreenType ScreenType `json:"screenType" binding:"required,oneof=2D 3D IMAX 4DX"`
	Rows       []RowBlock `json:"rows" binding:"required,min=1,dive"`
}

type ListTheatersQuery struct {
	City string `form:"city"`
}
