package bookings

import (
	"fmt"
	"strings"

	"cineplex/internal/seats"

	qrcode "github.com/skip2/go-qrcode"
)

// TicketPayload is the text scanned at the door.
func TicketPayload(b *Booking) string {
	return fmt.Sprintf("CINEPLEX|%s|%s|%s|%s",
		b.BookingReference,
		b.ID,
		b.ShowtimeID,
		strings.Join(seats.Labels(b.SeatKeys()), ","),
	)
}

// TicketQRCode renders the ticket payload as a PNG of size x size pixels.
func TicketQRCode(b *Booking, size int) ([]byte, error) {
	png, err := qrcode.Encode(TicketPayload(b), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode ticket qr: %w", err)
	}
	return png, nil
}
