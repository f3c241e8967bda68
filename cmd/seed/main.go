package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cineplex/internal/movies"
	"cineplex/internal/promotions"
	"cineplex/internal/shared/config"
	"cineplex/internal/shared/database"
	"cineplex/internal/showtimes"
	"cineplex/internal/theaters"
	"cineplex/internal/users"
	"cineplex/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Seeder struct {
	db  *database.DB
	cfg *config.Config
	log *logger.Logger
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewWithWriter(os.Stdout, "info", false)

	log.Info("Starting Cineplex database seeder")

	db, err := database.InitDB(cfg, log)
	if err != nil {
		log.Error("failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	seeder := &Seeder{db: db, cfg: cfg, log: log}

	if err := seeder.CleanDatabase(); err != nil {
		log.Error("failed to clean database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := seeder.SeedAll(); err != nil {
		log.Error("failed to seed database", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("Seeding completed, database is ready for testing")
}

// CleanDatabase truncates all tables, children first.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payment_transactions",
		"booked_seats",
		"bookings",
		"promotions",
		"showtimes",
		"screen_seats",
		"screens",
		"theaters",
		"movies",
		"users",
	}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			s.log.Info("truncating table", "table", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	if err := s.SeedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	screens, err := s.SeedTheaters()
	if err != nil {
		return fmt.Errorf("failed to seed theaters: %w", err)
	}

	catalog, err := s.SeedMovies()
	if err != nil {
		return fmt.Errorf("failed to seed movies: %w", err)
	}

	if err := s.SeedShowtimes(screens, catalog); err != nil {
		return fmt.Errorf("failed to seed showtimes: %w", err)
	}

	if err := s.SeedPromotions(); err != nil {
		return fmt.Errorf("failed to seed promotions: %w", err)
	}

	// Cached layouts and movie details refer to truncated rows
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		s.log.Warn("failed to clear Redis cache", slog.Any("error", err))
	}
	return nil
}

// SeedUsers creates one admin and two customers, all with password "qwerty".
func (s *Seeder) SeedUsers() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"Admin", "User", "admin@cineplex.local", users.RoleAdmin},
		{"Lan", "Tran", "lan@cineplex.local", users.RoleUser},
		{"Minh", "Le", "minh@cineplex.local", users.RoleUser},
	}

	for _, data := range usersData {
		user := users.User{
			FirstName: data.firstName,
			LastName:  data.lastName,
			Email:     data.email,
			Password:  string(hashedPassword),
			Role:      data.role,
		}
		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", data.email, err)
		}
		s.log.Info("created user", "email", user.Email, "role", string(user.Role))
	}
	return nil
}

type seededScreen struct {
	screen theaters.Screen
	seats  int
}

// seatTemplate builds an 8x12 hall: A1-A2 wheelchair, rows A-F regular,
// G premium and H VIP.
func seatTemplate(screenID uuid.UUID) []theaters.Seat {
	var layout []theaters.Seat
	for _, row := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		for n := 1; n <= 12; n++ {
			seat := theaters.Seat{ScreenID: screenID, Row: row, Number: n, Category: theaters.CategoryRegular, Price: 75000}
			switch {
			case row == "A" && n <= 2:
				seat.Category, seat.Price = theaters.CategoryWheelchair, 60000
			case row == "G":
				seat.Category, seat.Price = theaters.CategoryPremium, 95000
			case row == "H":
				seat.Category, seat.Price = theaters.CategoryVIP, 120000
			}
			layout = append(layout, seat)
		}
	}
	return layout
}

func (s *Seeder) SeedTheaters() ([]seededScreen, error) {
	theatersData := []struct {
		name    string
		address string
		city    string
		screens []theaters.ScreenType
	}{
		{"Cineplex Landmark", "720A Dien Bien Phu, Binh Thanh", "Ho Chi Minh City", []theaters.ScreenType{theaters.Screen2D, theaters.ScreenIMAX}},
		{"Cineplex Royal City", "72A Nguyen Trai, Thanh Xuan", "Hanoi", []theaters.ScreenType{theaters.Screen2D, theaters.Screen3D}},
	}

	var result []seededScreen
	for _, data := range theatersData {
		theater := theaters.Theater{
			Name:       data.name,
			Address:    data.address,
			City:       data.city,
			Facilities: []string{"parking", "food_court", "wheelchair_access"},
			IsActive:   true,
		}
		if err := s.db.PostgreSQL.Create(&theater).Error; err != nil {
			return nil, fmt.Errorf("failed to create theater %s: %w", data.name, err)
		}

		for i, screenType := range data.screens {
			screen := theaters.Screen{
				TheaterID:  theater.ID,
				Name:       fmt.Sprintf("Screen %d", i+1),
				ScreenType: screenType,
				Capacity:   96,
				IsActive:   true,
			}
			if err := s.db.PostgreSQL.Create(&screen).Error; err != nil {
				return nil, fmt.Errorf("failed to create screen: %w", err)
			}

			layout := seatTemplate(screen.ID)
			if err := s.db.PostgreSQL.CreateInBatches(&layout, 100).Error; err != nil {
				return nil, fmt.Errorf("failed to create seats for %s: %w", screen.Name, err)
			}
			result = append(result, seededScreen{screen: screen, seats: len(layout)})
		}
		s.log.Info("created theater", "name", theater.Name, "screens", len(data.screens))
	}
	return result, nil
}

func (s *Seeder) SeedMovies() ([]movies.Movie, error) {
	now := time.Now()
	catalog := []movies.Movie{
		{Title: "Dune: Part Two", Genre: []string{"Sci-Fi", "Adventure"}, Duration: 166, Director: "Denis Villeneuve", AgeRating: "T13", Language: "English", Subtitles: []string{"Vietnamese"}, Rating: 8.6},
		{Title: "Inside Out 2", Genre: []string{"Animation", "Family"}, Duration: 96, Director: "Kelsey Mann", AgeRating: "P", Language: "English", Subtitles: []string{"Vietnamese"}, Rating: 7.8},
		{Title: "Lat Mat 7", Genre: []string{"Drama", "Family"}, Duration: 138, Director: "Ly Hai", AgeRating: "K", Language: "Vietnamese", Subtitles: []string{"English"}, Rating: 7.2},
	}

	for i := range catalog {
		catalog[i].ReleaseDate = now.AddDate(0, 0, -14)
		catalog[i].Status = movies.StatusNowShowing
		catalog[i].IsActive = true
		if err := s.db.PostgreSQL.Create(&catalog[i]).Error; err != nil {
			return nil, fmt.Errorf("failed to create movie %s: %w", catalog[i].Title, err)
		}
		s.log.Info("created movie", "title", catalog[i].Title)
	}
	return catalog, nil
}

// SeedShowtimes schedules each movie on rotating screens for the next three days.
func (s *Seeder) SeedShowtimes(screens []seededScreen, catalog []movies.Movie) error {
	loc := s.cfg.Booking.Location()
	today := time.Now().In(loc)
	slots := []string{"10:00", "14:00", "19:30"}

	count := 0
	for day := 0; day < 3; day++ {
		date := time.Date(today.Year(), today.Month(), today.Day()+day, 0, 0, 0, 0, time.UTC)
		for i, sc := range screens {
			for j, slot := range slots {
				movie := catalog[(i+j)%len(catalog)]
				start, _ := time.Parse("15:04", slot)
				end := start.Add(time.Duration(movie.Duration+15) * time.Minute)

				showtime := showtimes.Showtime{
					MovieID:        movie.ID,
					TheaterID:      sc.screen.TheaterID,
					ScreenID:       sc.screen.ID,
					Date:           date,
					StartTime:      slot,
					EndTime:        end.Format("15:04"),
					TotalSeats:     sc.seats,
					AvailableSeats: sc.seats,
					IsActive:       true,
				}
				// Evening IMAX runs at a fixed premium price table
				if sc.screen.ScreenType == theaters.ScreenIMAX && slot == "19:30" {
					showtime.Prices = showtimes.PriceTable{Regular: 150000, Premium: 180000, VIP: 220000}
				}
				if err := s.db.PostgreSQL.Create(&showtime).Error; err != nil {
					return fmt.Errorf("failed to create showtime: %w", err)
				}
				count++
			}
		}
	}
	s.log.Info("created showtimes", "count", count)
	return nil
}

func (s *Seeder) SeedPromotions() error {
	now := time.Now()
	limit := func(n int) *int { return &n }
	amount := func(v float64) *float64 { return &v }

	promos := []promotions.Promotion{
		{Code: "WEEKEND20", Name: "Weekend 20% off", Type: promotions.TypePercentage, Value: 20, UsageLimit: limit(100), UsedCount: 45},
		{Code: "WELCOME50K", Name: "50,000 VND off your first order", Type: promotions.TypeFixed, Value: 50000, MinOrderAmount: amount(150000)},
		{Code: "COUPLE", Name: "Buy one get one", Type: promotions.TypeBuyOneGetOne},
		{Code: "STUDENT15", Name: "Students 15% off", Type: promotions.TypePercentage, Value: 15, MaxDiscountAmount: amount(40000)},
		{Code: "SOLDOUT", Name: "Exhausted flash sale", Type: promotions.TypePercentage, Value: 50, UsageLimit: limit(10), UsedCount: 10},
	}

	for i := range promos {
		promos[i].StartDate = now.AddDate(0, 0, -7)
		promos[i].EndDate = now.AddDate(0, 1, 0)
		promos[i].IsActive = true
		if err := s.db.PostgreSQL.Create(&promos[i]).Error; err != nil {
			return fmt.Errorf("failed to create promotion %s: %w", promos[i].Code, err)
		}
		s.log.Info("created promotion", "code", promos[i].Code)
	}
	return nil
}
