// Command claimrace fires concurrent claims for one seat against a running
// server and reports how many succeeded. Exactly one winner is expected.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"cineplex/pkg/logger"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type claimResult struct {
	racer    int
	status   int
	message  string
	duration time.Duration
	err      error
}

type racer struct {
	baseURL string
	client  *http.Client
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080/api/v1", "API base URL")
	showtimeID := flag.String("showtime", "", "showtime id to claim against")
	row := flag.String("row", "A", "seat row")
	number := flag.Int("number", 5, "seat number")
	racers := flag.Int("n", 50, "concurrent claimants")
	method := flag.String("method", "momo", "payment method")
	flag.Parse()

	log := logger.NewWithWriter(os.Stdout, "info", false)
	if *showtimeID == "" {
		log.Error("-showtime is required")
		os.Exit(2)
	}

	r := &racer{baseURL: *baseURL, client: &http.Client{Timeout: 30 * time.Second}}
	ctx := context.Background()

	tokens := make([]string, *racers)
	stamp := time.Now().UnixNano()
	for i := range tokens {
		token, err := r.register(ctx, fmt.Sprintf("racer-%d-%d@cineplex.local", stamp, i))
		if err != nil {
			log.Error("failed to register racer", "racer", i, slog.Any("error", err))
			os.Exit(1)
		}
		tokens[i] = token
	}
	log.Info("racers ready", "count", len(tokens), "seat", fmt.Sprintf("%s%d", *row, *number))

	body, _ := json.Marshal(map[string]any{
		"showtimeId":    *showtimeID,
		"seats":         []map[string]any{{"row": *row, "number": *number}},
		"paymentMethod": *method,
	})

	results := make([]claimResult, len(tokens))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			<-start
			results[i] = r.claim(ctx, i, token, body)
		}(i, token)
	}
	close(start)
	wg.Wait()

	report(log, results)
}

func (r *racer) register(ctx context.Context, email string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"first_name": "Race",
		"last_name":  "Runner",
		"email":      email,
		"password":   "qwerty123",
	})
	status, env, err := r.post(ctx, "/auth/register", "", body)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("register returned %d: %s", status, env.Message)
	}

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("decode register response: %w", err)
	}
	return data.AccessToken, nil
}

func (r *racer) claim(ctx context.Context, i int, token string, body []byte) claimResult {
	started := time.Now()
	status, env, err := r.post(ctx, "/bookings", token, body)
	return claimResult{racer: i, status: status, message: env.Message, duration: time.Since(started), err: err}
}

func (r *racer) post(ctx context.Context, path, token string, body []byte) (int, envelope, error) {
	var env envelope
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, env, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, env, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, env, err
	}
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env, nil
}

func report(log *logger.Logger, results []claimResult) {
	byStatus := map[int]int{}
	var durations []time.Duration
	for _, res := range results {
		if res.err != nil {
			log.Warn("request failed", "racer", res.racer, slog.Any("error", res.err))
			byStatus[0]++
			continue
		}
		byStatus[res.status]++
		durations = append(durations, res.duration)
		if res.status == http.StatusCreated {
			log.Info("winner", "racer", res.racer, "duration", res.duration.String())
		}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	var p50, p99 time.Duration
	if n := len(durations); n > 0 {
		p50 = durations[n/2]
		p99 = durations[(n*99)/100]
	}

	log.Info("claim race finished",
		"racers", len(results),
		"created", byStatus[http.StatusCreated],
		"conflict", byStatus[http.StatusConflict],
		"busy", byStatus[http.StatusServiceUnavailable],
		"other", len(results)-byStatus[http.StatusCreated]-byStatus[http.StatusConflict]-byStatus[http.StatusServiceUnavailable],
		"p50", p50.String(),
		"p99", p99.String(),
	)

	if byStatus[http.StatusCreated] != 1 {
		log.Error("expected exactly one winner", "created", byStatus[http.StatusCreated])
		os.Exit(1)
	}
}
