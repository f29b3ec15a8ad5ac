package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hackgods/booking-backend/internal/logging"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	CreateRatio float64
	UpdateRatio float64
	DeleteRatio float64
	ReadRatio   float64
	// SignInRPS paces /register and /login across all workers. The server
	// rate limits those routes per client IP. 0 disables pacing.
	SignInRPS   float64
}

// maxAuthAttempts bounds retries of a sign-in request answered with 429.
const maxAuthAttempts = 5

// DataPool holds appointment ids created during the run. Workers share it,
// so reads and updates may race with deletes from other workers.
type DataPool struct {
	mu           sync.RWMutex
	appointments []string
}

func (dp *DataPool) AddAppointment(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(f *gofakeit.Faker) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return "", false
	}
	return dp.appointments[f.Number(0, len(dp.appointments)-1)], true
}

func (dp *DataPool) TakeAppointment(f *gofakeit.Faker) (string, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	n := len(dp.appointments)
	if n == 0 {
		return "", false
	}
	idx := f.Number(0, n-1)
	id := dp.appointments[idx]
	dp.appointments[idx] = dp.appointments[n-1]
	dp.appointments = dp.appointments[:n-1]
	return id, true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	NotFound  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err == nil && status == http.StatusOK:
		atomic.AddInt64(&om.Success, 1)
	case err == nil && status == http.StatusNotFound:
		atomic.AddInt64(&om.NotFound, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Create OperationMetrics
	Get    OperationMetrics
	List   OperationMetrics
	Update OperationMetrics
	Delete OperationMetrics
}

type Simulator struct {
	config  SimConfig
	logger  *slog.Logger
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	_ = godotenv.Load()

	logger := logging.New("simulate", getEnv("APP_ENV", "dev"))
	logger.Info("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	logger.Info("config",
		"base_url", cfg.APIBaseURL,
		"duration", cfg.Duration,
		"workers", cfg.Workers,
		"create", cfg.CreateRatio,
		"update", cfg.UpdateRatio,
		"delete", cfg.DeleteRatio,
		"read", cfg.ReadRatio,
		"signin_rps", cfg.SignInRPS,
	)

	sim := &Simulator{
		config: cfg,
		logger: logger,
		pool:   &DataPool{},
		client: &http.Client{Timeout: 10 * time.Second},
	}

	if err := sim.Run(context.Background()); err != nil {
		logger.Error("simulation failed", "err", err)
		os.Exit(1)
	}

	sim.PrintReport(os.Stdout)
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  strings.TrimRight(getEnv("SIM_API_BASE_URL", "http://localhost:8080"), "/"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		CreateRatio: getFloat("SIM_CREATE_RATIO", 0.3),
		UpdateRatio: getFloat("SIM_UPDATE_RATIO", 0.15),
		DeleteRatio: getFloat("SIM_DELETE_RATIO", 0.05),
		ReadRatio:   getFloat("SIM_READ_RATIO", 0.5),
		SignInRPS:   getFloat("SIM_SIGNIN_RPS", 4),
	}

	// Normalize ratios
	total := cfg.CreateRatio + cfg.UpdateRatio + cfg.DeleteRatio + cfg.ReadRatio
	if total > 0 {
		cfg.CreateRatio /= total
		cfg.UpdateRatio /= total
		cfg.DeleteRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.APIBaseURL == "" {
		return errors.New("SIM_API_BASE_URL is required")
	}
	if cfg.Workers <= 0 {
		return errors.New("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return errors.New("SIM_DURATION must be > 0")
	}
	if cfg.CreateRatio+cfg.UpdateRatio+cfg.DeleteRatio+cfg.ReadRatio <= 0 {
		return errors.New("at least one operation ratio must be > 0")
	}
	if cfg.SignInRPS < 0 {
		return errors.New("SIM_SIGNIN_RPS must be >= 0")
	}
	return nil
}

// Run signs every worker in, then drives the operation mix until the
// configured duration elapses. A worker that cannot obtain a token fails
// the whole run.
func (s *Simulator) Run(ctx context.Context) error {
	tokens := make([]string, s.config.Workers)

	pace := rate.NewLimiter(rate.Inf, 1)
	if s.config.SignInRPS > 0 {
		pace = rate.NewLimiter(rate.Limit(s.config.SignInRPS), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range tokens {
		g.Go(func() error {
			token, err := s.signIn(gctx, pace, i)
			if err != nil {
				return fmt.Errorf("worker %d sign in: %w", i, err)
			}
			tokens[i] = token
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.Duration)
	defer cancel()

	s.logger.Info("starting simulation", "duration", s.config.Duration, "workers", s.config.Workers)

	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(runCtx, i, token)
		}()
	}
	wg.Wait()

	s.logger.Info("simulation complete")
	return nil
}

func (s *Simulator) signIn(ctx context.Context, pace *rate.Limiter, workerID int) (string, error) {
	f := gofakeit.New(uint64(time.Now().UnixNano()) + uint64(workerID))
	creds := map[string]string{
		"email":    fmt.Sprintf("sim-%d-%d.%s", workerID, time.Now().UnixNano(), f.Email()),
		"password": f.Password(true, true, true, false, false, 16),
	}

	status, _, err := s.authPost(ctx, pace, "/register", creds)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("register returned %d", status)
	}

	status, body, err := s.authPost(ctx, pace, "/login", creds)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login returned %d", status)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Token == "" {
		return "", errors.New("login response without token")
	}
	return resp.Token, nil
}

// authPost sends a paced sign-in request and retries while the server
// answers 429, waiting for Retry-After when given.
func (s *Simulator) authPost(ctx context.Context, pace *rate.Limiter, path string, creds map[string]string) (int, []byte, error) {
	for attempt := 1; ; attempt++ {
		if err := pace.Wait(ctx); err != nil {
			return 0, nil, err
		}

		status, header, body, err := s.send(ctx, http.MethodPost, path, "", creds)
		if err != nil || status != http.StatusTooManyRequests {
			return status, body, err
		}
		if attempt == maxAuthAttempts {
			return 0, nil, fmt.Errorf("%s still rate limited after %d attempts; lower SIM_SIGNIN_RPS or raise AUTH_RATE_LIMIT_RPS on the server", path, attempt)
		}

		wait := time.Duration(attempt) * 100 * time.Millisecond
		if n, err := strconv.Atoi(header.Get("Retry-After")); err == nil && time.Duration(n)*time.Second > wait {
			wait = time.Duration(n) * time.Second
		}
		s.logger.Debug("sign in rate limited", "path", path, "attempt", attempt, "wait", wait)

		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (s *Simulator) worker(ctx context.Context, workerID int, token string) {
	f := gofakeit.New(uint64(time.Now().UnixNano()) + uint64(workerID))

	createCut := s.config.CreateRatio
	updateCut := createCut + s.config.UpdateRatio
	deleteCut := updateCut + s.config.DeleteRatio

	for ctx.Err() == nil {
		r := f.Float64()
		switch {
		case r < createCut:
			s.doCreate(ctx, f, token)
		case r < updateCut:
			s.doUpdate(ctx, f, token)
		case r < deleteCut:
			s.doDelete(ctx, f, token)
		default:
			// Read operations - split between single reads and full listings
			if f.Bool() {
				s.doGet(ctx, f, token)
			} else {
				s.doList(ctx, token)
			}
		}
	}
}

func fakeAppointment(f *gofakeit.Faker) map[string]string {
	start := f.DateRange(time.Now(), time.Now().AddDate(0, 1, 0))
	return map[string]string{
		"date":   start.Format("2006-01-02"),
		"time":   start.Format("15:04"),
		"user":   f.Username(),
		"status": f.RandomString([]string{"booked", "cancelled"}),
	}
}

func (s *Simulator) doCreate(ctx context.Context, f *gofakeit.Faker, token string) {
	start := time.Now()
	status, body, err := s.do(ctx, http.MethodPost, "/appointments", token, fakeAppointment(f))
	if ctx.Err() != nil {
		return
	}
	s.metrics.Create.Record(time.Since(start), status, err)

	if err == nil && status == http.StatusOK {
		var resp struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(body, &resp) == nil && resp.ID != "" {
			s.pool.AddAppointment(resp.ID)
		}
	}
}

func (s *Simulator) doGet(ctx context.Context, f *gofakeit.Faker, token string) {
	id, ok := s.pool.RandomAppointment(f)
	if !ok {
		s.doList(ctx, token)
		return
	}
	start := time.Now()
	status, _, err := s.do(ctx, http.MethodGet, "/appointments/"+id, token, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Get.Record(time.Since(start), status, err)
}

func (s *Simulator) doList(ctx context.Context, token string) {
	start := time.Now()
	status, _, err := s.do(ctx, http.MethodGet, "/appointments", token, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.List.Record(time.Since(start), status, err)
}

func (s *Simulator) doUpdate(ctx context.Context, f *gofakeit.Faker, token string) {
	id, ok := s.pool.RandomAppointment(f)
	if !ok {
		s.doList(ctx, token)
		return
	}
	start := time.Now()
	status, _, err := s.do(ctx, http.MethodPut, "/appointments/"+id, token, fakeAppointment(f))
	if ctx.Err() != nil {
		return
	}
	s.metrics.Update.Record(time.Since(start), status, err)
}

func (s *Simulator) doDelete(ctx context.Context, f *gofakeit.Faker, token string) {
	id, ok := s.pool.TakeAppointment(f)
	if !ok {
		s.doList(ctx, token)
		return
	}
	start := time.Now()
	status, _, err := s.do(ctx, http.MethodDelete, "/appointments/"+id, token, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Delete.Record(time.Since(start), status, err)
}

func (s *Simulator) do(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	status, _, body, err := s.send(ctx, method, path, token, payload)
	return status, body, err
}

func (s *Simulator) send(ctx context.Context, method, path, token string, payload any) (int, http.Header, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, body)
	if err != nil {
		return 0, nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header, respBody, err
}

func (s *Simulator) PrintReport(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "SIMULATION REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "Duration: %s\n", s.config.Duration)
	fmt.Fprintf(w, "Workers: %d\n", s.config.Workers)
	fmt.Fprintln(w)

	printOperationReport(w, "Create", &s.metrics.Create)
	printOperationReport(w, "Get by ID", &s.metrics.Get)
	printOperationReport(w, "List", &s.metrics.List)
	printOperationReport(w, "Update", &s.metrics.Update)
	printOperationReport(w, "Delete", &s.metrics.Delete)
}

func printOperationReport(w io.Writer, name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	notFound := atomic.LoadInt64(&om.NotFound)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Total: %d\n", total)
	fmt.Fprintf(w, "  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if notFound > 0 {
		fmt.Fprintf(w, "  Not found: %d (%.1f%%)\n", notFound, float64(notFound)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Fprintf(w, "  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Fprintln(w)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
