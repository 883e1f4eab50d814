package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	mrand "math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/password"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/tenant"
)

const (
	loadTenantID   = "t-load"
	loadTenantSlug = "load"
	loadPassword   = "load-test-password"
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "loadtest measures authenticate and refresh latency",
	Long:  `Seeds sessions through Login, then runs an authenticate phase and a refresh rotation phase against Redis (or an embedded miniredis).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		sessions, _ := f.GetInt("sessions")
		concurrency, _ := f.GetInt("concurrency")
		ops, _ := f.GetInt("ops")
		addr, _ := f.GetString("redis-addr")
		return loadtest(cmd.Context(), cmd.OutOrStdout(), loadOptions{
			sessions:    sessions,
			concurrency: concurrency,
			ops:         ops,
			redisAddr:   addr,
		})
	},
}

func init() {
	f := loadtestCmd.Flags()
	f.Int("sessions", 1000, "number of sessions to seed")
	f.Int("concurrency", 64, "number of concurrent workers")
	f.Int("ops", 50000, "operations per phase (authenticate + refresh)")
	f.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	rootCmd.AddCommand(loadtestCmd)
}

type loadOptions struct {
	sessions    int
	concurrency int
	ops         int
	redisAddr   string
}

type sessionState struct {
	token   string
	refresh string
	mu      sync.Mutex
}

func loadtest(ctx context.Context, out io.Writer, o loadOptions) error {
	if o.sessions <= 0 || o.concurrency <= 0 || o.ops <= 0 {
		return fmt.Errorf("sessions, concurrency, and ops must be > 0")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	addr := o.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var client redis.UniversalClient
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}
	client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	callers, err := newLoadCallers(o.sessions)
	if err != nil {
		return err
	}
	engine, err := loadEngine(client, callers)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(out, "seeding %d sessions...\n", o.sessions)
	startSeed := time.Now()
	states, err := seedSessions(ctx, engine, o.sessions, o.concurrency)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authStats := runPhase(states, o.ops, o.concurrency, 7919, func(s *sessionState) error {
		_, err := engine.Authenticate(ctx, s.token)
		return err
	})
	refreshStats := runPhase(states, o.ops, o.concurrency, 6151, func(s *sessionState) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		res, err := engine.Refresh(ctx, s.refresh)
		if err != nil {
			return err
		}
		s.token, s.refresh = res.SessionToken, res.RefreshToken
		return nil
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "authenticate", authStats)
	printStats(out, "refresh", refreshStats)
	return nil
}

func loadEngine(client redis.UniversalClient, callers *loadCallers) (*goGuard.Engine, error) {
	secret := make([]byte, 48)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	cfg := goGuard.DefaultConfig()
	cfg.Crypto.Secret = base64.RawURLEncoding.EncodeToString(secret)
	cfg.RateLimit.Enabled = false
	cfg.Audit.Enabled = false
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.UpgradeOnLogin = false

	return goGuard.New().
		WithConfig(cfg).
		WithRedis(client).
		WithCallerProvider(callers).
		WithTenantLookup(loadTenants{}).
		Build()
}

func seedSessions(ctx context.Context, engine *goGuard.Engine, n, concurrency int) ([]sessionState, error) {
	states := make([]sessionState, n)
	var (
		wg       sync.WaitGroup
		cursor   int64
		mu       sync.Mutex
		firstErr error
	)
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					return
				}
				res, err := engine.Login(ctx, goGuard.LoginRequest{
					Identifier: loadEmail(i),
					Password:   loadPassword,
				})
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				states[i].token = res.SessionToken
				states[i].refresh = res.RefreshToken
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, fmt.Errorf("login failed: %w", firstErr)
	}
	return states, nil
}

func runPhase(states []sessionState, ops, concurrency int, seed int64, op func(*sessionState) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]
				t0 := time.Now()
				err := op(state)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func loadEmail(i int) string {
	return fmt.Sprintf("user-%d@load.test", i)
}

// loadCallers is a read-only in-memory CallerProvider sharing one hash.
type loadCallers struct {
	byEmail map[string]goGuard.CallerRecord
	byID    map[string]goGuard.CallerRecord
}

func newLoadCallers(n int) (*loadCallers, error) {
	params := password.DefaultParams()
	params.Memory = 8 * 1024
	params.Time = 1
	hasher, err := password.NewHasher(params)
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(loadPassword)
	if err != nil {
		return nil, err
	}

	c := &loadCallers{
		byEmail: make(map[string]goGuard.CallerRecord, n),
		byID:    make(map[string]goGuard.CallerRecord, n),
	}
	for i := 0; i < n; i++ {
		rec := goGuard.CallerRecord{
			ID:           fmt.Sprintf("u-%d", i),
			Email:        loadEmail(i),
			Name:         fmt.Sprintf("Load User %d", i),
			Role:         permission.RoleEditor,
			PasswordHash: hash,
			UserType:     session.UserTypeTenantUser,
			TenantID:     loadTenantID,
			TenantSlug:   loadTenantSlug,
			Active:       true,
		}
		c.byEmail[rec.Email] = rec
		c.byID[rec.ID] = rec
	}
	return c, nil
}

func (c *loadCallers) FindByIdentifier(_ context.Context, identifier string, userType session.UserType) (goGuard.CallerRecord, error) {
	return c.match(c.byEmail[strings.ToLower(identifier)], userType)
}

func (c *loadCallers) FindByID(_ context.Context, id string, userType session.UserType) (goGuard.CallerRecord, error) {
	return c.match(c.byID[id], userType)
}

func (c *loadCallers) match(rec goGuard.CallerRecord, userType session.UserType) (goGuard.CallerRecord, error) {
	if rec.ID == "" || (userType != "" && rec.UserType != userType) {
		return goGuard.CallerRecord{}, goGuard.ErrCallerNotFound
	}
	return rec, nil
}

type loadTenants struct{}

func (loadTenants) FindByID(_ context.Context, id string) (*tenant.Tenant, error) {
	if id != loadTenantID {
		return nil, tenant.ErrTenantNotFound
	}
	return loadTenant(), nil
}

func (loadTenants) FindBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	if slug != loadTenantSlug {
		return nil, tenant.ErrTenantNotFound
	}
	return loadTenant(), nil
}

func loadTenant() *tenant.Tenant {
	return &tenant.Tenant{ID: loadTenantID, Slug: loadTenantSlug, Name: "Load", IsActive: true}
}
