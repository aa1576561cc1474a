package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/logging"
	"github.com/MrEthical07/goSession/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var loadtestSigningKey = []byte("gosession-loadtest-key")

const policyYAML = `
landing: /welcome
public:
  - /welcome
rules:
  - prefix: /member
    min_role: client
  - prefix: /trainer
    min_role: trainer
  - prefix: /admin
    min_role: admin
homes:
  client: /member/home
  trainer: /trainer/schedule
`

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of stored tokens to seed")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase (handshake + guard)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "token store key prefix")
		verbose     = flag.Bool("verbose", false, "log manager activity to the console")
		logFile     = flag.String("log-file", "", "also write manager logs to this rotated file")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()
	logger := buildLogger(*verbose, *logFile)

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	policy, err := guard.ParsePolicy([]byte(policyYAML))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse policy: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeding %d stored tokens...\n", *sessions)
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		tokens := store.NewRedis(client, storeKey(*prefix, i), time.Hour)
		if err := tokens.Set(ctx, mintToken(fmt.Sprintf("user-%d", i), "client", time.Hour)); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	handshakeStats := runHandshakePhase(ctx, client, logger, policy, *prefix, *sessions, *ops, *concurrency)
	guardStats := runGuardPhase(ctx, client, logger, policy, *prefix, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("handshake", handshakeStats)
	printStats("guard", guardStats)
}

func buildLogger(verbose bool, logFile string) zerolog.Logger {
	if !verbose && logFile == "" {
		return logging.Nop()
	}
	cfg := logging.Config{Console: verbose}
	if verbose {
		cfg.Level = "debug"
	}
	if logFile != "" {
		cfg.File = &logging.FileConfig{
			Filename:   logFile,
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		}
	}
	return logging.New(cfg)
}

func storeKey(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}

// runHandshakePhase measures the full bring-up: build a manager over an
// already-seeded store key, start it, and wait for settlement.
func runHandshakePhase(ctx context.Context, client redis.UniversalClient, logger zerolog.Logger, policy *guard.Policy, prefix string, sessions, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(sessions)
				tokens := store.NewRedis(client, storeKey(prefix, idx), time.Hour)

				t0 := time.Now()
				manager, err := goSession.New().
					WithStore(tokens).
					WithResolver(claimsResolver()).
					WithPolicy(policy).
					WithLogger(logger).
					Build()
				if err == nil {
					if err = manager.Start(ctx); err == nil {
						_, err = manager.AwaitSettlement(ctx)
					}
				}
				d := time.Since(t0)
				if manager != nil {
					manager.Close()
				}
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
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runGuardPhase measures route decisions on one settled, resolved
// session. This is the in-memory hot path every navigation takes.
func runGuardPhase(ctx context.Context, client redis.UniversalClient, logger zerolog.Logger, policy *guard.Policy, prefix string, ops, concurrency int) phaseStats {
	tokens := store.NewRedis(client, storeKey(prefix, 0), time.Hour)
	manager, err := goSession.New().
		WithStore(tokens).
		WithResolver(claimsResolver()).
		WithPolicy(policy).
		WithLogger(logger).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "guard phase build: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	if err := manager.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "guard phase start: %v\n", err)
		os.Exit(1)
	}
	if _, err := manager.AwaitSettlement(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "guard phase settle: %v\n", err)
		os.Exit(1)
	}
	waitForIdentity(manager)

	targets := []string{"/welcome", "/member/home", "/member/schedule", "/trainer/schedule", "/admin/panel"}

	var (
		wg        sync.WaitGroup
		cursor    int64
		redirects int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				target := targets[r.Intn(len(targets))]
				t0 := time.Now()
				d := manager.Guard(target)
				lat := time.Since(t0)
				if !d.Allow {
					atomic.AddInt64(&redirects, 1)
				}

				mu.Lock()
				latencies = append(latencies, lat)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)

	fmt.Printf("guard redirects: %d (over-ranked targets corrected)\n", atomic.LoadInt64(&redirects))
	return computeStats(total, latencies, 0)
}

// waitForIdentity blocks until the async identity resolution lands. The
// guard phase measures decisions on an authenticated session, not the
// settle-window pass-through.
func waitForIdentity(manager *goSession.Manager) {
	ready := make(chan struct{})
	var once sync.Once
	cancel := manager.Subscribe(func(s goSession.SessionState) {
		if s.Identity != nil {
			once.Do(func() { close(ready) })
		}
	})
	defer cancel()

	if manager.State().Identity != nil {
		return
	}
	select {
	case <-ready:
	case <-time.After(10 * time.Second):
		fmt.Fprintln(os.Stderr, "identity never resolved")
		os.Exit(1)
	}
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

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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

func mintToken(userID, role string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(loadtestSigningKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}
	return tok
}

// claimsResolver trusts the claims the loadtest minted itself.
func claimsResolver() goSession.IdentityResolverFunc {
	return func(_ context.Context, tok string) (*goSession.Identity, error) {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
			return nil, nil
		}
		sub, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		if sub == "" || role == "" {
			return nil, nil
		}
		return &goSession.Identity{UserID: sub, Role: role, Status: goSession.AccountActive}, nil
	}
}
