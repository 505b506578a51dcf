// Load generator for the referral API. Registers accounts and redeems
// referral codes concurrently, which doubles as a live soak of the
// code-uniqueness and single-redemption guarantees.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
)

// Metrics
var (
	totalRequests uint64
	success2xx    uint64
	userErrors4xx uint64
	conflicts     uint64 // duplicate email / already redeemed
	failOther     uint64
)

// codePool collects referral codes returned by successful
// registrations so redeem workers have valid codes to apply.
var codePool struct {
	mu    sync.Mutex
	codes []string
}

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "mixed", "Workload type: register | redeem | mixed")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, i, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, id int, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	seq := 0
	for time.Since(start) < duration {
		seq++
		switch workload {
		case "register":
			register(client, id, seq)
		case "redeem":
			redeem(client, id, seq)
		default:
			// Mixed: mostly registrations, which feed the code pool
			// the redemptions draw from.
			if rand.Intn(100) < 70 {
				register(client, id, seq)
			} else {
				redeem(client, id, seq)
			}
		}
	}
}

func register(client *http.Client, id, seq int) {
	email := fmt.Sprintf("bench-%d-%d-%d@load.test", id, seq, time.Now().UnixNano())
	payload := map[string]string{
		"name":     fmt.Sprintf("Bench User %d", id),
		"email":    email,
		"password": "benchmark-pw",
	}

	code, body := post(client, "/api/v1/register", payload)
	if code != http.StatusCreated {
		return
	}

	var resp struct {
		User struct {
			ReferralCode string `json:"referral_code"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.User.ReferralCode != "" {
		codePool.mu.Lock()
		codePool.codes = append(codePool.codes, resp.User.ReferralCode)
		codePool.mu.Unlock()
	}
}

func redeem(client *http.Client, id, seq int) {
	codePool.mu.Lock()
	n := len(codePool.codes)
	var code string
	if n > 0 {
		code = codePool.codes[rand.Intn(n)]
	}
	codePool.mu.Unlock()
	if code == "" {
		return
	}

	// Register a fresh applicant, then redeem into it. Occasionally
	// reuse an applicant to exercise the already-redeemed path.
	email := fmt.Sprintf("redeemer-%d-%d@load.test", id, seq/3)
	post(client, "/api/v1/register", map[string]string{
		"name": "Redeemer", "email": email, "password": "benchmark-pw",
	})
	post(client, "/api/v1/apply-referral", map[string]string{
		"email": email, "referral_code": code,
	})
}

func post(client *http.Client, path string, payload map[string]string) (int, []byte) {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", targetURL+path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddUint64(&failOther, 1)
		return 0, nil
	}
	defer resp.Body.Close()

	atomic.AddUint64(&totalRequests, 1)
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		atomic.AddUint64(&success2xx, 1)
	case resp.StatusCode == http.StatusConflict:
		atomic.AddUint64(&conflicts, 1)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		atomic.AddUint64(&userErrors4xx, 1)
	default:
		atomic.AddUint64(&failOther, 1)
	}

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.Bytes()
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	ok := atomic.LoadUint64(&success2xx)
	conf := atomic.LoadUint64(&conflicts)
	user := atomic.LoadUint64(&userErrors4xx)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()

	results := map[string]interface{}{
		"workload":       workload,
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_tps": tps,
		"success":        ok,
		"conflicts":      conf,
		"user_errors":    user,
		"errors":         fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, _ := os.Create(filename)
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
