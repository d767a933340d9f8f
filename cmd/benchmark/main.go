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

	"github.com/punchamoorthee/contractledger/internal/models"
)

// Config holds the benchmark settings
var (
	targetURL   string
	group       string
	accounts    int
	concurrency int
	duration    time.Duration
	workload    string
	idPrefix    string
)

// outcomes counts responses per status code; 0 holds transport errors and
// unexpected codes land in the 500 bucket.
var (
	totalRequests uint64
	outcomes      = map[int]*uint64{
		0:                              new(uint64),
		http.StatusOK:                  new(uint64),
		http.StatusBadRequest:          new(uint64),
		http.StatusConflict:            new(uint64),
		http.StatusUnprocessableEntity: new(uint64),
		http.StatusServiceUnavailable:  new(uint64),
		http.StatusInternalServerError: new(uint64),
	}
)

func count(status int) {
	c, ok := outcomes[status]
	if !ok {
		c = outcomes[http.StatusInternalServerError]
	}
	atomic.AddUint64(c, 1)
}

func load(status int) uint64 { return atomic.LoadUint64(outcomes[status]) }

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.StringVar(&group, "group", "bench", "Group seeded by cmd/seeder")
	flag.IntVar(&accounts, "accounts", 1000, "Number of seeded accounts")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.StringVar(&idPrefix, "prefix", "", "User id prefix used by the seeder")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}
	endpoint := fmt.Sprintf("%s/api/v1/groups/%s/commands", targetURL, group)

	for time.Since(start) < duration {
		buyer, target := generateAccounts()

		// Hires a free target or takes over an owned one; the server decides.
		payload := models.CommandRequest{
			SenderID: userID(buyer),
			Command:  "hire",
			Mentions: []string{userID(target)},
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", endpoint, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			count(0)
			continue
		}
		atomic.AddUint64(&totalRequests, 1)
		count(resp.StatusCode)
		resp.Body.Close()
	}
}

func userID(i int) string {
	return fmt.Sprintf("%s%d", idPrefix, i)
}

func generateAccounts() (int, int) {
	if workload == "hotspot" {
		// Hotspot: 90% of traffic fights over accounts 1 and 2
		if rand.Float32() < 0.90 {
			buyer := rand.Intn(accounts) + 1
			target := rand.Intn(2) + 1
			if buyer != target {
				return buyer, target
			}
		}
	}

	// Uniform Random
	a := rand.Intn(accounts) + 1
	b := rand.Intn(accounts) + 1
	for a == b && accounts > 1 {
		b = rand.Intn(accounts) + 1
	}
	return a, b
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	report := struct {
		Workload      string  `json:"workload"`
		Group         string  `json:"group"`
		Workers       int     `json:"workers"`
		DurationSec   float64 `json:"duration_sec"`
		Total         uint64  `json:"total_requests"`
		TPS           float64 `json:"throughput_tps"`
		Committed     uint64  `json:"committed"`
		Invalid       uint64  `json:"rejected_validation"`
		Conflicts     uint64  `json:"aborts_conflict"`
		Insufficient  uint64  `json:"insufficient_funds"`
		PersistFailed uint64  `json:"persistence_failures"`
		ServerErrors  uint64  `json:"server_errors"`
		Transport     uint64  `json:"transport_errors"`
		AbortRatePct  float64 `json:"abort_rate_pct"`
	}{
		Workload:      workload,
		Group:         group,
		Workers:       concurrency,
		DurationSec:   d.Seconds(),
		Total:         total,
		TPS:           float64(total) / d.Seconds(),
		Committed:     load(http.StatusOK),
		Invalid:       load(http.StatusBadRequest),
		Conflicts:     load(http.StatusConflict),
		Insufficient:  load(http.StatusUnprocessableEntity),
		PersistFailed: load(http.StatusServiceUnavailable),
		ServerErrors:  load(http.StatusInternalServerError),
		Transport:     load(0),
	}
	if total > 0 {
		report.AbortRatePct = float64(report.Conflicts) / float64(total) * 100
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encode results: %v", err)
	}
	fmt.Println(string(out))

	filename := fmt.Sprintf("results_%s_%s.json", group, workload)
	if err := os.WriteFile(filename, out, 0o644); err != nil {
		log.Printf("could not save results: %v", err)
	}
}
