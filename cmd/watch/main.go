// Package main connects one or more dashboard websocket clients and prints
// the pushed events. With -clients > 1 it doubles as a fan-out load check.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

// Metrics tracks connection and delivery counts.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	users := flag.String("users", "", "Comma-separated user ids to connect as")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret used to mint dev tokens")
	clients := flag.Int("clients", 1, "Connections per user")
	duration := flag.Duration("duration", 0, "Stop after this long (0 waits for interrupt)")
	quiet := flag.Bool("quiet", false, "Only print the summary")
	flag.Parse()

	ids := splitIDs(*users)
	if len(ids) == 0 || *secret == "" {
		log.Fatal("-users and -secret (or JWT_SECRET) are required")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for _, uid := range ids {
		token, err := mint(*secret, uid)
		if err != nil {
			log.Fatalf("mint token for %s: %v", uid, err)
		}
		for i := 0; i < *clients; i++ {
			wg.Add(1)
			go runClient(*host, uid, token, *quiet, stop, &wg)
		}
	}

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}
	select {
	case <-timeout:
		log.Println("duration reached")
	case <-interrupt:
		log.Println("interrupted")
	}

	close(stop)
	wg.Wait()
	printMetrics()
}

func splitIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func mint(secret, uid string) (string, error) {
	claims := jwt.MapClaims{
		"sub":            uid,
		"email_verified": true,
		"exp":            time.Now().Add(12 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func runClient(host, uid, token string, quiet bool, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "token=" + url.QueryEscape(token)}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		log.Printf("[%s] dial failed: %v", uid, err)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
			if quiet {
				continue
			}
			var ev event
			if err := json.Unmarshal(raw, &ev); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			fmt.Printf("%s [%s] %s %s\n", time.Now().Format(time.TimeOnly), uid, ev.Type, ev.Payload)
		}
	}()

	select {
	case <-stop:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		<-done
	case <-done:
		log.Printf("[%s] connection closed by server", uid)
	}
}

func printMetrics() {
	fmt.Println("--- watch summary ---")
	fmt.Printf("connections: %d attempted, %d ok, %d failed\n",
		metrics.ConnectionsAttempted, metrics.ConnectionsSuccess, metrics.ConnectionsFailed)
	fmt.Printf("events received: %d\n", metrics.EventsReceived)
	fmt.Printf("errors: %d\n", metrics.Errors)
}
