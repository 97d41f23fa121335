package main

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
)

// Swarm of websocket subscribers for eyeballing fan-out throughput.
// Every client joins the same group and counts the events it receives
// until the run duration elapses.
type Config struct {
	URL      string        `default:"ws://localhost:8080/ws"`
	Group    string        `required:"true"`
	Clients  int           `default:"10"`
	Duration time.Duration `default:"30s"`
}

func main() {
	var config Config
	if err := envconfig.Process("loadtest", &config); err != nil {
		log.Fatalf("config error: %v", err)
	}
	group, err := uuid.Parse(config.Group)
	if err != nil {
		log.Fatalf("LOADTEST_GROUP must be a uuid: %v", err)
	}

	log.Printf("Starting %d subscribers on %s for %s...", config.Clients, config.URL, config.Duration)
	deadline := time.Now().Add(config.Duration)
	var received atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < config.Clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conn, _, err := websocket.DefaultDialer.Dial(config.URL, nil)
			if err != nil {
				log.Printf("client %d: dial failed: %v", n, err)
				return
			}
			defer conn.Close()

			join := map[string]any{"action": "join", "groupId": group}
			if err := conn.WriteJSON(join); err != nil {
				log.Printf("client %d: join failed: %v", n, err)
				return
			}

			_ = conn.SetReadDeadline(deadline)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
				received.Add(1)
			}
		}(i)
	}

	wg.Wait()
	log.Printf("%d clients received %d events in %s", config.Clients, received.Load(), config.Duration)
}
