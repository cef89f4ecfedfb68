// Command loadtest drives a running chat server with N websocket
// clients that join, type, and send messages, then reports how many
// events of each type came back.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
)

type clientEvent struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
	Typing   bool   `json:"typing,omitempty"`
}

type serverEvent struct {
	Type string `json:"type"`
}

type counters struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *counters) inc(eventType string) {
	c.mu.Lock()
	c.counts[eventType]++
	c.mu.Unlock()
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "websocket endpoint")
	clients := flag.Int("clients", 10, "number of concurrent clients")
	messages := flag.Int("messages", 20, "messages sent per client")
	interval := flag.Duration("interval", 100*time.Millisecond, "delay between messages")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	received := &counters{counts: make(map[string]int)}

	var wg sync.WaitGroup
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := runClient(ctx, *addr, n, *messages, *interval, received); err != nil {
				log.Printf("client %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	fmt.Println("events received:")
	received.mu.Lock()
	for eventType, n := range received.counts {
		fmt.Printf("  %-14s %d\n", eventType, n)
	}
	received.mu.Unlock()
}

func runClient(ctx context.Context, addr string, n, messages int, interval time.Duration, received *counters) error {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	readCtx, stopRead := context.WithCancel(ctx)
	defer stopRead()

	go func() {
		for {
			_, p, err := conn.Read(readCtx)
			if err != nil {
				return
			}
			var ev serverEvent
			if err := json.Unmarshal(p, &ev); err != nil {
				continue
			}
			received.inc(ev.Type)
		}
	}()

	username := fmt.Sprintf("loadtest-%d", n)
	if err := send(ctx, conn, clientEvent{Type: "join", Username: username}); err != nil {
		return err
	}

	for i := 0; i < messages; i++ {
		if err := send(ctx, conn, clientEvent{Type: "typing", Typing: true}); err != nil {
			return err
		}
		msg := clientEvent{
			Type:    "message",
			Message: fmt.Sprintf("message %d from %s", i, username),
		}
		if err := send(ctx, conn, msg); err != nil {
			return err
		}
		if err := send(ctx, conn, clientEvent{Type: "typing"}); err != nil {
			return err
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Give broadcasts from the other clients a moment to arrive.
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}

	return nil
}

func send(ctx context.Context, conn *websocket.Conn, ev clientEvent) error {
	p, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, p)
}
