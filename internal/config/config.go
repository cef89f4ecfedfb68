// Package config loads server settings from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable. Defaults match the reference limits:
// 1000 retained messages, 50-message join snapshot, 500-character
// messages, 1s typing timeout, 100-event outbound queues.
type Config struct {
	Port string

	HistoryRetain   int
	HistorySnapshot int
	MessageMaxLen   int
	TypingTimeout   time.Duration
	SendQueue       int

	// Per-session event limits, per minute.
	MessageRate int
	TypingRate  int

	// Per-IP connection attempts on /ws, per minute.
	IPRate int
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %+v", err)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		HistoryRetain:   getenvInt("CHAT_HISTORY_RETAIN", 1000),
		HistorySnapshot: getenvInt("CHAT_HISTORY_SNAPSHOT", 50),
		MessageMaxLen:   getenvInt("CHAT_MESSAGE_MAX_LEN", 500),
		TypingTimeout:   time.Duration(getenvInt("CHAT_TYPING_TIMEOUT_MS", 1000)) * time.Millisecond,
		SendQueue:       getenvInt("CHAT_SEND_QUEUE", 100),
		MessageRate:     getenvInt("CHAT_MSG_RATE", 30),
		TypingRate:      getenvInt("CHAT_TYPING_RATE", 60),
		IPRate:          getenvInt("WS_IP_RATE", 10),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
