package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultAddr         = ":5000"
	DefaultRooms        = "general,random,tech"
	DefaultHistoryLimit = 50
	DefaultSendBuffer   = 256
)

// Config holds all configuration for the chat service.
type Config struct {
	// Addr is the listen address for the HTTP/WebSocket server.
	Addr string
	// Rooms is the set of rooms seeded at startup. The first entry is the
	// room new connections are placed in.
	Rooms []string
	// HistoryLimit caps how many messages of room history are sent to a
	// client. Storage itself is unbounded; this is a read-time limit.
	HistoryLimit int
	// SendBuffer is the per-connection outbound channel capacity.
	SendBuffer int
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		Addr:         getenv("ADDR", DefaultAddr),
		Rooms:        splitList(getenv("CHAT_ROOMS", DefaultRooms)),
		HistoryLimit: getenvInt("HISTORY_LIMIT", DefaultHistoryLimit),
		SendBuffer:   getenvInt("SEND_BUFFER", DefaultSendBuffer),
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
	if err != nil || n <= 0 {
		log.Printf("Invalid value for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
