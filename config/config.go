package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration shared by the media server
// and render daemons. Values come from the environment with simple defaults.
type Config struct {
	MediaDir    string // directory of audio files, one track per file
	PlaylistDir string // directory of .playlist JSON sidecar files
	UsersFile   string // JSON credential file

	ServerAddr string // media server listen address
	RenderAddr string // render daemon listen address
	ServerURL  string // media server base URL, used by render-side clients

	TokenSecret string // HMAC secret for session bearer tokens
	ChunkSize   int    // default audio chunk size in bytes

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		MediaDir:    getEnv("MEDIA_DIR", "media"),
		PlaylistDir: getEnv("PLAYLIST_DIR", "playlists"),
		UsersFile:   getEnv("USERS_FILE", "users.json"),

		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		RenderAddr: getEnv("RENDER_ADDR", ":8081"),
		ServerURL:  getEnv("SERVER_URL", "http://127.0.0.1:8080"),

		TokenSecret: getEnv("TOKEN_SECRET", "cadenza-dev-secret"),
		ChunkSize:   getEnvInt("CHUNK_SIZE", 64*1024),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
