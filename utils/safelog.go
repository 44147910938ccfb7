// utils/safelog.go
// ============================================================================
// SAFE LOGGING - Masks tokens and keys in production
// ============================================================================
// Leveled logging helpers that automatically mask chatbot session tokens and
// API keys when running in release mode, so upstream credentials and
// conversation identifiers never land in hosted logs.
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
)

var (
	// IsProduction switches masking on. Mirrors gin's release mode.
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"

	LogLevel = getLogLevel()
)

const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	switch level {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

var (
	// UUID-shaped session tokens
	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

	// Long opaque credentials (maps key, upstream bearer tokens)
	apiKeyRegex = regexp.MustCompile(`\b[A-Za-z0-9_-]{28,}\b`)
)

// MaskString masks session tokens and credential-shaped strings.
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := uuidRegex.ReplaceAllStringFunc(input, func(token string) string {
		return token[:8] + "..."
	})
	result = apiKeyRegex.ReplaceAllString(result, "***KEY***")

	return result
}

// MaskID masks an opaque identifier, keeping an 8-char prefix for correlation.
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

func SafeLog(format string, args ...interface{}) {
	log.Print(MaskString(fmt.Sprintf(format, args...)))
}

func SafeDebug(format string, args ...interface{}) {
	if LogLevel > LogLevelDebug {
		return
	}
	log.Printf("[DEBUG] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeInfo(format string, args ...interface{}) {
	if LogLevel > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeWarn(format string, args ...interface{}) {
	if LogLevel > LogLevelWarn {
		return
	}
	log.Printf("[WARN] %s", MaskString(fmt.Sprintf(format, args...)))
}

func SafeError(format string, args ...interface{}) {
	log.Printf("[ERROR] %s", MaskString(fmt.Sprintf(format, args...)))
}

// LogChatAction logs a conversation action without exposing the token.
func LogChatAction(action string, conversationID string, sessionID string) {
	log.Printf("[Chat] %s - Conversation: %s Session: %s",
		action,
		MaskID(conversationID),
		MaskID(sessionID))
}

// LogUpstreamRequest logs a call against the outlet backend.
func LogUpstreamRequest(method string, path string, statusCode int, duration string) {
	log.Printf("[Upstream] %s %s - Status: %d Duration: %s",
		method,
		MaskString(path),
		statusCode,
		duration)
}

// LogWebSocket logs a map hub action.
func LogWebSocket(action string, detail string) {
	log.Printf("[WS] %s - %s", action, MaskString(detail))
}

// GetEnvMode returns the current environment mode label.
func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

// LogStartup logs service boot information.
func LogStartup(appName string, version string, port string) {
	log.Printf("🚀 %s v%s starting...", appName, version)
	log.Printf("   Mode: %s", GetEnvMode())
	log.Printf("   Port: %s", port)
	if IsProduction {
		log.Printf("   ⚠️  Production mode: tokens will be masked in logs")
	}
}
