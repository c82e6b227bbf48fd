package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"pedidobot/internal/config"
	"pedidobot/internal/delivery"
	"pedidobot/internal/notifications"
	"pedidobot/internal/services/llm"
	"pedidobot/internal/store"
)

// CheckLLM verifies that the classifier model is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg *config.Config) Result {
	if cfg.Classifier.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.Classifier.APIKey,
		BaseURL: cfg.Classifier.BaseURL,
		Model:   cfg.Classifier.Model,
		Referer: cfg.Classifier.Referer,
		Title:   cfg.Classifier.Title,
	}, llm.WithRetry(1, 0, 0))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckBridge verifies that the outbound WhatsApp bridge answers its health endpoint.
func CheckBridge(ctx context.Context, cfg *config.Config) Result {
	const name = "WhatsApp bridge"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := delivery.NewBridgeClientFromConfig(cfg).WithRetry(1, 0, 0)
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", client.BaseURL(), summarizeError(err))}
	}
	return Result{Name: name, Passed: true, Detail: client.BaseURL() + " (reachable)"}
}

// CheckRedis verifies that the event channel's Redis server answers PING.
func CheckRedis(ctx context.Context, rawURL string) Result {
	const name = "Redis events"

	emitter, err := notifications.NewRedis(rawURL, "")
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer emitter.Close()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := emitter.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "channel " + emitter.Channel()}
}

// CheckDatabase opens the store and runs a ping against it.
func CheckDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Database"

	st, err := store.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.DatabasePath(), err)}
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", st.Path(), err)}
	}
	return Result{Name: name, Passed: true, Detail: st.Path()}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeError produces a human-readable summary for health check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (service unreachable)"
	}
	return err.Error()
}
