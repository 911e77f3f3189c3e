// Package notifier sends desktop notifications through the habitflow tray
// app when it is running.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/repository"
)

// ErrTrayNotRunning is returned when no live tray process owns the lockfile
var ErrTrayNotRunning = errors.New(constants.TrayAppExecutable + " is not running")

const secretHeader = "X-Habitflow-Secret"

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

type Notifier struct {
	client  *http.Client
	pending sync.WaitGroup
}

type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

// trayLock is the content of the tray lockfile: "port|pid|secret".
type trayLock struct {
	port   int
	pid    int
	secret string
}

func New() *Notifier {
	return &Notifier{client: &http.Client{Timeout: constants.NotifyTimeout}}
}

// Notify shows text in the tray app.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	lock, err := n.lookup()
	if err != nil {
		return err
	}
	return n.send(ctx, lock.port, lock.secret, WebhookPayload{
		Text:       text,
		DurationMs: constants.NotificationDurationMs,
	})
}

// Available reports whether a tray app is running and reachable through
// its lockfile.
func (n *Notifier) Available() error {
	_, err := n.lookup()
	return err
}

var _ repository.Reporter = (*Notifier)(nil)

// ReportError tells the user a habit change was not saved. It does not
// block the caller; short-lived callers use Flush before exiting.
func (n *Notifier) ReportError(op string, err error) {
	text := failureText(op)
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), constants.NotifyTimeout)
		defer cancel()
		if nerr := n.Notify(ctx, text); nerr != nil {
			logger.Debug("tray notification skipped", "op", op, "error", nerr)
		}
	}()
}

// Flush waits for in-flight notifications, giving up after timeout.
// It reports whether everything was delivered or dropped in time.
func (n *Notifier) Flush(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		n.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func failureText(op string) string {
	switch op {
	case repository.OpFetchAll:
		return "Couldn't load your habits"
	case repository.OpCreate:
		return "Couldn't save the new habit"
	case repository.OpUpdate:
		return "Couldn't save today's check-in; it was undone"
	case repository.OpRemove:
		return "Couldn't delete the habit; it was restored"
	default:
		return "Something went wrong saving your habits"
	}
}

func (n *Notifier) lookup() (trayLock, error) {
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return trayLock{}, err
	}
	return findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName))
}

// GetTrayAppConfigDir returns the directory holding the tray lockfile. The
// tray's settings.json may move it with "lockfile_dir".
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err != nil {
		return trayConfigDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err == nil && store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
		return *store.Settings.LockfileDir, nil
	}
	return trayConfigDir, nil
}

func parseLockfile(content string) (trayLock, error) {
	parts := strings.Split(strings.TrimSpace(content), "|")
	if len(parts) != 3 {
		return trayLock{}, errors.New("lockfile is malformed")
	}

	if strings.TrimSpace(parts[0]) == "" {
		return trayLock{}, errors.New("port in lockfile is empty")
	}
	port, err := strconv.Atoi(parts[0])
	if err != nil {
		return trayLock{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return trayLock{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return trayLock{}, errors.New("invalid process ID in lockfile")
	}

	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return trayLock{}, errors.New("secret in lockfile is empty")
	}

	return trayLock{port: port, pid: pid, secret: secret}, nil
}

func findAndValidateTrayProcess(lockfilePath string) (trayLock, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return trayLock{}, ErrTrayNotRunning
	}

	lock, err := parseLockfile(string(content))
	if err != nil {
		return trayLock{}, err
	}

	process, err := findProcessFunc(lock.pid)
	if err != nil || process == nil {
		return trayLock{}, ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayAppExecutable) {
		return trayLock{}, fmt.Errorf("process with PID %d is not %s (is %s)", lock.pid, constants.TrayAppExecutable, process.Executable())
	}

	return lock, nil
}

func (n *Notifier) send(ctx context.Context, port int, secret string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://127.0.0.1:%d", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	msg, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(msg))
}
