// Package logging mirrors the standard logger into a daily log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	dateLayout       = "2006-01-02"
	defaultRetention = 7
	rotateCheckTick  = time.Minute
)

// Setup sends log output to stdout and to dir/app-<date>.log, switching
// files at midnight and keeping retentionDays days of files (7 when unset). The
// returned func stops rotation and closes the current file.
func Setup(dir string, retentionDays int) (func(), error) {
	if retentionDays <= 0 {
		retentionDays = defaultRetention
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	currentDate := time.Now().Format(dateLayout)
	file, err := openLogFile(dir, currentDate)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	Cleanup(dir, retentionDays, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(rotateCheckTick)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				date := now.Format(dateLayout)
				mu.Lock()
				if date != currentDate {
					next, err := openLogFile(dir, date)
					if err == nil {
						log.SetOutput(io.MultiWriter(os.Stdout, next))
						_ = file.Close()
						file = next
						currentDate = date
						Cleanup(dir, retentionDays, now)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		mu.Lock()
		log.SetOutput(os.Stdout)
		_ = file.Close()
		mu.Unlock()
	}, nil
}

func fileName(date string) string {
	return fmt.Sprintf("app-%s.log", date)
}

func openLogFile(dir, date string) (*os.File, error) {
	return os.OpenFile(filepath.Join(dir, fileName(date)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Cleanup removes log files older than retentionDays days, counting today.
func Cleanup(dir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	today, _ := time.Parse(dateLayout, now.Format(dateLayout))
	cutoff := today.AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		logDate, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log"))
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}
