package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// DefaultPollInterval is how often Follow checks for appended lines.
const DefaultPollInterval = 250 * time.Millisecond

// Read returns the last limit entries of path that match f and the offset
// just past the end of the file. A limit of zero returns every match. A
// missing file yields no entries.
func Read(path string, f Filter, limit int) ([]Entry, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	var (
		ring  []Entry
		start int
	)
	err = scanEntries(file, f, func(e Entry) {
		if limit <= 0 || len(ring) < limit {
			ring = append(ring, e)
			return
		}
		ring[start] = e
		start = (start + 1) % limit
	})
	if err != nil {
		return nil, 0, err
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return append(ring[start:], ring[:start]...), offset, nil
}

// Follow reports entries appended to path after offset until ctx ends. A
// rotated file, detected by shrinking below the offset, is read from the
// start.
func Follow(ctx context.Context, path string, offset int64, f Filter, interval time.Duration, fn func(Entry) error) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, f, fn)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, f Filter, fn func(Entry) error) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	var cbErr error
	err = scanEntries(file, f, func(e Entry) {
		if cbErr == nil {
			cbErr = fn(e)
		}
	})
	if err != nil {
		return offset, err
	}
	if cbErr != nil {
		return offset, cbErr
	}
	return file.Seek(0, io.SeekCurrent)
}

// scanEntries feeds matching entries of file to emit. Only complete lines are
// consumed so a partially written record is read on the next pass.
func scanEntries(file *os.File, f Filter, emit func(Entry)) error {
	start, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("determine log offset: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	consumed := start
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if e, ok := ParseLine(line); ok && f.Match(e) {
			emit(e)
		}
	}
	if _, err := file.Seek(consumed, io.SeekStart); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}
	return nil
}
