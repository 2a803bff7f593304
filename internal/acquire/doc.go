package acquire

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// docText converts a legacy Word file with antiword.
func (a *Acquirer) docText(ctx context.Context, data []byte) (string, error) {
	path, cleanup, err := writeTemp(data, ".doc")
	if err != nil {
		return "", err
	}
	defer cleanup()

	// antiword -m UTF-8.txt <file>
	out, errb, err := a.runner.Run(ctx, a.cfg.Antiword, "-m", "UTF-8.txt", path)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("antiword: %s", msg)
		}
		return "", fmt.Errorf("antiword: %w", err)
	}
	return string(out), nil
}

// writeTemp persists data to a uniquely named file. cleanup removes it and is
// safe to defer immediately.
func writeTemp(data []byte, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "docintel-*"+ext)
	if err != nil {
		return "", func() {}, err
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return path, cleanup, nil
}
