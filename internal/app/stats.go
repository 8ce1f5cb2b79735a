package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/neilotoole/jsoncolor"
)

const statsTimeout = 5 * time.Second

// PrintCacheStats fetches the cache statistics of a running ticker from its
// diagnostics server and writes them to w, colorized when color is set.
func PrintCacheStats(ctx context.Context, addr string, w io.Writer, color bool) error {
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL(addr), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query cache stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query cache stats: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode cache stats: %w", err)
	}
	var stats any
	if err := json.Unmarshal(body.Data, &stats); err != nil {
		return fmt.Errorf("decode cache stats: %w", err)
	}

	if color {
		enc := jsoncolor.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetColors(jsoncolor.DefaultColors())
		return enc.Encode(stats)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	o, err := f.Stat()
	return err == nil && o.Mode()&os.ModeCharDevice != 0
}

func statsURL(addr string) string {
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/") + "/api/cache/stats"
}
