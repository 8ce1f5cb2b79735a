package screen

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultOrder is used when SCREEN_ORDER is empty or names no known screen.
var DefaultOrder = []string{IDExchangeRates, IDBitcoinPrices, IDWeather}

var ErrNoScreens = errors.New("no screens configured")

// ParseOrder splits a comma separated SCREEN_ORDER value into lower-case ids.
func ParseOrder(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.ToLower(strings.TrimSpace(part))
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Sequencer cycles through an ordered list of screens.
type Sequencer struct {
	mu      sync.RWMutex
	screens []Screen
	pos     int
}

// NewSequencer arranges the available screens in the requested order.
// Unknown and repeated ids are skipped with a warning. When nothing in order
// matches, DefaultOrder is used instead.
func NewSequencer(order []string, available ...Screen) (*Sequencer, error) {
	byID := make(map[string]Screen, len(available))
	for _, s := range available {
		byID[s.ID()] = s
	}

	screens := arrange(order, byID, true)
	if len(screens) == 0 {
		if len(order) > 0 {
			log.Warn().Strs("order", order).Msg("No known screen in order, using default")
		}
		screens = arrange(DefaultOrder, byID, false)
	}
	if len(screens) == 0 {
		return nil, ErrNoScreens
	}
	return &Sequencer{screens: screens}, nil
}

func arrange(order []string, byID map[string]Screen, warn bool) []Screen {
	seen := make(map[string]bool, len(order))
	screens := make([]Screen, 0, len(order))
	for _, id := range order {
		s, ok := byID[id]
		switch {
		case !ok:
			if warn {
				log.Warn().Str("screen", id).Msg("Unknown screen id skipped")
			}
		case seen[id]:
			if warn {
				log.Warn().Str("screen", id).Msg("Duplicate screen id skipped")
			}
		default:
			seen[id] = true
			screens = append(screens, s)
		}
	}
	return screens
}

// Current returns the screen to show now.
func (q *Sequencer) Current() Screen {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.screens[q.pos]
}

// Position returns the 1-based index of the current screen.
func (q *Sequencer) Position() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.pos + 1
}

func (q *Sequencer) Total() int {
	return len(q.screens)
}

// Peek returns the screen that follows the current one.
func (q *Sequencer) Peek() Screen {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.screens[(q.pos+1)%len(q.screens)]
}

// Next advances the cycle, wrapping to the first screen, and returns the new current screen.
func (q *Sequencer) Next() Screen {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pos = (q.pos + 1) % len(q.screens)
	return q.screens[q.pos]
}

// IDs returns the screen ids in cycle order.
func (q *Sequencer) IDs() []string {
	ids := make([]string, len(q.screens))
	for i, s := range q.screens {
		ids[i] = s.ID()
	}
	return ids
}
