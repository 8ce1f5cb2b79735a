package screen

import (
	"context"
	"time"
)

// Clock shows the local date and time. It never fails.
type Clock struct {
	now func() time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

func (s *Clock) ID() string    { return IDClock }
func (s *Clock) Title() string { return "Clock" }

func (s *Clock) Fetch(context.Context) (any, bool) {
	return s.now(), true
}

func (s *Clock) Format(data any) Content {
	t, ok := data.(time.Time)
	if !ok {
		t = s.now()
	}
	return Content{
		Title: s.Title(),
		Lines: []string{
			t.Format("15:04"),
			t.Format("Mon, 02 Jan 2006"),
		},
		DataTime: t,
		HasData:  true,
	}
}
