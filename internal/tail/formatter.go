package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
	templateErr   error
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			f.template, f.templateErr = template.New("format").Parse(tmpl)
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) (*Formatter, error) {
	f := &Formatter{
		showEmoji: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.templateErr != nil {
		return nil, fmt.Errorf("invalid format template: %w", f.templateErr)
	}
	return f, nil
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

func (f *Formatter) formatLine(e Event) string {
	var parts []string
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	parts = append(parts, f.eventDescription(e))
	return strings.Join(parts, " ")
}

func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		Message:   f.eventDescription(e),
	}

	if c := e.Current; c != nil {
		data.Timer = string(c.Timer.State)
		data.Remaining = c.Timer.Remaining.Round(time.Second).String()
		data.Slot = c.Resolution.Slot
		data.Source = string(c.Resolution.Source)
		if c.Cycle != nil {
			data.Kind = string(c.Cycle.Kind)
			data.Title = c.Cycle.Track.Title
			data.Artist = c.Cycle.Track.Artist
			if c.Cycle.Playlist != nil {
				data.Playlist = c.Cycle.Playlist.Name
			}
		}
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Message   string
	Timer     string
	Remaining string
	Slot      string
	Source    string
	Kind      string
	Title     string
	Artist    string
	Playlist  string
}

func (f *Formatter) eventDescription(e Event) string {
	cur, prev := e.Current, e.Previous
	switch e.Type {
	case EventTimerChange:
		if cur != nil {
			return fmt.Sprintf("Timer %s (%s left)", cur.Timer.State, cur.Timer.Remaining.Round(time.Second))
		}
		return "Timer changed"

	case EventTimerExpired:
		return "Timer expired"

	case EventBurstStart:
		if cur != nil && cur.Cycle != nil {
			desc := fmt.Sprintf("Starting %s burst: %s", cur.Cycle.Kind, trackLine(cur.Cycle.Track.Artist, cur.Cycle.Track.Title))
			if cur.Cycle.Playlist != nil {
				desc += " from " + cur.Cycle.Playlist.Name
			}
			return desc
		}
		return "Burst started"

	case EventBurstPlaying:
		if cur != nil && cur.Cycle != nil {
			return fmt.Sprintf("Playing at %s", (time.Duration(cur.Cycle.PositionMs) * time.Millisecond).Round(time.Second))
		}
		return "Playing"

	case EventBurstEnd:
		if prev != nil && prev.Cycle != nil {
			return fmt.Sprintf("Finished: %s", trackLine(prev.Cycle.Track.Artist, prev.Cycle.Track.Title))
		}
		return "Burst finished"

	case EventSlotChange:
		if cur != nil {
			r := cur.Resolution
			state := "off"
			if r.Fires {
				state = "on"
			}
			return fmt.Sprintf("Slot %s %s is %s (%s)", r.Date, r.Slot, state, r.Source)
		}
		return "Slot changed"

	case EventCheck:
		if cur != nil && cur.LastCheck != nil {
			if cur.LastCheck.Reason != "" {
				return fmt.Sprintf("Schedule check: %s (%s)", cur.LastCheck.Action, cur.LastCheck.Reason)
			}
			return fmt.Sprintf("Schedule check: %s", cur.LastCheck.Action)
		}
		return "Schedule checked"

	case EventSettingsChange:
		if cur != nil {
			s := cur.Settings
			return fmt.Sprintf("Settings: timer %s, burst %s, mode %s", s.TimerDuration(), s.PlayDuration(), s.PlaybackTimingMode)
		}
		return "Settings changed"

	default:
		return "Unknown event"
	}
}

func trackLine(artist, title string) string {
	if artist == "" {
		return title
	}
	return artist + " - " + title
}

func eventEmoji(t EventType) string {
	switch t {
	case EventTimerChange:
		return "⏱️"
	case EventTimerExpired:
		return "⏰"
	case EventBurstStart:
		return "🎵"
	case EventBurstPlaying:
		return "▶️"
	case EventBurstEnd:
		return "⏹️"
	case EventSlotChange:
		return "📅"
	case EventCheck:
		return "🔎"
	case EventSettingsChange:
		return "⚙️"
	default:
		return "❓"
	}
}

func eventTypeName(t EventType) string {
	switch t {
	case EventTimerChange:
		return "timer_change"
	case EventTimerExpired:
		return "timer_expired"
	case EventBurstStart:
		return "burst_start"
	case EventBurstPlaying:
		return "burst_playing"
	case EventBurstEnd:
		return "burst_end"
	case EventSlotChange:
		return "slot_change"
	case EventCheck:
		return "check"
	case EventSettingsChange:
		return "settings_change"
	default:
		return "unknown"
	}
}
