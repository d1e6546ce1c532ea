// Package tacview reads Tacview XML debriefing exports into ordered events
// plus mission metadata.
package tacview

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/loggers/logbook/internal/domain/model"
	"github.com/loggers/logbook/pkg/logger"
)

// Default reader configuration constants.
const (
	DefaultDurationSeconds = 2700 // 45 minutes
	DefaultPlatform        = "DCS"
	dateLayout             = "2006-01-02"
)

// Sentinel kinds for document-level failures. Both are fatal for a pass.
var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrSchemaViolation   = errors.New("schema violation")
)

// SkippedEvent records an event the reader could not convert.
type SkippedEvent struct {
	Index int
	Err   error
}

// Document is the result of reading one debriefing export.
type Document struct {
	Meta    model.MissionMeta
	Events  []model.Event
	Skipped []SkippedEvent
}

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithLogger sets a custom logger for the reader.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDefaultDuration sets the duration used when the document carries no
// usable timing information.
func WithDefaultDuration(seconds int) Option {
	return func(r *Reader) {
		if seconds > 0 {
			r.defaultDuration = seconds
		}
	}
}

// WithClock overrides the clock used for the "today" date fallback.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) {
		if now != nil {
			r.now = now
		}
	}
}

// Reader converts debriefing documents into events.
type Reader struct {
	logger          logger.Logger
	defaultDuration int
	now             func() time.Time
}

// NewReader creates a reader with configuration options.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		defaultDuration: DefaultDurationSeconds,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("tacview")
	}
	return r
}

// ReadFile opens path and reads it. The file stem is the name fallback.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return r.Read(ctx, f, path)
}

// Read parses src. fileID identifies the document (file name or upload name)
// and is used when the mission carries no name of its own.
func (r *Reader) Read(ctx context.Context, src io.Reader, fileID string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var root node
	if err := xml.NewDecoder(src).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	events := root.child("Events")
	if events == nil {
		return nil, fmt.Errorf("%w: no Events section under <%s>", ErrSchemaViolation, root.XMLName.Local)
	}

	doc := &Document{}
	var times []float64
	for i, raw := range events.children("Event") {
		ev, err := convertEvent(i, raw)
		if ev.HasTime {
			times = append(times, ev.Time)
		}
		if err != nil {
			r.logger.Warn(ctx, "skipping event", logger.Int("index", i), logger.Error(err))
			doc.Skipped = append(doc.Skipped, SkippedEvent{Index: i, Err: err})
			continue
		}
		doc.Events = append(doc.Events, ev)
	}

	doc.Meta = model.MissionMeta{
		Name:            missionName(&root, fileID),
		Date:            r.missionDate(&root),
		DurationSeconds: r.missionDuration(&root, times),
		Platform:        detectPlatform(&root),
	}
	return doc, nil
}

// convertEvent maps one <Event> element. The returned event carries any time
// that parsed even when err is non-nil so duration fallback can still use it.
func convertEvent(index int, n *node) (model.Event, error) {
	ev := model.Event{
		Index:  index,
		Action: model.Action(n.text("Action", "")),
	}

	if t := n.child("Time"); t != nil {
		v, err := parseNumber(t.Text)
		if err != nil {
			return ev, fmt.Errorf("%w: time: %v", model.ErrEventSkipped, err)
		}
		ev.HasTime, ev.Time = true, v
	}

	primary := n.child("PrimaryObject")
	if primary == nil {
		return ev, fmt.Errorf("%w: missing PrimaryObject", model.ErrEventSkipped)
	}
	ev.Primary = entity(primary)
	if secondary := n.child("SecondaryObject"); secondary != nil {
		s := entity(secondary)
		ev.Secondary = &s
	}

	loc := n.child("Location")
	if loc == nil {
		loc = n
	}
	lat, lon := loc.child("Latitude"), loc.child("Longitude")
	if lat != nil && lon != nil {
		la, err := parseNumber(lat.Text)
		if err != nil {
			return ev, fmt.Errorf("%w: latitude: %v", model.ErrEventSkipped, err)
		}
		lo, err := parseNumber(lon.Text)
		if err != nil {
			return ev, fmt.Errorf("%w: longitude: %v", model.ErrEventSkipped, err)
		}
		ev.HasPosition, ev.Lat, ev.Lon = true, la, lo
	}
	return ev, nil
}

func entity(n *node) model.Entity {
	return model.Entity{
		Pilot:     n.text("Pilot", ""),
		Aircraft:  n.text("Name", model.UnknownLabel),
		Type:      n.text("Type", ""),
		Coalition: n.text("Coalition", ""),
		Group:     n.text("Group", ""),
	}
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func missionName(root *node, fileID string) string {
	if m := root.find("Mission"); m != nil {
		if name := strings.TrimSpace(m.attr("name")); name != "" {
			return name
		}
		if name := strings.TrimSpace(m.Text); name != "" {
			return name
		}
		if title := m.text("Title", ""); title != "" {
			return title
		}
	}
	base := filepath.Base(strings.TrimSpace(fileID))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "untitled"
	}
	return stem
}

func (r *Reader) missionDate(root *node) string {
	if d := root.find("Date"); d != nil {
		if v := strings.TrimSpace(d.Text); v != "" {
			return v
		}
	}
	if ts := root.find("Timestamp"); ts != nil {
		if v, err := parseNumber(ts.Text); err == nil {
			return time.Unix(int64(v), 0).UTC().Format(dateLayout)
		}
	}
	for _, name := range []string{"MissionTime", "RecordingTime"} {
		if n := root.find(name); n != nil {
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(n.Text)); err == nil {
				return t.UTC().Format(dateLayout)
			}
		}
	}
	return r.now().UTC().Format(dateLayout)
}

func (r *Reader) missionDuration(root *node, times []float64) int {
	if d := root.find("Duration"); d != nil {
		if v, err := parseNumber(d.Text); err == nil && v >= 0 {
			return int(v)
		}
	}
	if len(times) >= 2 {
		lo, hi := times[0], times[0]
		for _, t := range times[1:] {
			lo = math.Min(lo, t)
			hi = math.Max(hi, t)
		}
		return int(hi - lo)
	}
	return r.defaultDuration
}

// detectPlatform inspects free-text generator and source hints.
func detectPlatform(root *node) string {
	hints := []string{root.attr("generator")}
	if rec := root.child("FlightRecording"); rec != nil {
		hints = append(hints, rec.text("Source", ""), rec.text("Recorder", ""))
	}
	hint := strings.ToLower(strings.Join(hints, " "))

	switch {
	case strings.Contains(hint, "dcs"):
		return "DCS"
	case strings.Contains(hint, "bms"), strings.Contains(hint, "falcon"):
		return "BMS"
	case strings.Contains(hint, "il-2"), strings.Contains(hint, "il2"):
		return "IL2"
	case strings.Contains(hint, "tacview"):
		return "Tacview"
	}
	return DefaultPlatform
}
