package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Event type constants for published events.
const (
	EventTypePaperDiscovered = "paper.discovered"
)

// AggregateTypePaper is the aggregate type of paper events.
const AggregateTypePaper = "paper"

// Event is the envelope of a published domain event.
type Event struct {
	EventID       string          `json:"event_id"`
	EventVersion  int             `json:"event_version"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewEvent creates a new event with the given parameters.
// The payload is JSON-serialized automatically.
func NewEvent(eventType, aggregateID, aggregateType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:       uuid.New().String(),
		EventVersion:  1,
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Payload:       payloadBytes,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// WithMetadata sets the metadata on the event.
func (e *Event) WithMetadata(metadata map[string]any) *Event {
	e.Metadata = metadata
	return e
}

// PaperDiscoveredPayload is the payload for paper.discovered events, emitted
// once when a paper returned by a source is stored for the first time.
type PaperDiscoveredPayload struct {
	PaperID       int64          `json:"paper_id"`
	Title         string         `json:"title"`
	DOI           string         `json:"doi,omitempty"`
	URL           string         `json:"url"`
	Platform      Platform       `json:"platform"`
	Domain        ResearchDomain `json:"domain"`
	PublishedDate time.Time      `json:"published_date"`
	// Query is the search that surfaced the paper; empty for DOI lookups.
	Query string `json:"query,omitempty"`
}

// NewPaperDiscoveredEvent builds the paper.discovered event of a stored paper.
func NewPaperDiscoveredEvent(p *Paper, query string) (*Event, error) {
	return NewEvent(EventTypePaperDiscovered, strconv.FormatInt(p.ID, 10), AggregateTypePaper, PaperDiscoveredPayload{
		PaperID:       p.ID,
		Title:         p.Title,
		DOI:           p.DOI,
		URL:           p.URL,
		Platform:      p.Platform,
		Domain:        p.Domain,
		PublishedDate: p.PublishedDate,
		Query:         query,
	})
}
