package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Meta is caller-supplied instance metadata. The registry stores and returns it verbatim.
type Meta map[string]any

// UnmarshalJSON keeps numbers as json.Number, so integers beyond 2^53 survive a round trip.
func (m *Meta) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*m = raw
	return nil
}

// DecodeMeta parses stored meta. Empty input and null give an empty Meta.
func DecodeMeta(data []byte) (Meta, error) {
	meta := Meta{}
	if len(data) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	if meta == nil {
		meta = Meta{}
	}
	return meta, nil
}

// Instance represents one client announcement stored by the registry.
// (Group, ID) is the primary key.
type Instance struct {
	ID        string    `json:"id" bson:"id"`
	Group     string    `json:"group" bson:"group"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"` // set once on first insert
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"` // refreshed on every registration
	Meta      Meta      `json:"meta" bson:"meta"`
}

// GroupSummary aggregates the instances of one non-empty group.
type GroupSummary struct {
	Group           string
	InstanceCount   int
	EarliestCreated time.Time
	LatestUpdated   time.Time
}
