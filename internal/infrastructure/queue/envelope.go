package queue

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"neupages/internal/ports"
)

// envelopeVersion is the descriptor file schema version.
const envelopeVersion = 1

var errEnvelopeVersion = errors.New("unsupported descriptor version")

// descriptorEnvelope is the on-disk YAML form of a work descriptor. The
// payload stays an opaque blob here; only the domain layer interprets it.
type descriptorEnvelope struct {
	Version    int       `yaml:"version"`
	ItemID     string    `yaml:"item_id"`
	EnqueuedAt time.Time `yaml:"enqueued_at"`
	Payload    []byte    `yaml:"payload"`
}

func encodeDescriptor(itemID string, payload []byte, enqueuedAt time.Time) ([]byte, error) {
	raw, err := yaml.Marshal(descriptorEnvelope{
		Version:    envelopeVersion,
		ItemID:     itemID,
		EnqueuedAt: enqueuedAt.UTC(),
		Payload:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return raw, nil
}

func decodeDescriptor(raw []byte) (ports.WorkDescriptor, error) {
	var envelope descriptorEnvelope
	if err := yaml.Unmarshal(raw, &envelope); err != nil {
		return ports.WorkDescriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	if envelope.Version != envelopeVersion {
		return ports.WorkDescriptor{}, fmt.Errorf("%w: got %d, want %d", errEnvelopeVersion, envelope.Version, envelopeVersion)
	}
	if envelope.ItemID == "" {
		return ports.WorkDescriptor{}, errors.New("decode descriptor: missing item id")
	}

	return ports.WorkDescriptor{
		ItemID:     envelope.ItemID,
		Payload:    envelope.Payload,
		EnqueuedAt: envelope.EnqueuedAt,
	}, nil
}
