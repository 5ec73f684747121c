package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PagePayloadVersion is the current payload schema version. Workers reject
// versions they do not know instead of guessing at fields.
const PagePayloadVersion = 1

var (
	ErrPayloadVersion = errors.New("unsupported page payload version")
	ErrPayloadInvalid = errors.New("invalid page payload")
)

// PagePayload describes one page-generation work unit.
type PagePayload struct {
	Version    int               `json:"version"`
	NeuronType string            `json:"neuron_type"`
	Dataset    string            `json:"dataset"`
	Options    map[string]string `json:"options,omitempty"`
}

func EncodePagePayload(payload PagePayload) ([]byte, error) {
	if err := validatePayloadFields(payload); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode page payload: %w", err)
	}
	return raw, nil
}

func DecodePagePayload(raw []byte) (PagePayload, error) {
	var payload PagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return PagePayload{}, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}

	if payload.Version != PagePayloadVersion {
		return PagePayload{}, fmt.Errorf("%w: got %d, want %d", ErrPayloadVersion, payload.Version, PagePayloadVersion)
	}
	if err := validatePayloadFields(payload); err != nil {
		return PagePayload{}, err
	}
	return payload, nil
}

func validatePayloadFields(payload PagePayload) error {
	if strings.TrimSpace(payload.NeuronType) == "" {
		return fmt.Errorf("%w: neuron type is required", ErrPayloadInvalid)
	}
	if strings.TrimSpace(payload.Dataset) == "" {
		return fmt.Errorf("%w: dataset is required", ErrPayloadInvalid)
	}
	return nil
}

// NewPagePayload builds a current-version payload for a neuron type.
func NewPagePayload(neuronType, dataset string) PagePayload {
	return PagePayload{
		Version:    PagePayloadVersion,
		NeuronType: neuronType,
		Dataset:    dataset,
	}
}
