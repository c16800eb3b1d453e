package models

import (
	apperrors "barcodedrop/internal/errors"
	"fmt"

	json "github.com/goccy/go-json"
)

type MessageKind string

const (
	KindUpsert     MessageKind = "UpsertScans"
	KindDelete     MessageKind = "DeleteScans"
	KindReplaceAll MessageKind = "ReplaceAllScans"
)

// Label is the short form used in logs and metric labels.
func (k MessageKind) Label() string {
	switch k {
	case KindUpsert:
		return "upsert"
	case KindDelete:
		return "delete"
	case KindReplaceAll:
		return "replace_all"
	default:
		return "unknown"
	}
}

// ChannelMessage is a decoded live channel notification.
type ChannelMessage struct {
	Kind  MessageKind
	Scans []Scan
	IDs   []string
}

type channelEnvelope struct {
	Type     MessageKind     `json:"type"`
	NewScans json.RawMessage `json:"newScans"`
	IDs      json.RawMessage `json:"ids"`
	Scans    json.RawMessage `json:"scans"`
}

// DecodeChannelMessage parses one frame. Unknown types and payloads missing
// their kind-specific field are protocol errors.
func DecodeChannelMessage(data []byte) (ChannelMessage, error) {
	var env channelEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ChannelMessage{}, apperrors.Wrap(apperrors.CodeProtocol, err, "unparseable channel message")
	}

	switch env.Type {
	case KindUpsert:
		scans, err := decodeScanField(env.NewScans, "newScans")
		if err != nil {
			return ChannelMessage{}, err
		}
		return ChannelMessage{Kind: KindUpsert, Scans: scans}, nil
	case KindDelete:
		if isAbsent(env.IDs) {
			return ChannelMessage{}, apperrors.New(apperrors.CodeProtocol, "DeleteScans without ids")
		}
		var ids []string
		if err := json.Unmarshal(env.IDs, &ids); err != nil {
			return ChannelMessage{}, apperrors.Wrap(apperrors.CodeProtocol, err, "malformed ids")
		}
		return ChannelMessage{Kind: KindDelete, IDs: ids}, nil
	case KindReplaceAll:
		scans, err := decodeScanField(env.Scans, "scans")
		if err != nil {
			return ChannelMessage{}, err
		}
		return ChannelMessage{Kind: KindReplaceAll, Scans: scans}, nil
	default:
		return ChannelMessage{}, apperrors.New(apperrors.CodeProtocol, fmt.Sprintf("unknown channel message type %q", env.Type))
	}
}

func decodeScanField(raw json.RawMessage, field string) ([]Scan, error) {
	if isAbsent(raw) {
		return nil, apperrors.New(apperrors.CodeProtocol, "missing "+field)
	}
	return DecodeScans(raw)
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
