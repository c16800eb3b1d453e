package models

import (
	apperrors "barcodedrop/internal/errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// Scan is one decoded barcode event owned by a single user.
type Scan struct {
	ID        string    `json:"id"`
	ScannedAt time.Time `json:"scanned_at"`
	Barcode   string    `json:"barcode"`
	Username  string    `json:"username"`
}

// wireScan is the shape scans travel in over REST and the live channel.
type wireScan struct {
	ID        string `json:"id" validate:"required"`
	ScannedAt string `json:"scanned_at" validate:"required"`
	Barcode   string `json:"barcode"`
	Username  string `json:"username"`
}

var scanValidator = validator.New(validator.WithRequiredStructEnabled())

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses ISO-8601 timestamps. Values without a zone are UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, apperrors.New(apperrors.CodeProtocol, fmt.Sprintf("invalid timestamp %q", value))
}

func (s *Scan) UnmarshalJSON(data []byte) error {
	var w wireScan
	if err := json.Unmarshal(data, &w); err != nil {
		return apperrors.Wrap(apperrors.CodeProtocol, err, "malformed scan")
	}
	if err := scanValidator.Struct(w); err != nil {
		return apperrors.Wrap(apperrors.CodeProtocol, err, "incomplete scan")
	}
	ts, err := ParseTimestamp(w.ScannedAt)
	if err != nil {
		return err
	}
	*s = Scan{ID: w.ID, ScannedAt: ts, Barcode: w.Barcode, Username: w.Username}
	return nil
}

// DecodeScans parses a JSON array of scans. Any malformed element fails the whole batch.
func DecodeScans(data []byte) ([]Scan, error) {
	var scans []Scan
	if err := json.Unmarshal(data, &scans); err != nil {
		if typed := apperrors.As(err); typed != nil {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CodeProtocol, err, "malformed scan list")
	}
	if scans == nil {
		scans = []Scan{}
	}
	return scans, nil
}

// OwnedBy fills empty usernames with user and rejects scans that belong to someone else.
func OwnedBy(scans []Scan, user string) ([]Scan, error) {
	owned := make([]Scan, len(scans))
	for i, s := range scans {
		if s.Username == "" {
			s.Username = user
		}
		if s.Username != user {
			return nil, apperrors.New(apperrors.CodeProtocol, fmt.Sprintf("scan %s belongs to %q, expected %q", s.ID, s.Username, user))
		}
		owned[i] = s
	}
	return owned, nil
}
