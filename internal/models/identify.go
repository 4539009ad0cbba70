package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString is a request field that accepts a JSON string, number or null.
// Numbers are kept in their decimal string form.
type FlexString struct {
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.Value = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.Value = &s
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		s := numberString(n)
		f.Value = &s
		return nil
	default:
		return fmt.Errorf("expected string or number, got %s", data)
	}
}

// MarshalJSON implements json.Marshaler.
func (f FlexString) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}

// numberString renders integers verbatim and everything else in shortest
// decimal form without an exponent.
func numberString(n json.Number) string {
	raw := n.String()
	if !strings.ContainsAny(raw, ".eE") {
		return raw
	}
	f, err := n.Float64()
	if err != nil {
		return raw
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IdentifyRequest represents the incoming request body
type IdentifyRequest struct {
	Email       FlexString `json:"email"`
	PhoneNumber FlexString `json:"phoneNumber"`
}

// NewIdentifyRequest builds a request from optional plain strings.
func NewIdentifyRequest(email, phoneNumber *string) IdentifyRequest {
	return IdentifyRequest{
		Email:       FlexString{Value: email},
		PhoneNumber: FlexString{Value: phoneNumber},
	}
}

// Normalized returns the trimmed email and phone number, with blank values
// reported as absent.
func (r IdentifyRequest) Normalized() (email, phoneNumber *string) {
	return normalize(r.Email.Value), normalize(r.PhoneNumber.Value)
}

func normalize(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

// ContactResponse represents the contact data in the response
type ContactResponse struct {
	PrimaryContactID    int64    `json:"primaryContatctId"`
	Emails              []string `json:"emails"`
	PhoneNumbers        []string `json:"phoneNumbers"`
	SecondaryContactIDs []int64  `json:"secondaryContactIds"`
}

// IdentifyResponse represents the response body
type IdentifyResponse struct {
	Contact ContactResponse `json:"contact"`
}

// ErrorResponse is the body returned for any failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
