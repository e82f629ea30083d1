package lnurl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tag identifies the kind of LNURL service.
type Tag string

// Known LNURL tags.
const (
	TagPay      Tag = "payRequest"
	TagWithdraw Tag = "withdrawRequest"
	TagLogin    Tag = "login"
	TagChannel  Tag = "channelRequest"
)

// MSats is a millisatoshi amount. Services disagree on whether amounts
// are JSON numbers or strings, so both are accepted.
type MSats int64

// UnmarshalJSON accepts 1000 and "1000".
func (m *MSats) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid msat amount %q", s)
		}
		v = int64(f)
	}
	*m = MSats(v)
	return nil
}

// Metadata is the decoded LUD-06 metadata of a pay request.
type Metadata struct {
	// Description is the first text/plain entry.
	Description string `json:"description,omitempty"`

	// LongDescription is the first text/long-desc entry.
	LongDescription string `json:"longDescription,omitempty"`

	// Image is the first image/* entry, as a data URI.
	Image string `json:"image,omitempty"`

	// Identifier is the first text/identifier or text/email entry.
	Identifier string `json:"identifier,omitempty"`

	// Raw is the metadata exactly as the service sent it. It is needed to
	// verify the description hash of the invoice returned by the callback.
	Raw string `json:"-"`
}

// UnmarshalJSON decodes metadata sent either as the LUD-06 JSON-encoded
// string or, as some services do, as a bare array.
func (md *Metadata) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}

	var entries [][]any
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fmt.Errorf("invalid JSON metadata: %w", err)
	}

	*md = parseEntries(entries)
	md.Raw = raw
	return nil
}

func parseEntries(entries [][]any) Metadata {
	var md Metadata
	for _, entry := range entries {
		if len(entry) < 2 {
			continue
		}
		mime, ok := entry[0].(string)
		if !ok {
			continue
		}
		value, ok := entry[1].(string)
		if !ok {
			continue
		}

		switch {
		case mime == "text/plain":
			if md.Description == "" {
				md.Description = value
			}
		case mime == "text/long-desc":
			if md.LongDescription == "" {
				md.LongDescription = value
			}
		case strings.HasPrefix(mime, "image/"):
			if md.Image == "" {
				md.Image = "data:" + mime + "," + value
			}
		case mime == "text/identifier" || mime == "text/email":
			if md.Identifier == "" {
				md.Identifier = value
			}
		}
	}
	return md
}

// Response is the union of LUD-06 pay and LUD-03 withdraw parameters. Tag
// selects which fields are meaningful.
type Response struct {
	Tag      Tag    `json:"tag"`
	Callback string `json:"callback"`

	// Pay request fields.
	MinSendable    MSats    `json:"minSendable"`
	MaxSendable    MSats    `json:"maxSendable"`
	Metadata       Metadata `json:"metadata"`
	CommentAllowed int      `json:"commentAllowed,omitempty"`

	// Withdraw request fields.
	K1                 string `json:"k1,omitempty"`
	MinWithdrawable    MSats  `json:"minWithdrawable"`
	MaxWithdrawable    MSats  `json:"maxWithdrawable"`
	DefaultDescription string `json:"defaultDescription,omitempty"`

	// Set by the client, not the service.
	URL    string `json:"-"`
	Domain string `json:"-"`
}

// ServiceError is an LUD-conformant {"status":"ERROR"} reply.
type ServiceError struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (e *ServiceError) Error() string {
	if e.Reason == "" {
		return "lnurl service error"
	}
	return "lnurl service error: " + e.Reason
}

// Unwrap lets errors.Is match ErrService.
func (e *ServiceError) Unwrap() error {
	return ErrService
}
