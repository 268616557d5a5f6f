// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FlexInt64 accepts a JSON number or a numeric string.
type FlexInt64 int64

// UnmarshalJSON implements json.Unmarshaler.
func (v *FlexInt64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*v = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("flexint64: invalid string %q", s)
		}
		*v = FlexInt64(i)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flexint64: invalid json value: %s", string(b))
	}
	if i, err := n.Int64(); err == nil {
		*v = FlexInt64(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("flexint64: not a number: %s", n.String())
	}
	*v = FlexInt64(f)
	return nil
}

// FlexBool accepts true/false, "1"/"0" and "true"/"false".
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (v *FlexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "true", `"1"`, "1", `"true"`:
		*v = true
	case "false", `"0"`, "0", `"false"`, `""`, "null":
		*v = false
	default:
		return fmt.Errorf("flexbool: invalid json value: %s", string(b))
	}
	return nil
}
