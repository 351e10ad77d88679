// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Side, the face of the fabric a row is worked on.
package model

import (
	"fmt"
	"strings"
)

// Side is the face of the fabric facing the knitter while working a row.
type Side int

const (
	// SideUnset means the row did not declare a side and one is inferred.
	SideUnset Side = iota
	RightSide
	WrongSide
)

// Flip returns the opposite face. SideUnset stays unset.
func (s Side) Flip() Side {
	switch s {
	case RightSide:
		return WrongSide
	case WrongSide:
		return RightSide
	default:
		return SideUnset
	}
}

func (s Side) String() string {
	switch s {
	case RightSide:
		return "RS"
	case WrongSide:
		return "WS"
	default:
		return ""
	}
}

// ParseSide accepts "RS"/"WS" in any case; the empty string is SideUnset.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return SideUnset, nil
	case "RS":
		return RightSide, nil
	case "WS":
		return WrongSide, nil
	default:
		return SideUnset, fmt.Errorf("invalid side %q: must be \"RS\" or \"WS\"", s)
	}
}
