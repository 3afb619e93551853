/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package transport

import (
	"fmt"
	"strconv"
	"time"
)

// NM3 acoustic modem command set
const (
	// MaxPayloadLength is the largest message the modem sends in one frame
	MaxPayloadLength = 64
	// MinPayloadLength is the smallest message the modem accepts
	MinPayloadLength = 2
	// MaxAddress is the highest unicast address
	MaxAddress = 255

	// TickDuration is the resolution of the round trip time in acks
	TickDuration = 31250 * time.Nanosecond

	unicastWithAckPrefix = "$M"
	ackPrefix            = "#R"
	timeoutReport        = "#TO"
)

// EncodeUnicastWithAck builds the command asking the modem to send
// payload to address and wait for its acknowledgement
func EncodeUnicastWithAck(address int, payload []byte) ([]byte, error) {
	if address < 0 || address > MaxAddress {
		return nil, fmt.Errorf("invalid address (0-%d): %d", MaxAddress, address)
	}

	if len(payload) < MinPayloadLength || len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("invalid payload length (%d-%d): %d", MinPayloadLength, MaxPayloadLength, len(payload))
	}

	frame := []byte(fmt.Sprintf("%s%03d%02d", unicastWithAckPrefix, address, len(payload)))

	return append(frame, payload...), nil
}

// ParseEcho reports whether frame is the modem echo of a unicast command
func ParseEcho(frame []byte, address int, length int) bool {
	return string(frame) == fmt.Sprintf("%s%03d%02d", unicastWithAckPrefix, address, length)
}

// ParseAck decodes "#RaaaTttttt", the acknowledgement of address with
// the round trip time in ticks
func ParseAck(frame []byte) (int, time.Duration, bool) {
	s := string(frame)

	if len(s) != len(ackPrefix)+3+1+5 || s[:len(ackPrefix)] != ackPrefix || s[5] != 'T' {
		return 0, 0, false
	}

	address, ok := parseDigits(s[2:5])
	if !ok {
		return 0, 0, false
	}

	ticks, ok := parseDigits(s[6:])
	if !ok {
		return 0, 0, false
	}

	return address, time.Duration(ticks) * TickDuration, true
}

// parseDigits accepts unsigned decimal fields only
func parseDigits(field string) (int, bool) {
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(field)
	return n, err == nil
}

// IsTimeoutReport reports whether the modem gave up waiting for an ack
func IsTimeoutReport(frame []byte) bool {
	return string(frame) == timeoutReport
}
