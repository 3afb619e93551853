/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package delivery

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/UpdateHub/sensornode/metrics"
	"github.com/UpdateHub/sensornode/settings"
	"github.com/UpdateHub/sensornode/testsmocks/linkmock"
	"github.com/UpdateHub/sensornode/transport"
	"github.com/UpdateHub/sensornode/utils"
)

var noFrame = []byte(nil)

func TestDeliverWithInvalidRequest(t *testing.T) {
	testCases := []struct {
		name    string
		address int
		payload []byte
	}{
		{"EmptyPayload", 7, []byte{}},
		{"OneBytePayload", 7, []byte("x")},
		{"PayloadTooLong", 7, []byte(strings.Repeat("x", 65))},
		{"NegativeAddress", -1, []byte("ok")},
		{"AddressTooHigh", 256, []byte("ok")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lm := &linkmock.LinkMock{}
			p := &Protocol{Link: lm, MaxRetries: 3, Timeout: time.Second}

			r := p.Deliver(tc.address, tc.payload)

			assert.Equal(t, InvalidRequest, r.Status)
			assert.Equal(t, 0, r.RetriesUsed)
			assert.Equal(t, utils.KindInvalidRequest, utils.KindOf(r.Err()))

			lm.AssertNotCalled(t, "SendFrame", mock.Anything)
			lm.AssertNotCalled(t, "ReceiveFrame", mock.Anything)
		})
	}
}

func TestDeliverWithoutAcknowledgement(t *testing.T) {
	lm := &linkmock.LinkMock{}
	lm.On("SendFrame", []byte("$M00710Count=0001")).Return(nil)
	lm.On("ReceiveFrame", mock.AnythingOfType("time.Duration")).Return(noFrame, transport.ErrNoFrame)

	m := metrics.New()
	p := &Protocol{Link: lm, Metrics: m}

	r := p.DeliverWith(7, []byte("Count=0001"), 3, 10*time.Millisecond)

	assert.Equal(t, Timeout, r.Status)
	assert.Equal(t, 3, r.RetriesUsed)
	assert.False(t, r.Delivered())
	assert.Equal(t, utils.KindDeliveryTimeout, utils.KindOf(r.Err()))

	lm.AssertNumberOfCalls(t, "SendFrame", 4)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Deliveries.WithLabelValues("timeout")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.DeliveryRetries))
}

func TestDeliverAcknowledgedOnSecondAttempt(t *testing.T) {
	lm := &linkmock.LinkMock{}
	lm.On("SendFrame", mock.Anything).Return(nil)
	lm.On("ReceiveFrame", mock.Anything).Return([]byte("$M00710"), nil).Once()
	lm.On("ReceiveFrame", mock.Anything).Return(noFrame, transport.ErrNoFrame).Once()
	lm.On("ReceiveFrame", mock.Anything).Return([]byte("$M00710"), nil).Once()
	lm.On("ReceiveFrame", mock.Anything).Return([]byte("#R007T03200"), nil).Once()

	p := &Protocol{Link: lm, MaxRetries: 3, Timeout: time.Second}

	r := p.Deliver(7, []byte("Count=0001"))

	assert.Equal(t, Delivered, r.Status)
	assert.Equal(t, 1, r.RetriesUsed)
	assert.Equal(t, 100*time.Millisecond, r.ResponseTime)
	assert.True(t, r.Elapsed > 0)
	assert.NoError(t, r.Err())

	lm.AssertNumberOfCalls(t, "SendFrame", 2)
	lm.AssertExpectations(t)
}

func TestDeliverAcknowledgedOnFirstAttempt(t *testing.T) {
	lm := &linkmock.LinkMock{}
	lm.On("SendFrame", mock.Anything).Return(nil)
	lm.On("ReceiveFrame", mock.Anything).Return([]byte("#R007T00032"), nil)

	p := NewProtocol(lm, settings.Default().DeliverySettings, nil)

	r := p.Deliver(7, []byte("ok"))

	assert.Equal(t, Delivered, r.Status)
	assert.Equal(t, 0, r.RetriesUsed)
	assert.Equal(t, time.Millisecond, r.ResponseTime)

	lm.AssertNumberOfCalls(t, "SendFrame", 1)
}

func TestDeliverWithModemTimeoutReport(t *testing.T) {
	lm := &linkmock.LinkMock{}
	lm.On("SendFrame", mock.Anything).Return(nil)
	lm.On("ReceiveFrame", mock.Anything).Return([]byte("#TO"), nil)

	p := &Protocol{Link: lm}

	r := p.DeliverWith(7, []byte("ok"), 1, time.Second)

	assert.Equal(t, Timeout, r.Status)
	assert.Equal(t, 1, r.RetriesUsed)

	lm.AssertNumberOfCalls(t, "SendFrame", 2)
	lm.AssertNumberOfCalls(t, "ReceiveFrame", 2)
}

func TestDeliverIgnoresAckFromOtherAddress(t *testing.T) {
	lm := &linkmock.LinkMock{}
	lm.On("SendFrame", mock.Anything).Return(nil)
	lm.On("ReceiveFrame", mock.Anything).Return([]byte("#R009T00100"), nil).Once()
	lm.On("ReceiveFrame", mock.Anything).Return([]byte("#R007T00100"), nil).Once()

	p := &Protocol{Link: lm}

	r := p.DeliverWith(7, []byte("ok"), 0, time.Second)

	assert.Equal(t, Delivered, r.Status)
	assert.Equal(t, 0, r.RetriesUsed)
}

func TestDeliverWithSendError(t *testing.T) {
	lm := &linkmock.LinkMock{}
	lm.On("SendFrame", mock.Anything).Return(fmt.Errorf("link is not initialized"))

	p := &Protocol{Link: lm}

	r := p.DeliverWith(7, []byte("ok"), 2, time.Second)

	assert.Equal(t, Timeout, r.Status)
	assert.Equal(t, 2, r.RetriesUsed)

	lm.AssertNumberOfCalls(t, "SendFrame", 3)
	lm.AssertNotCalled(t, "ReceiveFrame", mock.Anything)
}

func TestDeliverWithNegativeRetries(t *testing.T) {
	lm := &linkmock.LinkMock{}
	lm.On("SendFrame", mock.Anything).Return(nil)
	lm.On("ReceiveFrame", mock.Anything).Return(noFrame, transport.ErrNoFrame)

	p := &Protocol{Link: lm}

	r := p.DeliverWith(7, []byte("ok"), -2, time.Millisecond)

	assert.Equal(t, Timeout, r.Status)
	assert.Equal(t, 0, r.RetriesUsed)

	lm.AssertNumberOfCalls(t, "SendFrame", 1)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "delivered", Delivered.String())
	assert.Equal(t, "invalid-request", InvalidRequest.String())
	assert.Equal(t, "timeout", Timeout.String())
}
