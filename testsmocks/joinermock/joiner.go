/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package joinermock

import (
	"github.com/stretchr/testify/mock"

	"github.com/UpdateHub/sensornode/config"
)

type JoinerMock struct {
	mock.Mock
}

func (jm *JoinerMock) Join(cfg *config.NetworkConfig) error {
	args := jm.Called(cfg)
	return args.Error(0)
}
