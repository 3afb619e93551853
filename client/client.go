/*
 * UpdateHub
 * Copyright (C) 2017
 * O.S. Systems Sofware LTDA: contato@ossystems.com.br
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package client

import (
	"errors"
	"net/http"
)

const maxRedirects = 10

var ErrMaxRedirect = errors.New("too many redirects")

type ApiClient struct {
	http.Client
}

type ApiRequester interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewApiClient returns a client whose redirects keep the original
// request headers, so a Range header survives the hop from the
// repository API to its download host
func NewApiClient() *ApiClient {
	c := &ApiClient{}
	c.CheckRedirect = checkRedirect

	return c
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return ErrMaxRedirect
	}

	for k, v := range via[0].Header {
		if _, ok := req.Header[k]; !ok {
			req.Header[k] = v
		}
	}

	req.Header.Set("Referer", via[len(via)-1].URL.String())

	return nil
}
