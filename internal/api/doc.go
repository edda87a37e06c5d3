// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the polychat generation backend.
//
// The backend exposes two endpoints, both authenticated with a bearer token:
//
//   - POST {base}/chat streams a text/plain body for text models
//   - POST {base}/image returns JSON with base64 image data and the
//     revised prompt for image models
//
// Non-2xx responses become *APIError values whose Message is ready to show
// to the user and which unwrap to ErrRateLimited (429), ErrUnauthorized
// (401), ErrBadRequest (400) or ErrServer (anything else). Transport
// failures unwrap to ErrTransport.
//
// # Usage
//
//	client, err := api.NewClient(api.Options{BaseURL: cfg.API.BaseURL, Token: cfg.API.Token})
//	stream, err := client.StreamChat(ctx, api.ChatRequest{Prompt: "Hello", Model: "gpt-4o"})
//	defer stream.Close()
//	for {
//	    chunk, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package api
