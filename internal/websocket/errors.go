package websocket

import "errors"

var ErrHubStopped = errors.New("event hub stopped")
