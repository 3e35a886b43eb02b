package chathub

import "regimath/backend/internal/session"

// Client is one live connection bound to an authenticated identity.
type Client interface {
	// GetID returns the connection id. One identity may hold several
	// connections at once.
	GetID() string
	// GetIdentity returns the identity bound when the connection was opened.
	GetIdentity() session.Identity

	// GetSendChannel returns the channel the hub writes encoded frames to.
	GetSendChannel() chan<- []byte

	// Run starts the read and write pumps.
	Run()
	// Close closes the send channel, which ends the write pump.
	Close()
}
