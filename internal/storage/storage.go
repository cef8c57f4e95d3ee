// Package storage implements Postgres persistence for users, channel
// subscriptions, articles and bookmarks on top of sqlx.
package storage

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")
