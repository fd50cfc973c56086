// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrInsufficientFunds is returned when the wallet balance cannot cover a
// purchase or renewal. Handlers should translate this into an HTTP 400
// response before any mutation is committed.
var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// ErrAdminUser is returned when a delete targets a user with the admin
// role. Admin accounts cannot be removed through the API.
var ErrAdminUser = errors.New("cannot delete admin user")
