// Package client contains the client-side building blocks of giftdesk.
//
// # Overview
//
// The package provides:
//  1. The API contract (see the Client interface) used to talk to the
//     giftdesk server: Identify/Verify, RequestCode/VerifyCode,
//     GetSession, Logout and Ping.
//  2. An HTTP implementation (see HTTPClient) that sends the bearer token
//     in the Authorization header and maps error bodies back onto the
//     sentinel and typed errors of package common.
//  3. Local persistence bootstrap (OpenCache, RunMigrations) wiring the
//     sqlite session cache and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures (connection refused, timeouts) are returned as
// common.ErrorUnavailable. Server answers are mapped by their error code:
// InvalidCredentialError and LockedError carry the remaining attempts and
// minutes reported by the server.
package client
