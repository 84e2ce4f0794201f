// Package services builds the negotiated services hublinkd registers from
// its configuration.
package services
