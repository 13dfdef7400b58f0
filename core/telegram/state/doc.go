// Package state provides a lightweight FSM/session manager for Telegram bots.
// Each user owns one session; updates for the same user are serialized so a
// session never processes two messages at once, while distinct users proceed
// concurrently.
package state
