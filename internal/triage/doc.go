// Package triage provides the business boundary for screener's conversational
// triage. It defines the ConversationState (turn-indexed state machine), the
// Engine (per-turn analysis pipeline and evaluation orchestration), the Service
// (single writer per conversation, lifecycle, stateless transport) and the
// Store and collaborator interfaces.
package triage
