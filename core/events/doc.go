// Package events defines the typed turn-lifecycle event contract.
//
// Every turn emits UtteranceReceived first and exactly one of
// ClarificationRequested, DispatchSucceeded, DispatchFailed, ChatResponded,
// or TurnRejected last. IntentProposed and ActionResolved appear in between
// when the turn progressed that far.
//
// Events are notifications for observers (transcripts, debugging overlays);
// the orchestration pipeline never waits on an event consumer.
package events
