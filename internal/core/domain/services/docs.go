// Package services provides domain services that combine several aggregates
// of the workflow domain.
//
// The package includes:
//   - TransitionValidator: decides whether an order may move along an edge of
//     its template, given the requesting screen, the actor and the evidence
//     attached to the order
//
// Domain services are pure: they read aggregates and return a decision, and
// never persist anything.
package services
