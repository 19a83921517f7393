// Package kernel holds the primitives shared by every aggregate of the
// workflow domain: UUID, the identity type for tenants, orders, templates and
// persisted records, and Actor, the party requesting a change.
package kernel
