// Package engine is the generic transition core shared by every screen.
//
// A request flows through the pieces in this order:
//
//	ContractResolver -> GraphStore -> Controller -> Executor -> SideEffects -> Recorder
//
// Engine.Transition wires them together. Screen adapters only translate their
// command into a TransitionRequest; all workflow rules live here and in the
// domain validator.
package engine
