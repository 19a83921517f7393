package kernel

import (
	"fmt"

	"orderflow/internal/pkg/errs"
)

// ActorKind tells human operators apart from background automation.
type ActorKind string

const (
	ActorHuman  ActorKind = "human"
	ActorSystem ActorKind = "system"
)

// SystemActorID is the identity recorded for automated transitions.
const SystemActorID = "system"

// Actor is whoever requested a change.
type Actor struct {
	ID   string
	Kind ActorKind
}

// NewHumanActor returns an operator identified by userID.
func NewHumanActor(userID string) (Actor, error) {
	if userID == "" {
		return Actor{}, errs.NewValueIsRequiredError("actor")
	}
	return Actor{ID: userID, Kind: ActorHuman}, nil
}

// SystemActor returns the actor used by scheduled jobs.
func SystemActor() Actor {
	return Actor{ID: SystemActorID, Kind: ActorSystem}
}

// IsSystem reports whether the actor is automation.
func (a Actor) IsSystem() bool {
	return a.Kind == ActorSystem
}

func (a Actor) Validate() error {
	if a.ID == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	if a.Kind != ActorHuman && a.Kind != ActorSystem {
		return errs.NewValueIsInvalidErrorWithCause("actor kind", fmt.Errorf("%q is unknown", string(a.Kind)))
	}
	return nil
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.Kind, a.ID)
}
