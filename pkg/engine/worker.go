// Package engine implements the investigation's supervisor-worker state
// machine : the Director loop, the Worker interface every agent in
// pkg/agents implements, and the
// synthesis pipeline that turns an accumulated InvestigationState into a
// persisted graph and a written report.
package engine

import (
	"context"

	"github.com/deepresearch/investigator/pkg/domain"
)

// Worker is the one capability every agent node shares (
// "Polymorphism over agent types"): receive a state snapshot, do one
// bounded unit of work, return the updated state. Workers are stateless
// across calls apart from the gateway/fetcher/client handles captured at
// construction.
type Worker interface {
	Name() string
	Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState
}
