// Package uow defines the transactional boundary used by command and query
// handlers. Every request runs inside exactly one unit of work: either all of
// its writes are committed or none are.
package uow

import (
	"context"

	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/internal/domain/industry"
	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/point"
	"github.com/ingvionio/fullstack/internal/domain/user"
)

// Repositories is the set of repositories bound to one transaction.
type Repositories struct {
	Users         user.Repository
	Industries    industry.Repository
	SubIndustries industry.SubIndustryRepository
	Criteria      industry.CriteriaRepository
	Points        point.Repository
	Marks         mark.Repository
	Achievements  achievement.Repository
	Progress      achievement.ProgressRepository
}

// Func is the body of a unit of work.
type Func func(ctx context.Context, repos Repositories) error

// UnitOfWork runs functions inside a database transaction.
type UnitOfWork interface {
	// Do runs fn in a read-write transaction. The transaction is committed
	// when fn returns nil and rolled back otherwise.
	Do(ctx context.Context, fn Func) error

	// DoReadOnly runs fn in a read-only transaction.
	DoReadOnly(ctx context.Context, fn Func) error
}
