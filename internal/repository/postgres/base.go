package postgres

import (
	"github.com/jmoiron/sqlx"
)

// BaseRepository provides common functionality for all repositories. q is
// either the pool or the transaction of the enclosing unit of work.
type BaseRepository struct {
	q sqlx.ExtContext
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(q sqlx.ExtContext) BaseRepository {
	return BaseRepository{q: q}
}

// activeStatuses is the SQL list of statuses that hold a slot.
const activeStatuses = `('Scheduled', 'Confirmed', 'In-Progress')`
