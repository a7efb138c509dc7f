package locus

import (
	"fmt"
)

type operation struct {
	typ    operationType
	key    GroupKey
	record []byte
	ids    []EntityID
}

type operationType int

const (
	opCreate operationType = iota
	opDestroy
)

type opQueue struct {
	createOps      []operation
	destroyOps     []operation
	pendingDestroy map[EntityID]struct{}
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[EntityID]struct{}),
	}
}

func (q *opQueue) enqueueOp(op operation) {
	switch op.typ {
	case opCreate:
		q.createOps = append(q.createOps, op)
	case opDestroy:
		q.destroyOps = append(q.destroyOps, op)
	}
}

func (q *opQueue) empty() bool {
	return len(q.createOps) == 0 && len(q.destroyOps) == 0
}

func (s *storage) processOperationQueue() error {
	if s.opQueue.empty() {
		return nil
	}

	// Process creates first
	for _, op := range s.opQueue.createOps {
		if _, err := s.NewEntity(op.key, op.record); err != nil {
			return fmt.Errorf("failed to process queued entity creation: %w", err)
		}
	}

	// Process destroys last
	for _, op := range s.opQueue.destroyOps {
		for _, id := range op.ids {
			// Skip entities destroyed by other means since enqueueing
			if !s.Has(id) {
				continue
			}
			if err := s.RemoveEntity(id); err != nil {
				return fmt.Errorf("failed to process queued entity removal: %w", err)
			}
		}
	}

	// Clear all queues
	s.opQueue.createOps = s.opQueue.createOps[:0]
	s.opQueue.destroyOps = s.opQueue.destroyOps[:0]
	clear(s.opQueue.pendingDestroy)
	return nil
}

// EnqueueDestroy queues ids for removal, ignoring those already queued.
func (q *opQueue) EnqueueDestroy(ids ...EntityID) {
	var fresh []EntityID
	for _, id := range ids {
		if _, exists := q.pendingDestroy[id]; exists {
			continue
		}
		q.pendingDestroy[id] = struct{}{}
		fresh = append(fresh, id)
	}
	if len(fresh) > 0 {
		q.enqueueOp(operation{
			typ: opDestroy,
			ids: fresh,
		})
	}
}
