package archive

import (
	"context"
	"fmt"

	"github.com/quakecore/seisarchive/model"
)

// BulkWriter is the batching bulk visitor the source calls
// DatabaseObjectWriter: it walks a tree top-down (add) or bottom-up
// (remove), wrapping every batchSize nodes in its own driver transaction
// instead of issuing one Begin/Commit per node. A batchSize of 1 or less
// gives every node its own transaction, matching the source's behavior at
// that boundary.
type BulkWriter struct {
	archive    *Archive
	batchSize  int
	addObjects bool
}

// NewBulkWriter returns a BulkWriter bound to a, inserting (addObjects=true)
// or removing (addObjects=false) in batches of batchSize nodes per
// transaction.
func NewBulkWriter(a *Archive, batchSize int, addObjects bool) *BulkWriter {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BulkWriter{archive: a, batchSize: batchSize, addObjects: addObjects}
}

// Run walks root and applies the writer's operation to every node, in
// batches. It returns the number of nodes that failed (their error does not
// abort the batch — the rows successfully written in the same commit
// interval still commit, mirroring the source's per-node error counter) and
// the first unrecoverable error encountered opening or closing a
// transaction, if any.
func (w *BulkWriter) Run(ctx context.Context, root *model.Node) (errCount int, err error) {
	nodes := w.collectNodes(root)
	d := w.archive.driver

	if err := d.Begin(ctx); err != nil {
		return 0, fmt.Errorf("archive: begin bulk write: %w", err)
	}

	inBatch := 0
	for _, n := range nodes {
		var opErr error
		if w.addObjects {
			opErr = w.archive.insertNode(ctx, n)
		} else {
			opErr = w.archive.removeNode(ctx, n)
		}
		if opErr != nil {
			errCount++
			continue
		}
		inBatch++
		if inBatch >= w.batchSize {
			if err := d.Commit(ctx); err != nil {
				return errCount, fmt.Errorf("archive: commit bulk write: %w", err)
			}
			if err := d.Begin(ctx); err != nil {
				return errCount, fmt.Errorf("archive: restart bulk write: %w", err)
			}
			inBatch = 0
		}
	}

	if err := d.Commit(ctx); err != nil {
		return errCount, fmt.Errorf("archive: final commit bulk write: %w", err)
	}
	return errCount, nil
}

func (w *BulkWriter) collectNodes(root *model.Node) []*model.Node {
	var nodes []*model.Node
	visit := model.VisitorFunc(func(n *model.Node) bool {
		nodes = append(nodes, n)
		return true
	})
	if w.addObjects {
		model.Walk(root, visit)
	} else {
		model.WalkPostOrder(root, visit)
	}
	return nodes
}
