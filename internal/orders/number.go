package orders

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// NumberGenerator issues order numbers.
type NumberGenerator interface {
	Next(at time.Time) string
}

// SnowflakeNumbers issues PED-yyyyMMdd-<snowflake id> numbers. Ids are unique per node
// and increase monotonically, so numbers sort by creation.
type SnowflakeNumbers struct {
	node *snowflake.Node
}

// NewSnowflakeNumbers builds a generator for the given node (0-1023).
func NewSnowflakeNumbers(nodeID int64) (*SnowflakeNumbers, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("order number node %d: %w", nodeID, err)
	}
	return &SnowflakeNumbers{node: node}, nil
}

func (g *SnowflakeNumbers) Next(at time.Time) string {
	return fmt.Sprintf("PED-%s-%s", at.UTC().Format("20060102"), g.node.Generate().String())
}
