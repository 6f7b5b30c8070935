package node

import (
	"fmt"

	"github.com/mackerelio/go-osstat/memory"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/logging"
	"github.com/DeBrosOfficial/branchnode/pkg/rootchain"
	"github.com/DeBrosOfficial/branchnode/pkg/service"
)

// ShardPrefix is the status line prefix of the node's own chain.
func ShardPrefix(shard uint16) string {
	return fmt.Sprintf("shard #%d", shard)
}

func newInformant(shard uint16, c *service.Chain, logger *logging.ColoredLogger, reporter rootchain.Reporter) *rootchain.Monitor {
	return rootchain.NewMonitor(rootchain.MonitorOptions{
		Prefix:    ShardPrefix(shard),
		Info:      c.Store,
		Status:    c.Network.Status(),
		Logger:    logger,
		Component: logging.ComponentShard,
		Reporter:  reporter,
		Fields:    memoryFields,
	})
}

// memoryFields reports host memory usage; it is empty where go-osstat has
// no memory support.
func memoryFields() []zap.Field {
	mem, err := memory.Get()
	if err != nil || mem.Total == 0 {
		return nil
	}
	return []zap.Field{
		zap.Uint64("mem_used_mb", mem.Used/1024/1024),
		zap.Float64("mem_used_pct", float64(mem.Used)/float64(mem.Total)*100),
	}
}
