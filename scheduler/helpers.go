package scheduler

import (
	"github.com/cespare/xxhash/v2"
	"github.com/on-the-ground/fiber_ive_go/model"
)

func hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

func getIndexByHash(owner model.Partitionable, numLanes int) int {
	switch numLanes {
	case 0:
		panic("number of lanes cannot be 0")
	case 1:
		return 0
	default:
		return int(hash(owner.PartitionKey()) % uint64(numLanes))
	}
}
