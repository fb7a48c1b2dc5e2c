package utils

import "runtime"

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree > maxIndex {
		ParallelDegree = maxIndex
	}
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// DefaultParallelDegree sizes worker counts to the machine.
func DefaultParallelDegree() int {
	return runtime.NumCPU()
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// Split the index into ParallelDegree near-equal buckets, with remainder
	// cells distributed one per bucket from the front
	var (
		Npart = pm.MaxIndex / pm.ParallelDegree
		rem   = pm.MaxIndex % pm.ParallelDegree
	)
	lo := threadNum * Npart
	if threadNum < rem {
		lo += threadNum
	} else {
		lo += rem
	}
	size := Npart
	if threadNum < rem {
		size++
	}
	bucket[0] = lo
	bucket[1] = lo + size
	return
}

// GetBucketRange returns the half-open index range owned by a worker.
func (pm *PartitionMap) GetBucketRange(threadNum int) (lo, hi int) {
	lo, hi = pm.Partitions[threadNum][0], pm.Partitions[threadNum][1]
	return
}
