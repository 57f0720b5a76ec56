package model

type SchedulerKind string

const (
	SchedulerSingle      SchedulerKind = "single"
	SchedulerPartitioned SchedulerKind = "partitioned"
)

type RuntimeConfig struct {
	BufferSize int           // default: 1
	NumWorkers int           // default: 1
	Scheduler  SchedulerKind // default: single, or partitioned when NumWorkers > 1
	Registry   bool          // track live fibers in an in-memory registry
}

func NewRuntimeConfig(bufferSize, numWorkers int, kind SchedulerKind) RuntimeConfig {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if kind == "" {
		kind = SchedulerSingle
		if numWorkers > 1 {
			kind = SchedulerPartitioned
		}
	}
	return RuntimeConfig{
		BufferSize: bufferSize,
		NumWorkers: numWorkers,
		Scheduler:  kind,
	}
}

type LogConfig struct {
	Level    string // debug, info, warn, error. default: info
	Encoding string // json or console. default: json
}

// Partitionable is implemented by anything that submits work to a scheduler.
// Work sharing a partition key runs in submission order.
type Partitionable interface {
	PartitionKey() string
}

// PartitionKey is a plain string used as a Partitionable.
type PartitionKey string

func (k PartitionKey) PartitionKey() string {
	return string(k)
}
