package evaluation

import (
	"time"

	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// FallbackFunc evaluates tuple expressions the strategy does not know.
type FallbackFunc func(s *Strategy, expr algebra.TupleExpr, bindings Solution) (Iterator, error)

// Options configures a Strategy.
type Options struct {
	// Dataset restricts statement patterns to the listed graphs. Nil means
	// all graphs.
	Dataset *Dataset

	// EnableParallelJoins evaluates joins and well-designed left joins with
	// background cursors on Executor.
	EnableParallelJoins bool
	Executor            TaskExecutor
	// QueueCapacity bounds the right-hand iterators a parallel cursor
	// buffers ahead of its consumer.
	QueueCapacity int
	// CloseGracePeriod is how long closing a parallel cursor waits for its
	// background task. A task still waiting for an executor slot is
	// cancelled without waiting.
	CloseGracePeriod time.Duration

	// OrderSyncThreshold is the number of buffered entries after which an
	// Order moves to disk. Zero keeps everything in memory.
	OrderSyncThreshold int
	// SpillDir is the parent directory for on-disk order buffers. Empty
	// uses the system temporary directory.
	SpillDir string

	// MaxCollectionSize bounds the solutions held by buffering operators.
	// Zero means no limit.
	MaxCollectionSize int64

	Functions       *FunctionRegistry
	ServiceResolver ServiceResolver
	Fallback        FallbackFunc

	EnableDebugLogging bool

	// Context receives annotation events. Nil disables them.
	Context Context
}

// DefaultOptions returns the options used by NewStrategy for unset fields.
func DefaultOptions() Options {
	return Options{
		QueueCapacity:    1024,
		CloseGracePeriod: 2 * time.Second,
		Functions:        DefaultFunctions(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = def.QueueCapacity
	}
	if o.CloseGracePeriod <= 0 {
		o.CloseGracePeriod = def.CloseGracePeriod
	}
	if o.Functions == nil {
		o.Functions = def.Functions
	}
	if o.Context == nil {
		o.Context = &BaseContext{}
	}
	return o
}
