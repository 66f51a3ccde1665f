package pipeline

import "context"

// Handler is one unit of message processing. ShouldProcess is the gate, Process the action.
// A handler stops the pipeline through Context.Stop.
type Handler interface {
	Name() string
	ShouldProcess(ctx context.Context, pc *Context) (bool, error)
	Process(ctx context.Context, pc *Context) error
}
