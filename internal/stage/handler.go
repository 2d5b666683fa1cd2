package stage

import "context"

// Handler describes the contract the CLI needs from each workflow.
type Handler interface {
	Name() string
	Run(ctx context.Context, observer Observer) (Summary, error)
	HealthCheck(ctx context.Context) Health
}

// Observer is notified after every unit of work. index is 1-based.
type Observer func(index, total int, result Result)

// Notify calls o when it is set.
func (o Observer) Notify(index, total int, result Result) {
	if o != nil {
		o(index, total, result)
	}
}
