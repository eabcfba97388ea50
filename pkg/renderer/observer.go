package renderer

// Observer receives render notifications. Calls come from the render
// goroutine, one at a time for a given run, and must not call back into
// the Controller's Stop or Restart.
type Observer interface {
	// Progress reports that current of total samples are done
	Progress(message string, current, total int)

	// Update publishes the averaged render and the canvas after a pass
	Update(render, canvas *Image, current, total int)
}

// ObserverFuncs adapts functions to the Observer interface. Nil fields are
// skipped.
type ObserverFuncs struct {
	ProgressFunc func(message string, current, total int)
	UpdateFunc   func(render, canvas *Image, current, total int)
}

// Progress calls ProgressFunc
func (o ObserverFuncs) Progress(message string, current, total int) {
	if o.ProgressFunc != nil {
		o.ProgressFunc(message, current, total)
	}
}

// Update calls UpdateFunc
func (o ObserverFuncs) Update(render, canvas *Image, current, total int) {
	if o.UpdateFunc != nil {
		o.UpdateFunc(render, canvas, current, total)
	}
}

// NopObserver ignores every notification
type NopObserver struct{}

func (NopObserver) Progress(string, int, int)       {}
func (NopObserver) Update(*Image, *Image, int, int) {}
