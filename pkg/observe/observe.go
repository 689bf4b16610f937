package observe

// Observer receives acquisition-side events. The session and the
// publisher report through this interface so that a capture run
// without the live server carries no metrics machinery at all.
type Observer interface {
	RecordIngested()
	ParseDropped()
	SetStalled(stalled bool)
	FramePublished()
	SetWindowLength(n int)
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordIngested()     {}
func (Nop) ParseDropped()       {}
func (Nop) SetStalled(bool)     {}
func (Nop) FramePublished()     {}
func (Nop) SetWindowLength(int) {}
