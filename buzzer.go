package c8vm

// Buzzer is the sound device. The Machine calls Play when the sound timer
// becomes non zero and Stop when it runs out, never twice in a row.
type Buzzer interface {
	Play()
	Stop()
}

// DummyBuzzer remembers its state instead of making noise.
type DummyBuzzer struct {
	IsPlaying bool
	// Beeps counts the calls to Play
	Beeps uint
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{}
}

// Play implements Buzzer.
func (b *DummyBuzzer) Play() {
	b.IsPlaying = true
	b.Beeps++
}

// Stop implements Buzzer
func (b *DummyBuzzer) Stop() {
	b.IsPlaying = false
}
