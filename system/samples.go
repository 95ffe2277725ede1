package system

// SampleSource is the APU collaborator ProduceSamples drives emulation
// against. The APU itself is out of scope for this core; SampleSource is
// the narrow seam a host's audio subsystem implements so System can decide
// how far to run without knowing anything about sound generation.
type SampleSource interface {
	// SamplesProduced reports how many samples the source has buffered
	// since its last CopySamples call.
	SamplesProduced() int

	// CopySamples fills dst with the oldest len(dst) buffered samples and
	// discards them from the source's internal buffer.
	CopySamples(dst []float32)
}

// produceSamplesStepBudget bounds how many instructions ProduceSamples will
// run when source is nil, so a caller that forgot to wire an APU gets a
// silent buffer back instead of an infinite loop.
const produceSamplesStepBudget = 1 << 20

// ProduceSamples drives emulation until source has at least len(buffer)
// samples ready, then copies them into buffer scaled by cfg.Volume. If
// source is nil, buffer is zero-filled after running a bounded number of
// steps — there is no real audio path without an APU collaborator wired in.
func (s *System) ProduceSamples(buffer []float32, source SampleSource) {
	s.ticking = true

	if source == nil {
		for i := 0; i < produceSamplesStepBudget && s.ticking; i++ {
			s.Executor.Step()
		}
		for i := range buffer {
			buffer[i] = 0
		}
		return
	}

	for s.ticking && source.SamplesProduced() < len(buffer) {
		s.Executor.Step()
	}

	source.CopySamples(buffer)
	for i := range buffer {
		buffer[i] *= s.cfg.Volume
	}
}
