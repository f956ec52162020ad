package vad

// Segment is one contiguous detected speech interval. Frame indices form a
// half-open range [StartFrame, EndFrame); Start and End are the same bounds
// in seconds (frame * hop / sample rate). Segments returned by this package
// never overlap, are sorted by start, and always satisfy Start < End.
type Segment struct {
	StartFrame int     `json:"start_frame"`
	EndFrame   int     `json:"end_frame"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// newSegment converts a frame range into a Segment with times attached.
func newSegment(startFrame, endFrame, hopLength, sampleRate int) Segment {
	return Segment{
		StartFrame: startFrame,
		EndFrame:   endFrame,
		Start:      frameTime(startFrame, hopLength, sampleRate),
		End:        frameTime(endFrame, hopLength, sampleRate),
	}
}

// frameTime converts a frame index to seconds.
func frameTime(frame, hopLength, sampleRate int) float64 {
	return float64(frame) * float64(hopLength) / float64(sampleRate)
}

// hysteresis is the two-state run-length smoother shared by the offline and
// online paths. Sharing it is what makes a single-push online run reproduce
// the offline result frame for frame.
//
// In the silence state, a speech run reaching minSpeech opens a segment at
// frame i-minSpeech+1; shorter speech runs are dropped as spikes. In the
// speech state, a silence run reaching minSilence closes the segment at
// frame i-minSilence+1; shorter gaps are bridged.
type hysteresis struct {
	minSpeech  int
	minSilence int

	inSpeech   bool
	speechRun  int
	silenceRun int
	openStart  int
}

// step advances the machine by one labeled frame. When the frame closes a
// segment, it returns the segment's frame range and closed=true. The frame
// index must increase by exactly one per call.
func (h *hysteresis) step(frame int, speech bool) (start, end int, closed bool) {
	if !h.inSpeech {
		if !speech {
			h.speechRun = 0
			return 0, 0, false
		}
		h.speechRun++
		if h.speechRun >= h.minSpeech {
			h.inSpeech = true
			h.openStart = frame - h.minSpeech + 1
			h.speechRun = 0
			h.silenceRun = 0
		}
		return 0, 0, false
	}

	if speech {
		h.silenceRun = 0
		return 0, 0, false
	}

	h.silenceRun++
	if h.silenceRun >= h.minSilence {
		start = h.openStart
		end = frame - h.minSilence + 1
		h.inSpeech = false
		h.silenceRun = 0
		return start, end, true
	}

	return 0, 0, false
}

// finish closes the machine at end of input, frameCount being the total
// number of frames seen. A still-open segment is closed at the last speech
// frame: a trailing silence run shorter than minSilence is trimmed rather
// than absorbed, so flushing a stream agrees with the offline run rules.
func (h *hysteresis) finish(frameCount int) (start, end int, closed bool) {
	if !h.inSpeech {
		return 0, 0, false
	}
	start = h.openStart
	end = frameCount - h.silenceRun
	h.inSpeech = false
	h.silenceRun = 0
	h.speechRun = 0
	return start, end, true
}
