package util

import "time"

func TimeOperationMicroseconds(op func()) int64 {
	start := time.Now()
	op()
	return time.Since(start).Microseconds()
}

// RealtimeFactor is how many times faster than real time n samples at
// sampleRate were handled in elapsedMicros. Zero elapsed time reports zero.
func RealtimeFactor(n int, sampleRate float64, elapsedMicros int64) float64 {
	if elapsedMicros <= 0 || sampleRate <= 0 {
		return 0
	}
	return float64(n) / sampleRate * 1e6 / float64(elapsedMicros)
}
