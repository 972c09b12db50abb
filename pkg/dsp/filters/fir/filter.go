package fir

// Filter is a real FIR filter over a circular history. It shares its taps and
// owns only the history and the write cursor.
type Filter struct {
	taps      Taps
	history   []float64
	lastIndex int
}

func NewFilter(taps Taps) *Filter {
	return &Filter{
		taps:    taps,
		history: make([]float64, len(taps)),
	}
}

// Filter pushes x into the history, overwriting the oldest entry, and returns
// the weighted sum of the last len(taps) inputs.
func (f *Filter) Filter(x float64) float64 {
	n := len(f.taps)
	if n == 0 {
		return 0
	}

	f.history[f.lastIndex] = x
	f.lastIndex++
	f.lastIndex %= n

	var r float64
	index := f.lastIndex
	for i := 0; i < n; i++ {
		index--
		if index < 0 {
			index = n - 1
		}
		r += f.history[index] * f.taps[i]
	}
	return r
}

// Cursor is the history slot the next input is written to.
func (f *Filter) Cursor() int {
	return f.lastIndex
}

func (f *Filter) Taps() Taps {
	return f.taps
}

func (f *Filter) Reset() {
	for i := range f.history {
		f.history[i] = 0
	}
	f.lastIndex = 0
}

func (f *Filter) WorkBuffer(input, output []float32) int {
	for i := 0; i < len(input); i++ {
		output[i] = float32(f.Filter(float64(input[i])))
	}
	return len(input)
}

func (f *Filter) Work(data []float32) []float32 {
	ret := make([]float32, f.PredictOutputSize(len(data)))
	f.WorkBuffer(data, ret)
	return ret
}

func (f *Filter) PredictOutputSize(inputSize int) int {
	return inputSize
}
