// Package harness runs multiplication programs under an external timing
// wrapper and records per-vector timings as CSV.
package harness

// Timing is the wrapper's report for one invocation, in decimal seconds
// exactly as printed.
type Timing struct {
	Real string
	User string
	Sys  string
}

// Result is one timed execution of a program on a test vector.
type Result struct {
	X       string
	Y       string
	Product string
	Target  string
	Timing  Timing
}

// Correct reports whether the program's output matches the expected
// product.
func (r Result) Correct() bool {
	return r.Product == r.Target
}

// Table holds every result of one program at one bit-width, in vector
// order.
type Table struct {
	Program string
	Bits    string
	Results []Result
}

// Summary condenses a Table for reporting.
type Summary struct {
	Program     string  `json:"program"`
	Bits        string  `json:"bits"`
	CSVPath     string  `json:"csv_path"`
	Vectors     int     `json:"vectors"`
	Correct     int     `json:"correct"`
	RealTotal   float64 `json:"real_total_s"`
	RealMin     float64 `json:"real_min_s"`
	RealMax     float64 `json:"real_max_s"`
	UserTotal   float64 `json:"user_total_s"`
	SystemTotal float64 `json:"sys_total_s"`
}

// RealMean returns the mean wall time per vector.
func (s Summary) RealMean() float64 {
	if s.Vectors == 0 {
		return 0
	}

	return s.RealTotal / float64(s.Vectors)
}
