package services

// ChartData is the label/value pairing the dashboard endpoints emit. The two
// slices are parallel and always the same length; both are initialized empty
// so an empty chart serializes as [] rather than null.
type ChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func newChart(capacity int) ChartData {
	return ChartData{
		Labels: make([]string, 0, capacity),
		Values: make([]float64, 0, capacity),
	}
}

func (c *ChartData) append(label string, value float64) {
	c.Labels = append(c.Labels, label)
	c.Values = append(c.Values, value)
}

// Len returns the number of points in the chart.
func (c ChartData) Len() int {
	return len(c.Labels)
}
