package embedding

import "math"

// meanPool усредняет скрытые состояния токенов с ненулевой маской и нормирует результат.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	out := make([]float32, dim)

	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, v := range row {
			out[i] += v
		}
		count++
	}

	if count == 0 {
		return out
	}

	var sum float64
	for i := range out {
		out[i] /= count
		sum += float64(out[i] * out[i])
	}
	if sum > 0 {
		norm := float32(1 / math.Sqrt(sum))
		for i := range out {
			out[i] *= norm
		}
	}

	return out
}
