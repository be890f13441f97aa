package ranker

import (
	"math"

	"github.com/bundaberg-joey/amiscreen"
)

// BucketGaussianSurrogate is a deliberately simple stdlib-only Surrogate:
// it treats each candidate's Feature as (or convertible to) a float64
// "position", buckets known observations by rounding that position, and
// predicts each bucket's sample mean/stddev, falling back to the global
// mean/stddev for unseen positions. It exists purely to make
// SurrogateRanker exercisable without an external ML dependency; it is not
// a serious regression model (see DESIGN.md — no ML library appears
// anywhere in the example pack for this role).
type BucketGaussianSurrogate struct {
	bucketWidth float64
	buckets     map[int][]float64
	globalMean  float64
	globalStd   float64
}

// NewBucketGaussianSurrogate returns a surrogate that buckets feature
// positions at the given width.
func NewBucketGaussianSurrogate(bucketWidth float64) *BucketGaussianSurrogate {
	if bucketWidth <= 0 {
		bucketWidth = 1.0
	}
	return &BucketGaussianSurrogate{
		bucketWidth: bucketWidth,
		buckets:     map[int][]float64{},
	}
}

func toFloat(f ami.Feature) float64 {
	switch v := f.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (s *BucketGaussianSurrogate) bucketOf(f ami.Feature) int {
	return int(math.Round(toFloat(f) / s.bucketWidth))
}

func (s *BucketGaussianSurrogate) Fit(x []ami.Feature, y []ami.Target) {
	s.buckets = map[int][]float64{}
	var sum, sumSq float64
	n := len(y)
	for i, f := range x {
		v := toFloat(y[i])
		sum += v
		sumSq += v * v
		b := s.bucketOf(f)
		s.buckets[b] = append(s.buckets[b], v)
	}
	if n == 0 {
		s.globalMean, s.globalStd = 0, 1
		return
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	s.globalMean = mean
	s.globalStd = math.Sqrt(variance) + 1e-6
}

func (s *BucketGaussianSurrogate) Predict(x []ami.Feature) (mean []float64, stddev []float64) {
	mean = make([]float64, len(x))
	stddev = make([]float64, len(x))
	for i, f := range x {
		b := s.bucketOf(f)
		obs, ok := s.buckets[b]
		if !ok || len(obs) == 0 {
			mean[i] = s.globalMean
			stddev[i] = s.globalStd
			continue
		}
		var sum, sumSq float64
		for _, v := range obs {
			sum += v
			sumSq += v * v
		}
		n := float64(len(obs))
		m := sum / n
		variance := sumSq/n - m*m
		if variance < 0 {
			variance = 0
		}
		mean[i] = m
		// Uncertainty shrinks with more observations in the bucket, the
		// same qualitative shape a real posterior variance has.
		stddev[i] = math.Sqrt(variance)/math.Sqrt(n) + 1e-6
	}
	return mean, stddev
}
