package srs

import "math"

// Params defines all configurable parameters for the scheduling
// algorithm. The 17-entry weight vector follows the FSRS v4 layout:
//
//	w[0..3]   initial stability per rating (Again, Hard, Good, Easy)
//	w[4..7]   stability growth base factor per rating
//	w[8]      difficulty step per rating delta
//	w[9]      difficulty decrease factor for Easy
//	w[10]     mean-reversion weight toward the difficulty baseline
//	w[11]     difficulty factor
//	w[12]     stability penalty scale on lapse
//	w[13]     difficulty penalty scale for Hard
//	w[14]     stability bonus scale for Good
//	w[15]     difficulty bonus scale for Easy
//	w[16]     stability decay factor
type Params struct {
	W [17]float64

	// RequestRetention is the target recall probability at the moment
	// a card comes due (0.9 means schedule for 90% recall).
	RequestRetention float64

	// MaximumInterval caps scheduled intervals, in days.
	MaximumInterval float64

	// factor converts stability into an interval for the configured
	// retention target: 0.9^(1/RequestRetention) - 1.
	factor float64
}

// ParamsConfig allows overriding the default parameters when creating
// a new Params instance. Zero-valued fields keep the defaults.
type ParamsConfig struct {
	Weights          []float64
	RequestRetention float64
	MaximumInterval  float64
}

// defaultWeights are research-derived starting values; they can be
// tuned per course or per student via ParamsConfig.
var defaultWeights = [17]float64{
	0.4,  // w0: initial stability for Again
	0.6,  // w1: initial stability for Hard
	2.4,  // w2: initial stability for Good
	5.8,  // w3: initial stability for Easy
	4.93, // w4
	0.94, // w5
	0.86, // w6
	0.01, // w7
	1.49, // w8
	0.14, // w9
	0.94, // w10
	2.18, // w11
	0.05, // w12
	0.34, // w13
	1.26, // w14
	0.29, // w15
	2.61, // w16
}

// NewDefaultParams creates a new Params instance with default values:
// 90% request retention and a ~100 year maximum interval.
func NewDefaultParams() *Params {
	p := &Params{
		W:                defaultWeights,
		RequestRetention: 0.9,
		MaximumInterval:  36500,
	}
	p.factor = intervalFactor(p.RequestRetention)
	return p
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	p := NewDefaultParams()

	if len(config.Weights) == len(p.W) {
		copy(p.W[:], config.Weights)
	}
	if config.RequestRetention > 0 && config.RequestRetention < 1 {
		p.RequestRetention = config.RequestRetention
	}
	if config.MaximumInterval > 0 {
		p.MaximumInterval = config.MaximumInterval
	}

	p.factor = intervalFactor(p.RequestRetention)
	return p
}

func intervalFactor(requestRetention float64) float64 {
	return math.Pow(0.9, 1/requestRetention) - 1
}
