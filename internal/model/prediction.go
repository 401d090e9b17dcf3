package model

import "time"

// PredictionContext is the request envelope serialized for the out-of-process
// prediction model.
type PredictionContext struct {
	TotalDistance float64    `json:"totalDistance"`
	Tonnage       float64    `json:"tonnage"`
	Origin        Coordinate `json:"origin,omitempty"`
	Destination   Coordinate `json:"destination,omitempty"`
	ProductType   string     `json:"productType,omitempty"`
	Month         int        `json:"month"`
	Quarter       int        `json:"quarter"`
	ModelVariant  string     `json:"modelVariant,omitempty"`
}

// WithSeason fills Month and Quarter from the given time when unset.
func (c PredictionContext) WithSeason(t time.Time) PredictionContext {
	if c.Month == 0 {
		c.Month = int(t.Month())
		c.Quarter = (c.Month-1)/3 + 1
	}
	return c
}

// PredictionResult is the parsed response from the prediction process.
type PredictionResult struct {
	RecommendedValue float64 `json:"recommendedPrice"`
	RawPrediction    float64 `json:"rawPrediction,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
	Method           string  `json:"similarityMethod,omitempty"`
	ModelType        string  `json:"modelType,omitempty"`
	ModelVersion     string  `json:"modelVersion,omitempty"`
}

// QuoteSample is a completed quote fed back to the learning controller.
type QuoteSample struct {
	CarrierPaymentPerTon float64
	TotalDistance        float64
	Tonnage              float64
	Origin               string
	Destination          string
}

// Complete reports whether the sample has the fields the model trains on.
func (s QuoteSample) Complete() bool {
	return s.CarrierPaymentPerTon > 0 && s.TotalDistance > 0 && s.Tonnage > 0
}

// PredictionFeedback records a user's reaction to a prediction.
type PredictionFeedback struct {
	OriginalRecommendation float64
	SuggestedValue         float64 // zero when the user gave no alternative
	Helpful                bool
	Distance               float64
	Tonnage                float64
	Origin                 string
	Destination            string
	CreatedAt              time.Time
}
