package model

// HealthSummary is the viewer's projection of the `health` collection.
// Decoding into this type drops any field outside the projection even if
// the store returned one.
type HealthSummary struct {
	ID               any `bson:"_id" json:"_id"`
	AverageHeartRate any `bson:"average_heart_rate,omitempty" json:"average_heart_rate,omitempty"`
}
