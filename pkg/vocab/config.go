package vocab

// Config carries every tunable threshold the core needs. It is passed
// into Core at startup; nothing in this package ever introspects the
// runtime environment for a setting.
type Config struct {
	MaxQuestions       int     // MAX_QUESTIONS, default 20
	MinRange           int     // MIN_RANGE, default 5
	RegressionInterval int     // REGRESSION_INTERVAL, default 5
	RegressionFactor   float64 // REGRESSION_FACTOR, default 0.80
	MasteryThreshold   int     // MASTERY_THRESHOLD days, default 21
	MasterySeed        int     // MASTERY_SEED days, default 21
	DailyGoal          int     // DAILY_GOAL, default 15
	EFMin              float64 // EF_MIN, default 1.3
	EFMax              float64 // EF_MAX, default 2.5
	DefaultSessionSize int     // review.session default limit, 20
	DistractorCount    int     // default N=3
	DistractorBand     int     // preferred +/- difficulty band, default 10
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		MaxQuestions:       20,
		MinRange:           5,
		RegressionInterval: 5,
		RegressionFactor:   0.80,
		MasteryThreshold:   21,
		MasterySeed:        21,
		DailyGoal:          15,
		EFMin:              1.3,
		EFMax:              2.5,
		DefaultSessionSize: 20,
		DistractorCount:    3,
		DistractorBand:     10,
	}
}
