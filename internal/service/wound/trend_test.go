package wound

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woundtrack/ehr-api/internal/model"
)

func assessment(area float64, at time.Time) *model.WoundAssessment {
	return &model.WoundAssessment{
		ID:             uuid.New(),
		SurfaceAreaCM2: area,
		AssessedAt:     at,
	}
}

func TestSurfaceArea(t *testing.T) {
	assert.Equal(t, 12.0, SurfaceArea(4, 3))
	assert.Equal(t, 0.0, SurfaceArea(0, 5))
}

func TestComputeTrendNeedsTwoAssessments(t *testing.T) {
	woundID := uuid.New()

	assert.Nil(t, ComputeTrend(woundID, nil))
	assert.Nil(t, ComputeTrend(woundID, []*model.WoundAssessment{assessment(10, time.Now())}))
}

func TestComputeTrendShrinkingWound(t *testing.T) {
	woundID := uuid.New()
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	trend := ComputeTrend(woundID, []*model.WoundAssessment{
		assessment(10, start),
		assessment(8, start.AddDate(0, 0, 7)),
		assessment(5, start.AddDate(0, 0, 14)),
	})

	require.NotNil(t, trend)
	assert.Equal(t, woundID, trend.WoundID)
	assert.Equal(t, 10.0, trend.BaselineAreaCM2)
	assert.Equal(t, 5.0, trend.CurrentAreaCM2)
	assert.Equal(t, -50.0, trend.PercentChange)
	assert.Equal(t, 3, trend.AssessmentCount)
	assert.Equal(t, start, trend.FirstAssessedAt)
}

func TestComputeTrendWorseningWound(t *testing.T) {
	woundID := uuid.New()
	start := time.Now()

	trend := ComputeTrend(woundID, []*model.WoundAssessment{
		assessment(4, start),
		assessment(6, start.AddDate(0, 0, 7)),
	})

	require.NotNil(t, trend)
	assert.Equal(t, 50.0, trend.PercentChange)
}

func TestComputeTrendZeroBaseline(t *testing.T) {
	woundID := uuid.New()
	start := time.Now()

	trend := ComputeTrend(woundID, []*model.WoundAssessment{
		assessment(0, start),
		assessment(2, start.AddDate(0, 0, 7)),
	})

	require.NotNil(t, trend)
	assert.Equal(t, 0.0, trend.PercentChange)
}
