package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"realty-rag/internal/models"
)

func TestReport_AccountingLaw(t *testing.T) {
	r := NewReport([]string{"listings"}, nil)

	r.AddSuccess(models.EntityProperty, 3)
	r.AddSuccess(models.EntityArticle, 1)
	r.AddError(models.EntityProperty, ErrSourceNotFound, 2)

	assert.Equal(t, r.TotalEmbeddings, r.SuccessfulCorrelations+r.FailedCorrelations)
	assert.Equal(t, 6, r.TotalEmbeddings)
	assert.InDelta(t, 4.0/6.0, r.SuccessRate(), 1e-9)
	assert.InDelta(t, 2.0/6.0, r.FailureRate(), 1e-9)
	assert.Equal(t, 1, r.ErrorCounts[ErrSourceNotFound])
	assert.Equal(t, 5, r.EntityTypeCounts[models.EntityProperty])
}

func TestReport_EmptyRunRatesAreZero(t *testing.T) {
	r := NewReport(nil, nil)
	assert.Equal(t, 0.0, r.SuccessRate())
	assert.Equal(t, 0.0, r.FailureRate())
}

func TestReport_Complete(t *testing.T) {
	r := NewReport(nil, nil)
	assert.Equal(t, int64(0), int64(r.Elapsed()))

	r.Complete()
	assert.False(t, r.CompletedAt.IsZero())
	assert.GreaterOrEqual(t, int64(r.Elapsed()), int64(0))
}

func TestReport_ThroughputZeroBeforeComplete(t *testing.T) {
	r := NewReport(nil, nil)
	r.AddSuccess(models.EntityProperty, 10)
	assert.Equal(t, 0.0, r.Throughput())

	r.Complete()
	assert.GreaterOrEqual(t, r.Throughput(), 0.0)
}

func TestReport_SummaryTiers(t *testing.T) {
	r := NewReport(nil, nil)
	r.AddSuccess(models.EntityProperty, 96)
	r.AddError(models.EntityProperty, ErrSourceNotFound, 4)
	r.Complete()

	assert.Contains(t, r.Summary(), "[excellent]")
	assert.Contains(t, r.Summary(), "96/100")

	r2 := NewReport(nil, nil)
	r2.AddSuccess(models.EntityProperty, 1)
	r2.AddError(models.EntityProperty, ErrSourceNotFound, 1)
	r2.Complete()
	assert.Contains(t, r2.Summary(), "[degraded]")
}

func TestReport_UniqueIDs(t *testing.T) {
	a := NewReport(nil, nil)
	b := NewReport(nil, nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
