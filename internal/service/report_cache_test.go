package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/channwl/DPT-scroring-program/internal/grading"
	"github.com/channwl/DPT-scroring-program/internal/repository"
)

func TestBatchReportCache(t *testing.T) {
	mini := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := setupServiceDB(t)
	seedProblem(t, db, "exam-1")
	seedRubric(t, db, "exam-1")
	seedAnswers(t, db, "exam-1", 2)

	client := &stubClient{t: t, responses: []string{gradingResponse(9), gradingResponse(7)}}
	svc := NewBatchService(
		repository.NewRubricRepository(db),
		repository.NewAnswerRepository(db),
		repository.NewReportRepository(db),
		client,
		&collectingPublisher{},
		redisClient,
		time.Minute,
		grading.DefaultFuzzyThreshold,
		grading.DefaultMaxEvidence,
		testLogger(),
	)

	report, err := svc.Run(context.Background(), "exam-1")
	require.NoError(t, err)
	require.True(t, mini.Exists("dpt:report:"+report.ID))

	fetched, err := svc.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, report.ID, fetched.ID)
	require.Len(t, fetched.Results, 2)

	// After the TTL lapses the report is served from the database again.
	mini.FastForward(2 * time.Minute)
	require.False(t, mini.Exists("dpt:report:"+report.ID))

	fetched, err = svc.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, report.ID, fetched.ID)
	require.True(t, mini.Exists("dpt:report:"+report.ID))
}
